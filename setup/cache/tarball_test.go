package cache

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

// packWithName builds a tarball with a single, possibly hostile, entry
// name.
func packWithName(w io.Writer, name string, content []byte) error {
	gzw := gzip.NewWriter(w)
	tw := tar.NewWriter(gzw)
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if _, err := tw.Write(content); err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return gzw.Close()
}

func TestPackUnpackRoundtrip(t *testing.T) {
	c := qt.New(t)
	src := filepath.Join(t.TempDir(), "abc123")
	c.Assert(os.MkdirAll(filepath.Join(src, "main_js"), 0o755), qt.IsNil)
	c.Assert(os.WriteFile(filepath.Join(src, "prover_key.zkey"), []byte("pk"), 0o644), qt.IsNil)
	c.Assert(os.WriteFile(filepath.Join(src, "main_c"), []byte("bin"), 0o744), qt.IsNil)
	c.Assert(os.WriteFile(filepath.Join(src, "main_js", "main.wasm"), []byte("wasm"), 0o644), qt.IsNil)

	var buf bytes.Buffer
	c.Assert(Pack(src, &buf), qt.IsNil)

	// unpacking into a parent dir recreates the directory by base name
	dest := t.TempDir()
	c.Assert(Unpack(&buf, dest), qt.IsNil)

	data, err := os.ReadFile(filepath.Join(dest, "abc123", "prover_key.zkey"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "pk")
	data, err = os.ReadFile(filepath.Join(dest, "abc123", "main_js", "main.wasm"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "wasm")
	info, err := os.Stat(filepath.Join(dest, "abc123", "main_c"))
	c.Assert(err, qt.IsNil)
	c.Assert(info.Mode().Perm(), qt.Equals, os.FileMode(0o744))
}

func TestUnpackRejectsTraversal(t *testing.T) {
	c := qt.New(t)
	var buf bytes.Buffer
	c.Assert(packWithName(&buf, "../escape", []byte("evil")), qt.IsNil)
	err := Unpack(&buf, t.TempDir())
	c.Assert(err, qt.ErrorMatches, ".*escapes destination.*")
}
