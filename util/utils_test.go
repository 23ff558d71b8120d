package util

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestForceSymlinkDir(t *testing.T) {
	c := qt.New(t)
	root := t.TempDir()
	targetA := filepath.Join(root, "a")
	targetB := filepath.Join(root, "b")
	c.Assert(os.Mkdir(targetA, 0o755), qt.IsNil)
	c.Assert(os.Mkdir(targetB, 0o755), qt.IsNil)

	link := filepath.Join(root, "current")
	c.Assert(ForceSymlinkDir(targetA, link), qt.IsNil)
	dest, err := os.Readlink(link)
	c.Assert(err, qt.IsNil)
	c.Assert(dest, qt.Equals, targetA)

	// repointing replaces the existing link
	c.Assert(ForceSymlinkDir(targetB, link), qt.IsNil)
	dest, err = os.Readlink(link)
	c.Assert(err, qt.IsNil)
	c.Assert(dest, qt.Equals, targetB)

	// a real directory at the link path is never clobbered
	realDir := filepath.Join(root, "real")
	c.Assert(os.Mkdir(realDir, 0o755), qt.IsNil)
	c.Assert(ForceSymlinkDir(targetA, realDir), qt.IsNotNil)
	c.Assert(DirExists(realDir), qt.IsTrue)
}

func TestDeleteContents(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	c.Assert(os.WriteFile(filepath.Join(dir, "f"), []byte("x"), 0o644), qt.IsNil)
	c.Assert(os.MkdirAll(filepath.Join(dir, "sub", "deep"), 0o755), qt.IsNil)

	c.Assert(DeleteContents(dir), qt.IsNil)
	entries, err := os.ReadDir(dir)
	c.Assert(err, qt.IsNil)
	c.Assert(entries, qt.HasLen, 0)

	// missing directory is a no-op
	c.Assert(DeleteContents(filepath.Join(dir, "gone")), qt.IsNil)
}

func TestCopyDir(t *testing.T) {
	c := qt.New(t)
	src := t.TempDir()
	dst := t.TempDir()
	c.Assert(os.MkdirAll(filepath.Join(src, "nested"), 0o755), qt.IsNil)
	c.Assert(os.WriteFile(filepath.Join(src, "top.txt"), []byte("top"), 0o644), qt.IsNil)
	c.Assert(os.WriteFile(filepath.Join(src, "nested", "in.txt"), []byte("in"), 0o600), qt.IsNil)

	c.Assert(CopyDir(src, dst), qt.IsNil)
	data, err := os.ReadFile(filepath.Join(dst, "nested", "in.txt"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "in")
	info, err := os.Stat(filepath.Join(dst, "nested", "in.txt"))
	c.Assert(err, qt.IsNil)
	c.Assert(info.Mode().Perm(), qt.Equals, os.FileMode(0o600))
}

func TestMoveFile(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "sub", "dst")
	c.Assert(os.WriteFile(src, []byte("payload"), 0o644), qt.IsNil)

	c.Assert(MoveFile(src, dst), qt.IsNil)
	c.Assert(FileExists(src), qt.IsFalse)
	data, err := os.ReadFile(dst)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "payload")
}
