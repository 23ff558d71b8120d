package download

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

var (
	artifactPath    = "artifact.bin"
	artifactContent = []byte("some artifact content for the download tests")
)

func testArtifactServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, artifactPath, time.Now(), bytes.NewReader(artifactContent))
	}))
}

func artifactHash() string {
	sum := sha256.Sum256(artifactContent)
	return hex.EncodeToString(sum[:])
}

func TestToFile(t *testing.T) {
	c := qt.New(t)
	server := testArtifactServer()
	defer server.Close()

	remoteURL, err := url.JoinPath(server.URL, artifactPath)
	c.Assert(err, qt.IsNil)
	dest := filepath.Join(t.TempDir(), "out.bin")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.Assert(ToFile(ctx, remoteURL, dest, &Options{ExpectedHash: artifactHash()}), qt.IsNil)

	data, err := os.ReadFile(dest)
	c.Assert(err, qt.IsNil)
	c.Assert(data, qt.DeepEquals, artifactContent)
	// no partial file left behind
	_, err = os.Stat(dest + ".partial")
	c.Assert(os.IsNotExist(err), qt.IsTrue)
}

func TestToFileHashMismatch(t *testing.T) {
	c := qt.New(t)
	server := testArtifactServer()
	defer server.Close()

	remoteURL, err := url.JoinPath(server.URL, artifactPath)
	c.Assert(err, qt.IsNil)
	dest := filepath.Join(t.TempDir(), "out.bin")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	wrong := hex.EncodeToString(bytes.Repeat([]byte{0xab}, 32))
	c.Assert(ToFile(ctx, remoteURL, dest, &Options{ExpectedHash: wrong}), qt.IsNotNil)
	_, err = os.Stat(dest)
	c.Assert(os.IsNotExist(err), qt.IsTrue)
}

func TestToFileResume(t *testing.T) {
	c := qt.New(t)
	server := testArtifactServer()
	defer server.Close()

	remoteURL, err := url.JoinPath(server.URL, artifactPath)
	c.Assert(err, qt.IsNil)
	dest := filepath.Join(t.TempDir(), "out.bin")

	// pretend a previous run got the first half
	half := len(artifactContent) / 2
	c.Assert(os.WriteFile(dest+".partial", artifactContent[:half], 0o644), qt.IsNil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.Assert(ToFile(ctx, remoteURL, dest, &Options{ExpectedHash: artifactHash()}), qt.IsNil)

	data, err := os.ReadFile(dest)
	c.Assert(err, qt.IsNil)
	c.Assert(data, qt.DeepEquals, artifactContent)
}

func TestToFileHTTPError(t *testing.T) {
	c := qt.New(t)
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "out.bin")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.Assert(ToFile(ctx, server.URL+"/missing", dest, nil), qt.ErrorMatches, ".*http status 404.*")
}

func TestVerifyFile(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "f")
	c.Assert(os.WriteFile(path, artifactContent, 0o644), qt.IsNil)

	c.Assert(VerifyFile(path, artifactHash()), qt.IsNil)
	c.Assert(VerifyFile(path, artifactHash()[:10]+"0000"), qt.IsNotNil)

	sum, err := FileChecksum(path)
	c.Assert(err, qt.IsNil)
	c.Assert(sum, qt.Equals, artifactHash())
}
