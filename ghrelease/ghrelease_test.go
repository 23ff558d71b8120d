package ghrelease

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func testReleaseServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/assets/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("content of " + filepath.Base(r.URL.Path)))
	})
	server := httptest.NewServer(mux)
	releases := []map[string]any{
		{
			"tag_name":   "v2.0.0",
			"created_at": time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			"assets": []map[string]any{
				{"name": "prover_key.zkey", "browser_download_url": server.URL + "/assets/prover_key.zkey"},
				{"name": "verification_key.json", "browser_download_url": server.URL + "/assets/verification_key.json"},
			},
		},
		{
			"tag_name":   "v1.0.0",
			"created_at": time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			"assets": []map[string]any{
				{"name": "prover_key.zkey", "browser_download_url": server.URL + "/assets/prover_key.zkey"},
			},
		},
	}
	mux.HandleFunc("/repos/owner/repo/releases", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewEncoder(w).Encode(releases); err != nil {
			t.Error(err)
		}
	})
	return server
}

func testClient(server *httptest.Server) *Client {
	c := NewClient("owner", "repo", "")
	c.baseURL = server.URL
	return c
}

func TestReleasesSorted(t *testing.T) {
	c := qt.New(t)
	server := testReleaseServer(t)
	defer server.Close()

	releases, err := testClient(server).Releases(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(releases, qt.HasLen, 2)
	// sorted by creation time ascending, not by listing order
	c.Assert(releases[0].TagName, qt.Equals, "v1.0.0")
	c.Assert(releases[1].TagName, qt.Equals, "v2.0.0")
}

func TestReleaseByTag(t *testing.T) {
	c := qt.New(t)
	server := testReleaseServer(t)
	defer server.Close()
	client := testClient(server)

	release, err := client.ReleaseByTag(context.Background(), "v2.0.0")
	c.Assert(err, qt.IsNil)
	c.Assert(release.Assets, qt.HasLen, 2)

	_, err = client.ReleaseByTag(context.Background(), "v9.9.9")
	var notFound *ReleaseNotFoundError
	c.Assert(errors.As(err, &notFound), qt.IsTrue)
	c.Assert(notFound.Release, qt.Equals, "v9.9.9")
}

func TestDownloadAssets(t *testing.T) {
	c := qt.New(t)
	server := testReleaseServer(t)
	defer server.Close()
	client := testClient(server)

	installDir := t.TempDir()
	err := client.DownloadAssets(context.Background(), "v2.0.0", installDir,
		[]string{"prover_key.zkey", "verification_key.json"})
	c.Assert(err, qt.IsNil)
	data, err := os.ReadFile(filepath.Join(installDir, "prover_key.zkey"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "content of prover_key.zkey")
}

func TestDownloadAssetsMissing(t *testing.T) {
	c := qt.New(t)
	server := testReleaseServer(t)
	defer server.Close()
	client := testClient(server)

	// v1.0.0 lacks the verification key; nothing must be downloaded
	installDir := t.TempDir()
	err := client.DownloadAssets(context.Background(), "v1.0.0", installDir,
		[]string{"prover_key.zkey", "verification_key.json"})
	var missing *MissingAssetError
	c.Assert(errors.As(err, &missing), qt.IsTrue)
	c.Assert(missing.Asset, qt.Equals, "verification_key.json")
	entries, err := os.ReadDir(installDir)
	c.Assert(err, qt.IsNil)
	c.Assert(entries, qt.HasLen, 0)
}
