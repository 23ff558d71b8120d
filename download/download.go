// Package download fetches remote artifacts over HTTP into local files.
// Downloads are resumable through ".partial" files and Range requests, can
// be verified against a pinned sha256, and report progress periodically.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/keyless-zk/zktool/log"
)

// progressInterval is how often an in-flight download logs its progress.
const progressInterval = 10 * time.Second

// Options tunes a single download.
type Options struct {
	// ExpectedHash is the hex-encoded sha256 of the remote file. When set,
	// the downloaded content is verified and a mismatch removes the file
	// and fails the download.
	ExpectedHash string
	// Header carries extra request headers, e.g. GitHub asset auth.
	Header http.Header
	// Client overrides http.DefaultClient.
	Client *http.Client
}

func (o *Options) client() *http.Client {
	if o != nil && o.Client != nil {
		return o.Client
	}
	return http.DefaultClient
}

// ToFile downloads fileURL into dest. An interrupted download leaves a
// dest.partial file which a retry resumes with a Range request. The file
// only appears at dest once fully downloaded and (when an expected hash is
// given) verified.
func ToFile(ctx context.Context, fileURL, dest string, opts *Options) error {
	if _, err := url.Parse(fileURL); err != nil {
		return fmt.Errorf("invalid url %q: %w", fileURL, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("cannot create destination dir: %w", err)
	}
	partialPath := dest + ".partial"

	// Resume from a previous partial download if one exists.
	var startByte int64
	if info, err := os.Stat(partialPath); err == nil {
		startByte = info.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("cannot build request: %w", err)
	}
	if opts != nil {
		for k, vs := range opts.Header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	}
	if startByte > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", startByte))
	}

	res, err := opts.client().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			log.Warnw("cannot close response body", "url", fileURL, "error", err.Error())
		}
	}()
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("downloading %s: http status %d", fileURL, res.StatusCode)
	}

	// The server may ignore the Range header and send the whole file.
	fileMode := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	resuming := startByte > 0 && res.StatusCode == http.StatusPartialContent
	if resuming {
		fileMode = os.O_APPEND | os.O_WRONLY
	}
	fd, err := os.OpenFile(partialPath, fileMode, 0o644)
	if err != nil {
		return fmt.Errorf("cannot open partial file: %w", err)
	}
	defer fd.Close()

	var hasher hash.Hash
	var writer io.Writer = fd
	if opts != nil && opts.ExpectedHash != "" {
		hasher = sha256.New()
		if resuming {
			// Feed the bytes already on disk so the final digest covers
			// the whole file.
			existing, err := os.Open(partialPath)
			if err != nil {
				return fmt.Errorf("cannot reopen partial file: %w", err)
			}
			if _, err := io.Copy(hasher, existing); err != nil {
				existing.Close()
				return fmt.Errorf("cannot hash partial file: %w", err)
			}
			existing.Close()
		}
		writer = io.MultiWriter(fd, hasher)
	}

	pr := &progressReader{
		reader:        res.Body,
		contentLength: res.ContentLength + startByte,
	}
	pr.total.Store(startByte)

	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(writer, pr)
		done <- err
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
copying:
	for {
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("copying data to %s: %w", partialPath, err)
			}
			break copying
		case <-ticker.C:
			pr.logProgress(fileURL)
		}
	}
	if err := fd.Close(); err != nil {
		return fmt.Errorf("cannot close partial file: %w", err)
	}

	if hasher != nil {
		computed := hex.EncodeToString(hasher.Sum(nil))
		if computed != opts.ExpectedHash {
			os.Remove(partialPath)
			return fmt.Errorf("hash mismatch for %s: expected %s, got %s",
				fileURL, opts.ExpectedHash, computed)
		}
	}
	if err := os.Rename(partialPath, dest); err != nil {
		return fmt.Errorf("cannot move download into place: %w", err)
	}
	return nil
}

// FileChecksum returns the hex-encoded sha256 of the file at path.
func FileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// VerifyFile checks the sha256 of path against the expected hex digest.
func VerifyFile(path, expected string) error {
	computed, err := FileChecksum(path)
	if err != nil {
		return err
	}
	if computed != expected {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s",
			path, expected, computed)
	}
	return nil
}

// progressReader wraps an io.Reader and tracks the total bytes read.
type progressReader struct {
	reader        io.Reader
	total         atomic.Int64
	contentLength int64
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.total.Add(int64(n))
	return n, err
}

func (pr *progressReader) logProgress(fileURL string) {
	total := pr.total.Load()
	downloadedMiB := float64(total) / (1024 * 1024)
	var percentage float64
	if pr.contentLength > 0 {
		percentage = float64(total) / float64(pr.contentLength) * 100
	}
	log.Debugw("downloading artifact", "url", fileURL,
		"downloaded", fmt.Sprintf("%.2fMiB", downloadedMiB),
		"progress", fmt.Sprintf("%.2f%%", percentage))
}
