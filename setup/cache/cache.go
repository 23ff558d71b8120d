// Package cache stores setup directories as gzip tarballs in a cloud
// object-storage bucket, keyed by circuit checksum. The cache is a best
// effort accelerator: callers treat ErrUnavailable (no credentials,
// expired credentials, unreachable bucket) as a miss, never as a fatal
// error.
package cache

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"

	"github.com/keyless-zk/zktool/log"
)

// ErrUnavailable reports that the cache backend cannot be reached or the
// caller is not authenticated. It wraps the underlying cause.
var ErrUnavailable = errors.New("setup cache unavailable")

// Store is a blob store holding setup tarballs keyed by checksum.
type Store interface {
	// Exists reports whether a blob for key is present.
	Exists(ctx context.Context, key string) (bool, error)
	// Fetch downloads the blob for key and unpacks it into destDir,
	// returning false without error when the blob is absent.
	Fetch(ctx context.Context, key, destDir string) (bool, error)
	// Put packs srcDir and uploads it as the blob for key.
	Put(ctx context.Context, key, srcDir string) error
}

// blobName is the object name for a checksum key.
func blobName(key string) string { return key + ".tar.gz" }

// GCS is a Store backed by a Google Cloud Storage bucket.
type GCS struct {
	bucket *storage.BucketHandle
}

// NewGCS opens the bucket using Application Default Credentials. A client
// that cannot be constructed at all reports ErrUnavailable; credential
// problems usually only surface on first use, which the Store methods map
// the same way.
func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &GCS{bucket: client.Bucket(bucket)}, nil
}

// unavailable maps backend errors to ErrUnavailable, keeping the cause.
func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// Exists implements Store.
func (g *GCS) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.bucket.Object(blobName(key)).Attrs(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrObjectNotExist):
		return false, nil
	default:
		return false, unavailable(err)
	}
}

// Fetch implements Store.
func (g *GCS) Fetch(ctx context.Context, key, destDir string) (bool, error) {
	obj := g.bucket.Object(blobName(key))
	r, err := obj.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, unavailable(err)
	}
	defer r.Close()
	log.Infow("setup found in cache, downloading", "blob", blobName(key))
	if err := Unpack(r, destDir); err != nil {
		return false, fmt.Errorf("cannot unpack cached setup: %w", err)
	}
	return true, nil
}

// Put implements Store.
func (g *GCS) Put(ctx context.Context, key, srcDir string) error {
	log.Infow("uploading setup to cache", "blob", blobName(key))
	w := g.bucket.Object(blobName(key)).NewWriter(ctx)
	if err := Pack(srcDir, w); err != nil {
		w.Close()
		return fmt.Errorf("cannot pack setup for upload: %w", err)
	}
	// Close commits the object; upload errors surface here.
	if err := w.Close(); err != nil {
		return unavailable(err)
	}
	return nil
}
