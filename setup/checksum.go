package setup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DirChecksum returns the hex-encoded sha256 identity of a directory tree.
// Files are visited in lexical path order and each contributes its
// relative path, a NUL separator, and its content, so identical trees hash
// identically regardless of host or creation order. Non-regular files
// (symlinks, sockets) are skipped.
func DirChecksum(root string) (string, error) {
	hasher := sha256.New()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		hasher.Write([]byte(filepath.ToSlash(rel)))
		hasher.Write([]byte{0})
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := io.Copy(hasher, f); err != nil {
			return fmt.Errorf("cannot hash %s: %w", rel, err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("cannot checksum dir %s: %w", root, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
