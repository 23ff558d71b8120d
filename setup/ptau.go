package setup

import (
	"context"
	"fmt"

	"github.com/keyless-zk/zktool/config"
	"github.com/keyless-zk/zktool/download"
	"github.com/keyless-zk/zktool/log"
	"github.com/keyless-zk/zktool/util"
)

// EnsurePtau makes sure the powers-of-tau file is present locally and
// matches its pinned checksum, downloading it if missing. The checksum is
// verified even when the file was already on disk, since a truncated
// earlier download would otherwise poison every later setup.
func EnsurePtau(ctx context.Context) (string, error) {
	path := config.PtauPath()
	if util.FileExists(path) {
		log.Infof("powers-of-tau file found, skipping download")
	} else {
		log.Infow("downloading powers-of-tau file", "url", config.PtauURL)
		opts := &download.Options{ExpectedHash: config.PtauChecksum}
		if err := download.ToFile(ctx, config.PtauURL, path, opts); err != nil {
			return "", fmt.Errorf("cannot download powers-of-tau file: %w", err)
		}
	}
	log.Debugf("checking sha256sum of powers-of-tau file")
	if err := download.VerifyFile(path, config.PtauChecksum); err != nil {
		return "", fmt.Errorf("powers-of-tau file is corrupt: %w", err)
	}
	return path, nil
}
