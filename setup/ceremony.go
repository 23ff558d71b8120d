package setup

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/keyless-zk/zktool/config"
	"github.com/keyless-zk/zktool/ghrelease"
	"github.com/keyless-zk/zktool/log"
	"github.com/keyless-zk/zktool/util"
)

// WitnessGen selects which witness-generation flavors a ceremony download
// includes.
type WitnessGen string

const (
	WitnessGenNone WitnessGen = "none"
	WitnessGenC    WitnessGen = "c"
	WitnessGenWasm WitnessGen = "wasm"
	WitnessGenBoth WitnessGen = "both"
)

// ParseWitnessGen parses the WITNESS_GEN environment value. Empty means
// none.
func ParseWitnessGen(s string) (WitnessGen, error) {
	switch WitnessGen(s) {
	case "", WitnessGenNone:
		return WitnessGenNone, nil
	case WitnessGenC, WitnessGenWasm, WitnessGenBoth:
		return WitnessGen(s), nil
	}
	return "", fmt.Errorf("invalid witness-gen type %q (want c, wasm, both or none)", s)
}

// assetNames returns the release assets a download with this flavor needs.
func (w WitnessGen) assetNames() []string {
	assets := append([]string{}, config.BaseAssets...)
	if w == WitnessGenC || w == WitnessGenBoth {
		assets = append(assets, config.WitnessGenCAssets...)
	}
	if w == WitnessGenWasm || w == WitnessGenBoth {
		assets = append(assets, config.WitnessGenWasmAssets...)
	}
	return assets
}

// Ceremony is a trusted setup published as a GitHub release.
type Ceremony struct {
	*Setup
	Release string
	client  *ghrelease.Client
}

// NewCeremony returns the ceremony for the given release tag, rooted under
// the ceremonies directory.
func NewCeremony(release string, client *ghrelease.Client) *Ceremony {
	return &Ceremony{
		Setup:   New(filepath.Join(config.CeremoniesDir(), release)),
		Release: release,
		client:  client,
	}
}

// Download fetches the ceremony's release assets into its directory.
func (c *Ceremony) Download(ctx context.Context, witnessGen WitnessGen) error {
	if err := c.Mkdir(); err != nil {
		return fmt.Errorf("cannot create ceremony dir: %w", err)
	}
	return c.client.DownloadAssets(ctx, c.Release, c.Path(), witnessGen.assetNames())
}

// DownloadCeremonies replaces the local ceremonies with the two releases
// the prover service refers to as "default" and "new". Previously
// installed ceremonies are deleted first, both downloads run concurrently,
// and the symlinks are only repointed once both succeed.
func DownloadCeremonies(ctx context.Context, client *ghrelease.Client, defaultRelease, newRelease string, witnessGen WitnessGen) error {
	log.Infow("deleting old ceremonies", "dir", config.CeremoniesDir())
	if err := util.DeleteContents(config.CeremoniesDir()); err != nil {
		return err
	}

	defaultCeremony := NewCeremony(defaultRelease, client)
	newCeremony := NewCeremony(newRelease, client)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("downloading default ceremony", "release", defaultRelease)
		return defaultCeremony.Download(gctx, witnessGen)
	})
	g.Go(func() error {
		log.Infow("downloading new ceremony", "release", newRelease)
		return newCeremony.Download(gctx, witnessGen)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	log.Infof("finished downloading ceremonies, creating symlinks")
	if err := util.ForceSymlinkDir(defaultCeremony.Path(),
		filepath.Join(config.CeremoniesDir(), "default")); err != nil {
		return err
	}
	return util.ForceSymlinkDir(newCeremony.Path(),
		filepath.Join(config.CeremoniesDir(), "new"))
}
