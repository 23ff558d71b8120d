package setup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/keyless-zk/zktool/config"
	"github.com/keyless-zk/zktool/log"
	"github.com/keyless-zk/zktool/setup/cache"
	"github.com/keyless-zk/zktool/util"
)

// Generator produces setup artifacts by driving the external circuit
// toolchain (circom, snarkjs, make).
type Generator interface {
	// GenerateSetup compiles the circuit, runs the groth16 setup against
	// the powers-of-tau file and installs the prover key, verification key
	// and WASM witness-generation files into setupDir.
	GenerateSetup(ctx context.Context, setupDir, ptauPath string) error
	// GenerateWitnessGenC builds the native witness-generation binaries
	// and installs them into setupDir.
	GenerateWitnessGenC(ctx context.Context, setupDir string) error
}

// Procurement resolves an untrusted testing setup for the circuit
// currently in the repository: local disk first, then the cloud cache,
// then generation from scratch, re-uploading whatever was generated.
type Procurement struct {
	// TemplatesDir is the circuit templates directory; its checksum is the
	// setup's identity.
	TemplatesDir string
	// CircuitConfigSrc is the circuit_config.yml to bundle into the setup.
	CircuitConfigSrc string
	// Cache is the blob cache; nil disables cache lookups and uploads.
	Cache cache.Store
	// Generator drives the circuit toolchain.
	Generator Generator
	// IgnoreCache skips the cache lookup (the upload still happens).
	IgnoreCache bool
	// Ptau resolves the powers-of-tau file; defaults to EnsurePtau.
	Ptau func(ctx context.Context) (string, error)

	// arch overrides runtime.GOARCH in tests. Native witness-generation
	// binaries are only built on amd64.
	arch string
}

func (p *Procurement) archName() string {
	if p.arch != "" {
		return p.arch
	}
	return runtime.GOARCH
}

// Checksum returns the identity of the current circuit.
func (p *Procurement) Checksum() (string, error) {
	return DirChecksum(p.TemplatesDir)
}

// Run procures the testing setup. Re-running with a complete local setup
// is a no-op.
func (p *Procurement) Run(ctx context.Context) error {
	checksum, err := p.Checksum()
	if err != nil {
		return err
	}
	setupDir := filepath.Join(config.TestingSetupsDir(), checksum)
	s := New(setupDir)

	if s.IsComplete() {
		log.Infow("setup for the current circuit found, skipping", "dir", setupDir)
		return nil
	}
	log.Debugw("local setup incomplete",
		"proverKey", s.ProverKey(),
		"verificationKey", s.VerificationKey(),
		"circuitConfig", s.CircuitConfigPath(),
		"witnessGenC", s.WitnessGenC() != nil,
		"witnessGenWasm", s.WitnessGenWasm() != nil,
	)

	// Stale partial setups would otherwise shadow the fresh one.
	if err := os.MkdirAll(config.TestingSetupsDir(), 0o755); err != nil {
		return err
	}
	if err := util.DeleteContents(config.TestingSetupsDir()); err != nil {
		return err
	}

	ensurePtau := p.Ptau
	if ensurePtau == nil {
		ensurePtau = EnsurePtau
	}
	ptauPath, err := ensurePtau(ctx)
	if err != nil {
		return err
	}

	if !p.IgnoreCache && p.Cache != nil {
		found, err := p.fetchFromCache(ctx, checksum, s)
		if err != nil {
			return err
		}
		if found {
			return s.SetCurrent()
		}
	}

	if err := p.generate(ctx, s, ptauPath); err != nil {
		return err
	}
	if !s.IsComplete() {
		return fmt.Errorf("setup at %s is still incomplete after generation", setupDir)
	}
	if err := s.SetCurrent(); err != nil {
		return err
	}
	p.upload(ctx, checksum, setupDir)
	return nil
}

// fetchFromCache tries to install the setup from the cache. A cached setup
// built on another architecture may lack the native witness generator; on
// amd64 that gap is filled locally and the blob re-uploaded.
func (p *Procurement) fetchFromCache(ctx context.Context, checksum string, s *Setup) (bool, error) {
	log.Infof("checking setup cache")
	exists, err := p.Cache.Exists(ctx, checksum)
	if err != nil {
		if errors.Is(err, cache.ErrUnavailable) {
			log.Warnw("setup cache unavailable, generating locally", "error", err.Error())
			return false, nil
		}
		return false, err
	}
	if !exists {
		log.Infof("setup for the current circuit not found in cache")
		return false, nil
	}
	found, err := p.Cache.Fetch(ctx, checksum, config.TestingSetupsDir())
	if err != nil {
		if errors.Is(err, cache.ErrUnavailable) {
			log.Warnw("setup cache unavailable, generating locally", "error", err.Error())
			return false, nil
		}
		return false, err
	}
	if !found {
		// the blob disappeared between the existence check and the download
		return false, nil
	}
	if p.archName() == "amd64" && s.WitnessGenC() == nil {
		log.Infof("cached setup lacks native witness-generation binaries, generating")
		if err := p.Generator.GenerateWitnessGenC(ctx, s.Path()); err != nil {
			return false, err
		}
		p.upload(ctx, checksum, s.Path())
	}
	return true, nil
}

// generate builds the whole setup from scratch.
func (p *Procurement) generate(ctx context.Context, s *Setup, ptauPath string) error {
	if err := s.Mkdir(); err != nil {
		return err
	}
	if err := util.CopyFile(p.CircuitConfigSrc,
		filepath.Join(s.Path(), config.CircuitConfigFile)); err != nil {
		return fmt.Errorf("cannot install circuit config: %w", err)
	}
	if err := p.Generator.GenerateSetup(ctx, s.Path(), ptauPath); err != nil {
		return err
	}
	if p.archName() == "amd64" {
		return p.Generator.GenerateWitnessGenC(ctx, s.Path())
	}
	log.Infof("not on amd64, skipping native witness-generation binaries")
	return nil
}

// upload pushes the finished setup to the cache; failures only warn, the
// local setup is already usable.
func (p *Procurement) upload(ctx context.Context, checksum, setupDir string) {
	if p.Cache == nil {
		return
	}
	if err := p.Cache.Put(ctx, checksum, setupDir); err != nil {
		log.Warnw("cannot upload setup to cache", "error", err.Error())
	}
}
