// Package setup models trusted-setup directories and implements their
// procurement: downloading ceremony releases, resolving locally generated
// testing setups through a cloud cache, and publishing the result behind
// stable symlinks.
package setup

import (
	"os"
	"path/filepath"

	"github.com/keyless-zk/zktool/config"
	"github.com/keyless-zk/zktool/util"
)

// Setup is a directory holding the artifacts needed to produce and verify
// proofs for one circuit version: the prover key, the verification key,
// the circuit config, and at least one witness-generation flavor.
type Setup struct {
	rootDir string
}

// New returns a Setup rooted at rootDir. The directory may not exist yet.
func New(rootDir string) *Setup {
	return &Setup{rootDir: rootDir}
}

// Path returns the setup's root directory.
func (s *Setup) Path() string { return s.rootDir }

// Mkdir creates the setup directory and its parents.
func (s *Setup) Mkdir() error {
	return os.MkdirAll(s.rootDir, 0o755)
}

// Remove deletes the setup directory and everything in it.
func (s *Setup) Remove() error {
	return os.RemoveAll(s.rootDir)
}

// file returns the path of name inside the setup iff it exists as a
// regular file, else "".
func (s *Setup) file(name string) string {
	path := filepath.Join(s.rootDir, name)
	if util.FileExists(path) {
		return path
	}
	return ""
}

// files returns the paths of all names iff every one exists, else nil.
func (s *Setup) files(names ...string) []string {
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := s.file(name)
		if path == "" {
			return nil
		}
		paths = append(paths, path)
	}
	return paths
}

// ProverKey returns the prover key path, or "" if missing.
func (s *Setup) ProverKey() string { return s.file(config.ProverKeyFile) }

// VerificationKey returns the verification key path, or "" if missing.
func (s *Setup) VerificationKey() string { return s.file(config.VerificationKeyFile) }

// CircuitConfigPath returns the circuit config path, or "" if missing.
func (s *Setup) CircuitConfigPath() string { return s.file(config.CircuitConfigFile) }

// WitnessGenC returns the native witness-generation files, or nil unless
// both are present.
func (s *Setup) WitnessGenC() []string {
	return s.files(config.WitnessGenCBinary, config.WitnessGenCData)
}

// WitnessGenWasm returns the WASM witness-generation files, or nil unless
// all three are present.
func (s *Setup) WitnessGenWasm() []string {
	return s.files(
		config.WitnessGenWasmScript,
		config.WitnessGenWasmCalculator,
		config.WitnessGenWasmModule,
	)
}

// IsComplete reports whether the setup has every required artifact: both
// keys, the circuit config, and a full witness-generation flavor (native
// or WASM).
func (s *Setup) IsComplete() bool {
	return s.ProverKey() != "" &&
		s.VerificationKey() != "" &&
		s.CircuitConfigPath() != "" &&
		(s.WitnessGenC() != nil || s.WitnessGenWasm() != nil)
}

// SetCurrent publishes the setup as both the "default" and "new" current
// setup, so consumers can address it without knowing its checksum.
func (s *Setup) SetCurrent() error {
	currentDir := config.CurrentSetupsDir()
	if err := os.MkdirAll(currentDir, 0o755); err != nil {
		return err
	}
	if err := util.ForceSymlinkDir(s.rootDir, filepath.Join(currentDir, "default")); err != nil {
		return err
	}
	return util.ForceSymlinkDir(s.rootDir, filepath.Join(currentDir, "new"))
}

// CircuitConfig parses the setup's circuit_config.yml.
func (s *Setup) CircuitConfig() (*CircuitConfig, error) {
	path := s.CircuitConfigPath()
	if path == "" {
		return nil, os.ErrNotExist
	}
	return LoadCircuitConfig(path)
}
