// Package config resolves the on-disk layout of the resources directory and
// pins the identity of remote artifacts (URLs, checksums, bucket names).
package config

import (
	"os"
	"path/filepath"
)

// Environment variables understood by the tool.
const (
	EnvResourcesDir = "RESOURCES_DIR"
	EnvReleaseOld   = "RELEASE_OLD"
	EnvReleaseNew   = "RELEASE_NEW"
	EnvWitnessGen   = "WITNESS_GEN"
	EnvIgnoreCache  = "IGNORE_CACHE"
)

// defaultResourcesDir is the per-user location used when RESOURCES_DIR is
// not set.
const defaultResourcesDir = ".local/share/keyless-prover"

// ResourcesDir returns the root directory where setups, ceremonies and the
// powers-of-tau file are installed. It honors the RESOURCES_DIR environment
// variable and falls back to ~/.local/share/keyless-prover. If the home
// directory cannot be resolved, a directory under os.TempDir is used so the
// tool still works in minimal containers.
func ResourcesDir() string {
	if dir := os.Getenv(EnvResourcesDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "keyless-prover")
	}
	return filepath.Join(home, defaultResourcesDir)
}

// CeremoniesDir holds one subdirectory per downloaded trusted-setup
// ceremony release, plus the "default" and "new" symlinks.
func CeremoniesDir() string {
	return filepath.Join(ResourcesDir(), "ceremonies")
}

// TestingSetupsDir holds locally procured (untrusted) setups, one
// subdirectory per circuit checksum.
func TestingSetupsDir() string {
	return filepath.Join(ResourcesDir(), "testing_setups")
}

// CurrentSetupsDir holds the "default" and "new" symlinks that make the
// latest procured setup addressable without embedding the checksum in
// consumer paths.
func CurrentSetupsDir() string {
	return filepath.Join(ResourcesDir(), "current_setups")
}

// PtauPath is where the powers-of-tau file is cached locally.
func PtauPath() string {
	return filepath.Join(ResourcesDir(), PtauFileName)
}
