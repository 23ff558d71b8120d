package deps

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/keyless-zk/zktool/log"
)

// restartNeeded is set once a profile was modified, so the CLI can remind
// the user at exit.
var restartNeeded bool

// tbbSubdir is where the prover-service build leaves the oneTBB shared
// libraries, relative to the repo root.
const tbbSubdir = "rust-rapidsnark/rapidsnark/build/subprojects/oneTBB-2022.0.0"

// profilePath picks the startup file of the user's shell.
func profilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot resolve home dir: %w", err)
	}
	switch filepath.Base(os.Getenv("SHELL")) {
	case "zsh":
		return filepath.Join(home, ".zshenv"), nil
	case "bash":
		return filepath.Join(home, ".bashrc"), nil
	default:
		return filepath.Join(home, ".profile"), nil
	}
}

// AddEnvVarToProfile appends an export line for name=value to the user's
// shell profile. The value is written verbatim so it may reference other
// variables. Re-running with the same pair is a no-op.
func AddEnvVarToProfile(name, value string) error {
	path, err := profilePath()
	if err != nil {
		return err
	}
	line := fmt.Sprintf("export %s=%s", name, value)

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot read profile %s: %w", path, err)
	}
	for _, l := range strings.Split(string(existing), "\n") {
		if strings.TrimSpace(l) == line {
			log.Debugw("profile already contains export", "var", name)
			return nil
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("cannot open profile %s: %w", path, err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "\n%s\n", line); err != nil {
		return fmt.Errorf("cannot write profile %s: %w", path, err)
	}
	log.Infow("added export to shell profile", "var", name, "profile", path)
	restartNeeded = true
	return nil
}

// AddLibraryPathsToProfile exposes the oneTBB build directory through the
// dynamic-linker search paths, which running the prover service and its
// tests requires.
func AddLibraryPathsToProfile(repoRoot string) error {
	path := filepath.Join(repoRoot, tbbSubdir)
	if err := AddEnvVarToProfile("LD_LIBRARY_PATH", "$LD_LIBRARY_PATH:"+path); err != nil {
		return err
	}
	return AddEnvVarToProfile("DYLD_LIBRARY_PATH", "$DYLD_LIBRARY_PATH:"+path)
}

// RemindRestartIfNeeded tells the user to reload the shell when a profile
// was modified during this run.
func RemindRestartIfNeeded() {
	if restartNeeded {
		log.Infof("shell profile was modified; restart your shell or source your profile for the changes to take effect")
	}
}
