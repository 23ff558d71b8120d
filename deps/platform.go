package deps

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/keyless-zk/zktool/log"
)

// Manager identifies a system package manager.
type Manager string

const (
	Brew   Manager = "brew"
	AptGet Manager = "apt-get"
	Pacman Manager = "pacman"
	Dnf    Manager = "dnf"
)

// lookPath and runCommand are indirections over os/exec so tests can
// record invocations instead of touching the system.
var (
	lookPath = exec.LookPath

	runCommand = func(ctx context.Context, name string, args ...string) error {
		log.Debugw("running command", "cmd", name, "args", fmt.Sprint(args))
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("%s failed: %w", name, err)
		}
		return nil
	}
)

// Detect returns the package manager of the running system: brew on
// macOS, the first of apt-get/pacman/dnf/brew found on PATH elsewhere.
func Detect() (Manager, error) {
	if runtime.GOOS == "darwin" {
		if _, err := lookPath(string(Brew)); err != nil {
			return "", fmt.Errorf("brew not found; install it from https://brew.sh first")
		}
		return Brew, nil
	}
	for _, m := range []Manager{AptGet, Pacman, Dnf, Brew} {
		if _, err := lookPath(string(m)); err == nil {
			return m, nil
		}
	}
	return "", fmt.Errorf("no supported package manager found (apt-get, pacman, dnf or brew)")
}

// installCommand returns the command line installing pkg with the manager.
// Non-brew managers need root, so the command is prefixed with sudo when
// not already running as root.
func (m Manager) installCommand(pkg string) []string {
	var cmd []string
	switch m {
	case Brew:
		cmd = []string{"brew", "install", pkg}
	case AptGet:
		cmd = []string{"apt-get", "install", "-y", pkg}
	case Pacman:
		cmd = []string{"pacman", "-S", "--noconfirm", pkg}
	case Dnf:
		cmd = []string{"dnf", "install", "-y", pkg}
	}
	if m != Brew && os.Geteuid() != 0 {
		cmd = append([]string{"sudo"}, cmd...)
	}
	return cmd
}
