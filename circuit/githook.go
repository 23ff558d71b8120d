package circuit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/keyless-zk/zktool/log"
	"github.com/keyless-zk/zktool/util"
)

// hookSource is the hook script shipped in the repository, relative to the
// repo root.
const hookSource = "git-hooks/compile-circom-if-needed"

// InstallPrecommitHook installs the hook that refuses commits while the
// main circuit does not compile. Any existing pre-commit hook is replaced.
func InstallPrecommitHook(repoRoot string) error {
	src := filepath.Join(repoRoot, hookSource)
	if !util.FileExists(src) {
		return fmt.Errorf("hook script %s not found; run from the repository root", src)
	}
	hooksDir := filepath.Join(repoRoot, ".git", "hooks")
	if !util.DirExists(hooksDir) {
		return fmt.Errorf("%s is not a git checkout", repoRoot)
	}

	dest := filepath.Join(hooksDir, "pre-commit")
	log.Infow("installing pre-commit hook", "dest", dest)
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot remove existing hook: %w", err)
	}
	if err := util.CopyFile(src, dest); err != nil {
		return fmt.Errorf("cannot install hook: %w", err)
	}
	return os.Chmod(dest, 0o755)
}
