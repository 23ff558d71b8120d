// Package deps installs the native and toolchain dependencies of the
// prover service and the circuit, mapping each dependency to the package
// name of the system package manager or to a dedicated installer (cargo,
// npm, rustup).
package deps

import (
	"context"
	"fmt"

	"github.com/keyless-zk/zktool/log"
)

// ProverServiceDeps are needed to build and run the prover service.
var ProverServiceDeps = []string{
	"pkg-config", "lld", "meson", "rust", "clang", "cmake", "make",
	"libyaml", "nasm", "gmp", "openssl",
}

// CircuitDeps are needed to compile the circuit and build the
// witness-generation binaries.
var CircuitDeps = []string{
	"node", "circom", "snarkjs", "circomlib", "nlohmann-json",
}

// dep describes how one dependency is detected and installed.
type dep struct {
	// binary on PATH that marks the dep as already installed; empty means
	// the install always runs (library-only deps are cheap to reinstall).
	binary string
	// packages maps each manager to its package name. A missing entry
	// means the platform ships the dep and nothing is installed.
	packages map[Manager]string
	// install, when set, replaces package-manager installation.
	install func(ctx context.Context) error
}

// samePackage maps every manager to the same name.
func samePackage(name string) map[Manager]string {
	return map[Manager]string{Brew: name, AptGet: name, Pacman: name, Dnf: name}
}

var table = map[string]dep{
	"pkg-config": {binary: "pkg-config", packages: map[Manager]string{
		Brew: "pkg-config", AptGet: "pkg-config", Pacman: "pkgconf", Dnf: "pkgconf-pkg-config",
	}},
	"lld": {binary: "ld.lld", packages: map[Manager]string{
		// macOS links with the system linker, brew lld is not needed
		AptGet: "lld", Pacman: "lld", Dnf: "lld",
	}},
	"meson": {binary: "meson", packages: samePackage("meson")},
	"clang": {binary: "clang", packages: samePackage("clang")},
	"cmake": {binary: "cmake", packages: samePackage("cmake")},
	"make":  {binary: "make", packages: samePackage("make")},
	"nasm":  {binary: "nasm", packages: samePackage("nasm")},
	"libyaml": {packages: map[Manager]string{
		Brew: "libyaml", AptGet: "libyaml-dev", Pacman: "libyaml", Dnf: "libyaml-devel",
	}},
	"gmp": {packages: map[Manager]string{
		Brew: "gmp", AptGet: "libgmp-dev", Pacman: "gmp", Dnf: "gmp-devel",
	}},
	"openssl": {packages: map[Manager]string{
		// macOS ships LibreSSL headers via the CLT, brew openssl not needed
		AptGet: "libssl-dev", Pacman: "openssl", Dnf: "openssl-devel",
	}},
	"nlohmann-json": {packages: map[Manager]string{
		Brew: "nlohmann-json", AptGet: "nlohmann-json3-dev", Pacman: "nlohmann-json", Dnf: "json-devel",
	}},
	"node": {binary: "node", packages: map[Manager]string{
		Brew: "node", AptGet: "nodejs", Pacman: "nodejs", Dnf: "nodejs",
	}},
	"rust": {binary: "cargo", install: func(ctx context.Context) error {
		return runCommand(ctx, "sh", "-c",
			"curl --proto '=https' --tlsv1.2 -sSf https://sh.rustup.rs | sh -s -- -y")
	}},
	"circom": {binary: "circom", install: func(ctx context.Context) error {
		return runCommand(ctx, "cargo", "install",
			"--git", "https://github.com/iden3/circom.git", "circom")
	}},
	"snarkjs": {binary: "snarkjs", install: func(ctx context.Context) error {
		return runCommand(ctx, "npm", "install", "-g", "snarkjs")
	}},
	"circomlib": {install: func(ctx context.Context) error {
		return runCommand(ctx, "npm", "install", "-g", "circomlib")
	}},
}

// Install installs the named dependencies, skipping the ones already on
// PATH. Unknown names are an error before anything is installed.
func Install(ctx context.Context, names []string) error {
	for _, name := range names {
		if _, ok := table[name]; !ok {
			return fmt.Errorf("unknown dependency %q", name)
		}
	}
	manager, err := Detect()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := installOne(ctx, manager, name); err != nil {
			return fmt.Errorf("installing %s: %w", name, err)
		}
	}
	return nil
}

func installOne(ctx context.Context, manager Manager, name string) error {
	d := table[name]
	if d.binary != "" {
		if _, err := lookPath(d.binary); err == nil {
			log.Debugw("dependency already installed", "dep", name)
			return nil
		}
	}
	if d.install != nil {
		log.Infow("installing dependency", "dep", name)
		return d.install(ctx)
	}
	pkg, ok := d.packages[manager]
	if !ok {
		log.Debugw("dependency not needed on this platform", "dep", name)
		return nil
	}
	log.Infow("installing dependency", "dep", name, "package", pkg, "manager", string(manager))
	cmd := manager.installCommand(pkg)
	return runCommand(ctx, cmd[0], cmd[1:]...)
}
