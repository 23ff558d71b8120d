// Package circuit drives the external circuit toolchain: circom for
// compilation, snarkjs for the groth16 setup, make for the native
// witness-generation binaries. Everything interesting happens in the
// subprocesses; this package only sequences them and moves their outputs
// into place.
package circuit

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/keyless-zk/zktool/config"
	"github.com/keyless-zk/zktool/log"
	"github.com/keyless-zk/zktool/util"
)

// mainCircuit is the circuit entry point inside the templates directory.
const mainCircuit = "main.circom"

// Toolchain generates setup artifacts for the circuit in TemplatesDir. It
// implements setup.Generator.
type Toolchain struct {
	TemplatesDir string
}

// GenerateSetup compiles the circuit with WASM output, runs the groth16
// setup against the powers-of-tau file, exports the verification key and
// installs everything into setupDir.
func (tc *Toolchain) GenerateSetup(ctx context.Context, setupDir, ptauPath string) error {
	workDir, cleanup, err := tc.stageTemplates()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := compile(ctx, workDir, "--r1cs", "--wasm", "--sym"); err != nil {
		return err
	}

	log.Infof("running groth16 setup, this takes a while")
	start := time.Now()
	if err := runCommand(ctx, workDir, "snarkjs",
		"groth16", "setup", "main.r1cs", ptauPath, config.ProverKeyFile); err != nil {
		return err
	}
	log.Infow("groth16 setup finished", "took", time.Since(start).String())

	log.Infof("exporting verification key")
	if err := runCommand(ctx, workDir, "snarkjs",
		"zkey", "export", "verificationkey",
		config.ProverKeyFile, config.VerificationKeyFile); err != nil {
		return err
	}

	moves := map[string]string{
		config.ProverKeyFile:       config.ProverKeyFile,
		config.VerificationKeyFile: config.VerificationKeyFile,
		filepath.Join("main_js", config.WitnessGenWasmScript):     config.WitnessGenWasmScript,
		filepath.Join("main_js", config.WitnessGenWasmCalculator): config.WitnessGenWasmCalculator,
		filepath.Join("main_js", config.WitnessGenWasmModule):     config.WitnessGenWasmModule,
	}
	for src, dst := range moves {
		if err := util.MoveFile(filepath.Join(workDir, src),
			filepath.Join(setupDir, dst)); err != nil {
			return fmt.Errorf("cannot install %s: %w", dst, err)
		}
	}
	return nil
}

// GenerateWitnessGenC compiles the circuit with C output, builds the
// witness-generation binary and installs it into setupDir.
func (tc *Toolchain) GenerateWitnessGenC(ctx context.Context, setupDir string) error {
	log.Infof("generating native witness-generation binaries")
	workDir, cleanup, err := tc.stageTemplates()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := compile(ctx, workDir, "--r1cs", "--c"); err != nil {
		return err
	}
	cppDir := filepath.Join(workDir, "main_c_cpp")
	if err := runCommand(ctx, cppDir, "make"); err != nil {
		return err
	}

	binDest := filepath.Join(setupDir, config.WitnessGenCBinary)
	if err := util.MoveFile(filepath.Join(cppDir, config.WitnessGenCBinary), binDest); err != nil {
		return fmt.Errorf("cannot install witness-gen binary: %w", err)
	}
	if err := os.Chmod(binDest, 0o744); err != nil {
		return err
	}
	if err := util.MoveFile(filepath.Join(cppDir, config.WitnessGenCData),
		filepath.Join(setupDir, config.WitnessGenCData)); err != nil {
		return fmt.Errorf("cannot install witness-gen data: %w", err)
	}
	return nil
}

// stageTemplates copies the circuit templates into a fresh temp dir, so
// compilation outputs never dirty the repository.
func (tc *Toolchain) stageTemplates() (string, func(), error) {
	tempDir, err := os.MkdirTemp("", "zktool-circuit-*")
	if err != nil {
		return "", nil, fmt.Errorf("cannot create work dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(tempDir) }
	workDir := filepath.Join(tempDir, "templates")
	if err := util.CopyDir(tc.TemplatesDir, workDir); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("cannot stage circuit templates: %w", err)
	}
	return workDir, cleanup, nil
}

// compile runs circom on the main circuit with the given output flags,
// resolving circomlib through the global npm root.
func compile(ctx context.Context, workDir string, flags ...string) error {
	npmRoot, err := npmGlobalRoot(ctx)
	if err != nil {
		return err
	}
	args := []string{"-l", ".", "-l", npmRoot, mainCircuit}
	args = append(args, flags...)

	log.Infof("compiling circuit")
	start := time.Now()
	if err := runCommand(ctx, workDir, "circom", args...); err != nil {
		return err
	}
	log.Infow("circuit compiled", "took", time.Since(start).String())
	return nil
}

// npmGlobalRoot returns the global node_modules directory, where circomlib
// is installed.
func npmGlobalRoot(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "npm", "root", "-g").Output()
	if err != nil {
		return "", fmt.Errorf("cannot resolve npm global root: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// runCommand runs a subprocess in dir, streaming its output to the user.
func runCommand(ctx context.Context, dir, name string, args ...string) error {
	log.Debugw("running command", "cmd", name+" "+strings.Join(args, " "), "dir", dir)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}
