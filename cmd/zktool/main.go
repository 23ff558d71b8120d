// zktool is the developer-environment tool for the keyless circuit
// repository: it installs build dependencies, compiles the circuit and
// procures trusted-setup artifacts.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keyless-zk/zktool/circuit"
	"github.com/keyless-zk/zktool/config"
	"github.com/keyless-zk/zktool/deps"
	"github.com/keyless-zk/zktool/ghrelease"
	"github.com/keyless-zk/zktool/log"
	"github.com/keyless-zk/zktool/setup"
	"github.com/keyless-zk/zktool/setup/cache"
)

const longHelp = `zktool runs one or more setup actions for this repository.
With no actions given, "setup-dev-environment" is run.

Actions are referenced as <category>:<action>, for example
"prover-service:install-deps".

  prover-service:
    install-deps            install the dependencies for building and
                            running the prover service
    add-envvars-to-profile  add the directory containing libtbb to
                            LD_LIBRARY_PATH, required for running the
                            prover service and its tests

  circuit:
    install-deps            install the dependencies for compiling the
                            circuit and building witness-generation
                            binaries

  setup:
    download-ceremonies     download the trusted-setup ceremonies named by
                            RELEASE_OLD and RELEASE_NEW into the resources
                            dir; WITNESS_GEN selects extra assets
                            (c, wasm, both or none)
    procure-testing-setup   get an untrusted setup for the circuit in this
                            repo, via the cloud cache when possible;
                            IGNORE_CACHE=1 forces local generation

  misc:
    install-circom-precommit-hook
                            install a pre-commit hook that requires the
                            main circuit to compile before committing

  setup-dev-environment     install all deps, set up env vars and download
                            the latest ceremonies

The resources dir defaults to ~/.local/share/keyless-prover and can be
overridden with RESOURCES_DIR.`

// unknownActionError marks dispatch failures, which exit with the usage
// code instead of the fatal one.
type unknownActionError struct {
	action string
}

func (e *unknownActionError) Error() string {
	return fmt.Sprintf("action %q not recognized", e.action)
}

// usageError marks bad invocations (e.g. an invalid flag value), which
// also exit with the usage code.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "zktool [action ...]",
		Short:         "developer-environment setup for the keyless circuit toolchain",
		Long:          longHelp,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !log.IsValidLevel(logLevel) {
				return &usageError{msg: fmt.Sprintf(
					"invalid log level %q (want debug, info, warn, error or fatal)", logLevel)}
			}
			log.Init(logLevel, "stderr", nil)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"setup-dev-environment"}
			}
			for _, action := range args {
				if err := handleAction(cmd.Context(), action); err != nil {
					return err
				}
			}
			deps.RemindRestartIfNeeded()
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", log.LogLevelInfo,
		"log level (debug, info, warn, error)")
	return rootCmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Error(err)
		var unknown *unknownActionError
		if errors.As(err, &unknown) {
			fmt.Fprintln(os.Stderr, longHelp)
			os.Exit(1)
		}
		var usage *usageError
		if errors.As(err, &usage) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}

func handleAction(ctx context.Context, action string) error {
	category, body, _ := strings.Cut(action, ":")
	switch category {
	case "prover-service":
		switch body {
		case "install-deps":
			return deps.Install(ctx, deps.ProverServiceDeps)
		case "add-envvars-to-profile":
			return deps.AddLibraryPathsToProfile(repoRoot())
		}
	case "circuit":
		if body == "install-deps" {
			return deps.Install(ctx, deps.CircuitDeps)
		}
	case "setup":
		switch body {
		case "download-ceremonies":
			return downloadCeremonies(ctx)
		case "procure-testing-setup":
			return procureTestingSetup(ctx)
		}
	case "misc":
		if body == "install-circom-precommit-hook" {
			return circuit.InstallPrecommitHook(repoRoot())
		}
	case "setup-dev-environment":
		return setupDevEnvironment(ctx)
	}
	return &unknownActionError{action: action}
}

func setupDevEnvironment(ctx context.Context) error {
	for _, action := range []string{
		"prover-service:install-deps",
		"prover-service:add-envvars-to-profile",
		"circuit:install-deps",
	} {
		if err := handleAction(ctx, action); err != nil {
			return err
		}
	}
	// Unlike the explicit setup:download-ceremonies action, the default
	// path stays usable without any environment.
	if !ceremoniesConfigured() {
		log.Warnw("ceremony releases not configured, skipping download",
			"want", config.EnvReleaseOld+" and "+config.EnvReleaseNew)
		return nil
	}
	return handleAction(ctx, "setup:download-ceremonies")
}

// ceremoniesConfigured reports whether the environment names both ceremony
// releases.
func ceremoniesConfigured() bool {
	return os.Getenv(config.EnvReleaseOld) != "" && os.Getenv(config.EnvReleaseNew) != ""
}

func downloadCeremonies(ctx context.Context) error {
	defaultRelease := os.Getenv(config.EnvReleaseOld)
	newRelease := os.Getenv(config.EnvReleaseNew)
	if defaultRelease == "" || newRelease == "" {
		return fmt.Errorf("%s and %s must name the ceremony releases to download",
			config.EnvReleaseOld, config.EnvReleaseNew)
	}
	witnessGen, err := setup.ParseWitnessGen(os.Getenv(config.EnvWitnessGen))
	if err != nil {
		return err
	}
	client := ghrelease.NewClient(config.ReleaseOwner, config.ReleaseRepo,
		os.Getenv("GITHUB_TOKEN"))
	return setup.DownloadCeremonies(ctx, client, defaultRelease, newRelease, witnessGen)
}

func procureTestingSetup(ctx context.Context) error {
	root := repoRoot()
	procurement := &setup.Procurement{
		TemplatesDir:     filepath.Join(root, "circuit", "templates"),
		CircuitConfigSrc: filepath.Join(root, "prover-service", config.CircuitConfigFile),
		Generator:        &circuit.Toolchain{TemplatesDir: filepath.Join(root, "circuit", "templates")},
		IgnoreCache:      os.Getenv(config.EnvIgnoreCache) != "",
	}
	store, err := cache.NewGCS(ctx, config.CacheBucket)
	if err != nil {
		log.Warnw("setup cache unavailable", "error", err.Error())
	} else {
		procurement.Cache = store
	}
	return procurement.Run(ctx)
}

// repoRoot walks up from the working directory to the enclosing git
// checkout, falling back to the working directory itself.
func repoRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for d := dir; ; {
		if info, err := os.Stat(filepath.Join(d, ".git")); err == nil && info.IsDir() {
			return d
		}
		parent := filepath.Dir(d)
		if parent == d {
			return dir
		}
		d = parent
	}
}
