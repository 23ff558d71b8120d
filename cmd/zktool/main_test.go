package main

import (
	"context"
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/keyless-zk/zktool/config"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func TestInvalidLogLevelIsUsageError(t *testing.T) {
	c := qt.New(t)

	err := execute(t, "--log-level", "trace", "misc:install-circom-precommit-hook")
	c.Assert(err, qt.ErrorMatches, `invalid log level "trace".*`)
	var usage *usageError
	c.Assert(errors.As(err, &usage), qt.IsTrue)
}

func TestUnknownAction(t *testing.T) {
	c := qt.New(t)

	err := execute(t, "no-such:action")
	var unknown *unknownActionError
	c.Assert(errors.As(err, &unknown), qt.IsTrue)
}

func TestDownloadCeremoniesRequiresReleases(t *testing.T) {
	c := qt.New(t)
	t.Setenv(config.EnvReleaseOld, "")
	t.Setenv(config.EnvReleaseNew, "")

	err := execute(t, "setup:download-ceremonies")
	c.Assert(err, qt.ErrorMatches, `RELEASE_OLD and RELEASE_NEW must name.*`)
}

func TestCeremoniesConfigured(t *testing.T) {
	c := qt.New(t)
	t.Setenv(config.EnvReleaseOld, "")
	t.Setenv(config.EnvReleaseNew, "")
	c.Assert(ceremoniesConfigured(), qt.IsFalse)

	t.Setenv(config.EnvReleaseOld, "v1.0.0")
	c.Assert(ceremoniesConfigured(), qt.IsFalse)

	t.Setenv(config.EnvReleaseNew, "v2.0.0")
	c.Assert(ceremoniesConfigured(), qt.IsTrue)
}
