package config

import (
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestResourcesDirFromEnv(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	t.Setenv(EnvResourcesDir, dir)
	c.Assert(ResourcesDir(), qt.Equals, dir)
	c.Assert(CeremoniesDir(), qt.Equals, filepath.Join(dir, "ceremonies"))
	c.Assert(TestingSetupsDir(), qt.Equals, filepath.Join(dir, "testing_setups"))
	c.Assert(CurrentSetupsDir(), qt.Equals, filepath.Join(dir, "current_setups"))
	c.Assert(PtauPath(), qt.Equals, filepath.Join(dir, PtauFileName))
}

func TestResourcesDirDefault(t *testing.T) {
	c := qt.New(t)
	t.Setenv(EnvResourcesDir, "")
	dir := ResourcesDir()
	c.Assert(dir, qt.Not(qt.Equals), "")
	c.Assert(filepath.IsAbs(dir), qt.IsTrue)
}
