package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tallyerr "github.com/tallykit/tallymcp/internal/errors"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, 1, cfg.Solver.MaxSolutions)
	assert.Equal(t, 1024, cfg.Solver.MemoryBudgetMB)
	assert.Equal(t, MaxInputCount, cfg.Solver.MaxInputs)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "stdio", cfg.Server.Transport)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max solutions", func(c *Config) { c.Solver.MaxSolutions = 0 }},
		{"negative max solutions", func(c *Config) { c.Solver.MaxSolutions = -5 }},
		{"budget below floor", func(c *Config) { c.Solver.MemoryBudgetMB = MinMemoryBudgetMB - 1 }},
		{"max inputs too high", func(c *Config) { c.Solver.MaxInputs = MaxInputCount + 1 }},
		{"zero max runs", func(c *Config) { c.History.MaxRuns = 0 }},
		{"unknown transport", func(c *Config) { c.Server.Transport = "sse" }},
		{"zero cache size", func(c *Config) { c.Server.CacheSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	assert.NoError(t, NewConfig().Validate())
}

func TestLoad_MergesUserConfig(t *testing.T) {
	// Given: a user config under a fake XDG_CONFIG_HOME
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfgDir := filepath.Join(dir, "tallymcp")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	yaml := "solver:\n  max_solutions: 5\n  memory_budget_mb: 256\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(yaml), 0o644))

	// When: loading
	cfg, err := Load()
	require.NoError(t, err)

	// Then: file values override defaults, untouched values survive
	assert.Equal(t, 5, cfg.Solver.MaxSolutions)
	assert.Equal(t, 256, cfg.Solver.MemoryBudgetMB)
	assert.Equal(t, MaxInputCount, cfg.Solver.MaxInputs)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("TALLYMCP_MAX_SOLUTIONS", "9")
	t.Setenv("TALLYMCP_MEMORY_BUDGET_MB", "128")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Solver.MaxSolutions)
	assert.Equal(t, 128, cfg.Solver.MemoryBudgetMB)
}

func TestLoad_RejectsInvalidMergedConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("TALLYMCP_MEMORY_BUDGET_MB", "8")

	_, err := Load()
	assert.Error(t, err)
}

func TestWriteYAML_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := NewConfig()
	cfg.Solver.MaxSolutions = 7
	require.NoError(t, cfg.WriteYAML(path))

	loaded := NewConfig()
	require.NoError(t, loaded.loadYAML(path))
	assert.Equal(t, 7, loaded.Solver.MaxSolutions)
}

func TestLoad_ProjectOverrideWinsOverUserConfig(t *testing.T) {
	// Given: a user config and a project .tallymcp.yaml in the working dir
	userDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", userDir)
	cfgDir := filepath.Join(userDir, "tallymcp")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	userYAML := "solver:\n  max_solutions: 5\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(userYAML), 0o644))

	projectDir := t.TempDir()
	projectYAML := "solver:\n  max_solutions: 3\n  memory_budget_mb: 512\n"
	require.NoError(t, os.WriteFile(GetProjectConfigPath(projectDir), []byte(projectYAML), 0o644))
	t.Chdir(projectDir)

	// When: loading
	cfg, err := Load()
	require.NoError(t, err)

	// Then: the project file wins over the user file
	assert.Equal(t, 3, cfg.Solver.MaxSolutions)
	assert.Equal(t, 512, cfg.Solver.MemoryBudgetMB)
}

func TestLoad_EnvOverridesProjectConfig(t *testing.T) {
	projectDir := t.TempDir()
	projectYAML := "solver:\n  max_solutions: 3\n"
	require.NoError(t, os.WriteFile(GetProjectConfigPath(projectDir), []byte(projectYAML), 0o644))
	t.Chdir(projectDir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TALLYMCP_MAX_SOLUTIONS", "9")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Solver.MaxSolutions)
}

func TestLoad_MalformedProjectConfigFails(t *testing.T) {
	// Given: an unparseable project override
	projectDir := t.TempDir()
	require.NoError(t, os.WriteFile(GetProjectConfigPath(projectDir), []byte("solver: ["), 0o644))
	t.Chdir(projectDir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	// When: loading
	_, err := Load()

	// Then: the structured config error carries the invalid-config code
	require.Error(t, err)
	assert.Equal(t, tallyerr.ErrCodeConfigInvalid, tallyerr.GetCode(err))
}
