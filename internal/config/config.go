// Package config loads and validates TallyMCP configuration.
//
// Configuration is resolved in four layers, later layers winning:
//  1. Built-in defaults
//  2. User config (~/.config/tallymcp/config.yaml)
//  3. Project config (.tallymcp.yaml in the working directory)
//  4. Environment variables (TALLYMCP_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	tallyerr "github.com/tallykit/tallymcp/internal/errors"
)

// ProjectConfigName is the per-project override file, looked up in the
// working directory. Settings in it win over the user config.
const ProjectConfigName = ".tallymcp.yaml"

// MinMemoryBudgetMB is the documented floor for the solver memory budget.
// Budgets below this are rejected before any search starts.
const MinMemoryBudgetMB = 64

// MaxInputCount caps the number of input amounts per solve.
const MaxInputCount = 300

// Config represents the complete TallyMCP configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Solver  SolverConfig  `yaml:"solver" json:"solver"`
	History HistoryConfig `yaml:"history" json:"history"`
	Server  ServerConfig  `yaml:"server" json:"server"`
}

// SolverConfig configures default search constraints.
type SolverConfig struct {
	// MaxSolutions is the default number of solution views requested.
	MaxSolutions int `yaml:"max_solutions" json:"max_solutions"`

	// MemoryBudgetMB is the default soft memory ceiling for a solve.
	MemoryBudgetMB int `yaml:"memory_budget_mb" json:"memory_budget_mb"`

	// MaxInputs caps how many amounts a single solve accepts.
	MaxInputs int `yaml:"max_inputs" json:"max_inputs"`
}

// HistoryConfig configures the run-history store.
type HistoryConfig struct {
	// Enabled toggles history recording.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Path is the history database location.
	Path string `yaml:"path" json:"path"`

	// MaxRuns is the number of runs kept before pruning oldest.
	MaxRuns int `yaml:"max_runs" json:"max_runs"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`

	// CacheSize is the number of solve results kept in the LRU cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Solver: SolverConfig{
			MaxSolutions:   1,
			MemoryBudgetMB: 1024,
			MaxInputs:      MaxInputCount,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    defaultHistoryPath(),
			MaxRuns: 200,
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
			CacheSize: 128,
		},
	}
}

// defaultHistoryPath returns the default history database path.
func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".tallymcp", "history.db")
	}
	return filepath.Join(home, ".tallymcp", "history.db")
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/tallymcp/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/tallymcp/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tallymcp", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "tallymcp", "config.yaml")
	}
	return filepath.Join(home, ".config", "tallymcp", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	_, err := os.Stat(GetUserConfigPath())
	return err == nil
}

// GetProjectConfigPath returns the project override location in dir.
func GetProjectConfigPath(dir string) string {
	return filepath.Join(dir, ProjectConfigName)
}

// Load resolves configuration starting from defaults, then the user config
// file, then the project override in the working directory, then environment
// overrides. Missing files are fine; unreadable or malformed ones are not.
func Load() (*Config, error) {
	cfg := NewConfig()

	path := GetUserConfigPath()
	if _, err := os.Stat(path); err == nil {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if wd, err := os.Getwd(); err == nil {
		project := GetProjectConfigPath(wd)
		if _, err := os.Stat(project); err == nil {
			if err := cfg.loadYAML(project); err != nil {
				return nil, err
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML merges a YAML file into the config.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return tallyerr.ConfigError(fmt.Sprintf("failed to read config %s", path), err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return tallyerr.ConfigError(fmt.Sprintf("failed to parse config %s", path), err).
			WithSuggestion("check the YAML syntax or delete the file to use defaults")
	}
	return nil
}

// applyEnvOverrides applies TALLYMCP_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TALLYMCP_MAX_SOLUTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Solver.MaxSolutions = n
		}
	}
	if v := os.Getenv("TALLYMCP_MEMORY_BUDGET_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Solver.MemoryBudgetMB = n
		}
	}
	if v := os.Getenv("TALLYMCP_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("TALLYMCP_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.Solver.MaxSolutions < 1 {
		return fmt.Errorf("solver.max_solutions must be at least 1, got %d", c.Solver.MaxSolutions)
	}
	if c.Solver.MemoryBudgetMB < MinMemoryBudgetMB {
		return fmt.Errorf("solver.memory_budget_mb must be at least %d, got %d",
			MinMemoryBudgetMB, c.Solver.MemoryBudgetMB)
	}
	if c.Solver.MaxInputs < 1 || c.Solver.MaxInputs > MaxInputCount {
		return fmt.Errorf("solver.max_inputs must be in [1,%d], got %d",
			MaxInputCount, c.Solver.MaxInputs)
	}
	if c.History.MaxRuns < 1 {
		return fmt.Errorf("history.max_runs must be at least 1, got %d", c.History.MaxRuns)
	}
	if c.Server.Transport != "stdio" {
		return fmt.Errorf("server.transport must be stdio, got %q", c.Server.Transport)
	}
	if c.Server.CacheSize < 1 {
		return fmt.Errorf("server.cache_size must be at least 1, got %d", c.Server.CacheSize)
	}
	return nil
}

// WriteYAML writes the config as YAML to the given path.
func (c *Config) WriteYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
