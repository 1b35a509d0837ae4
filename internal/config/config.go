// Package config loads the stocktracker client configuration from YAML with
// environment variable overrides.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the stocktracker client.
type Config struct {
	API       API       `yaml:"api"`
	State     State     `yaml:"state"`
	Logging   Logging   `yaml:"logging"`
	Dashboard Dashboard `yaml:"dashboard"`
}

// API holds the backend endpoint configuration.
type API struct {
	BaseURL string `yaml:"base_url"`
}

// State holds the path of the local client-state database.
type State struct {
	Path string `yaml:"path"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Dashboard holds display parameters for the dashboard views.
type Dashboard struct {
	MoversPeriod     int `yaml:"movers_period"`
	MoversLimit      int `yaml:"movers_limit"`
	MoversPageSize   int `yaml:"movers_page_size"`
	AnalysisPageSize int `yaml:"analysis_page_size"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		API: API{BaseURL: "http://localhost:8800/api"},
		State: State{
			Path: filepath.Join(home, ".stocktracker", "state.db"),
		},
		Logging: Logging{Level: "info", Format: "json"},
		Dashboard: Dashboard{
			MoversPeriod:     1,
			MoversLimit:      10,
			MoversPageSize:   10,
			AnalysisPageSize: 20,
		},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it over
// the defaults, and then applies environment variable overrides. A missing
// file is not an error: defaults plus environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	default:
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STOCKTRACKER_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("STOCKTRACKER_STATE_PATH"); v != "" {
		cfg.State.Path = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
