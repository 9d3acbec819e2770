// Package config loads the flowdeck configuration file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Config is the complete flowdeck configuration.
type Config struct {
	Backend   BackendConfig   `yaml:"backend"`
	API       APIConfig       `yaml:"api"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Log       LogConfig       `yaml:"log"`
	Workspace WorkspaceConfig `yaml:"workspace"`
}

// BackendConfig points at the execution backend's HTTP API.
type BackendConfig struct {
	URL string `yaml:"url"`
}

// APIConfig defines the workspace HTTP API server settings.
type APIConfig struct {
	Listen string `yaml:"listen"`
}

// SnapshotConfig defines autosave snapshot storage settings.
type SnapshotConfig struct {
	Path string `yaml:"path"`
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// WorkspaceConfig defines where pipeline files live on disk.
type WorkspaceConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Backend:   BackendConfig{URL: "http://localhost:8000"},
		API:       APIConfig{Listen: "127.0.0.1:8090"},
		Snapshot:  SnapshotConfig{Path: "flowdeck.db"},
		Log:       LogConfig{Level: "info"},
		Workspace: WorkspaceConfig{Dir: "pipelines"},
	}
}

// Load reads, interpolates, defaults, and validates the configuration file
// at configPath.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", absPath, err)
	}

	cfg := &Config{}
	interpolated := interpolateEnv(string(data))
	if err := yaml.Unmarshal([]byte(interpolated), cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", absPath, err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is and fail validation where required.
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

func applyDefaults(cfg *Config) {
	defaults := Default()
	if cfg.Backend.URL == "" {
		cfg.Backend.URL = defaults.Backend.URL
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = defaults.API.Listen
	}
	if cfg.Snapshot.Path == "" {
		cfg.Snapshot.Path = defaults.Snapshot.Path
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Workspace.Dir == "" {
		cfg.Workspace.Dir = defaults.Workspace.Dir
	}
}

func validate(cfg *Config) error {
	if envVarPattern.MatchString(cfg.Backend.URL) {
		matches := envVarPattern.FindStringSubmatch(cfg.Backend.URL)
		return fmt.Errorf("backend.url: environment variable ${%s} is not set", matches[1])
	}
	u, err := url.Parse(cfg.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.url %q must be an absolute http(s) URL", cfg.Backend.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend.url scheme %q must be http or https", u.Scheme)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error (got %q)", cfg.Log.Level)
	}

	if cfg.Snapshot.Path == "" {
		return fmt.Errorf("snapshot.path is required")
	}
	if cfg.Workspace.Dir == "" {
		return fmt.Errorf("workspace.dir is required")
	}
	if cfg.API.Listen == "" {
		return fmt.Errorf("api.listen is required")
	}
	return nil
}
