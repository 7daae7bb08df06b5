package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath              = "trackkit.yaml"
	DefaultNoteLinesDistance = 0.6
)

type ProjectConfig struct {
	Project  string         `yaml:"project"`
	Version  int            `yaml:"version"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Playback PlaybackConfig `yaml:"playback"`
	Features FeaturesConfig `yaml:"features"`
	Log      LogConfig      `yaml:"log"`
	Sets     []Set          `yaml:"sets"`
	Exclude  []string       `yaml:"exclude"`
}

type CatalogConfig struct {
	DSN string `yaml:"dsn" env:"TRACKKIT_CATALOG_DSN"`
}

type PlaybackConfig struct {
	NoteLinesDistance float64  `yaml:"note_lines_distance"`
	LeftHanded        bool     `yaml:"left_handed" env:"TRACKKIT_LEFT_HANDED"`
	Environment       []string `yaml:"environment"`
}

type FeaturesConfig struct {
	Disabled []string `yaml:"disabled"`
}

type LogConfig struct {
	Verbosity int `yaml:"verbosity" env:"TRACKKIT_LOG_VERBOSITY"`
}

// Set is a named group of level directories.
type Set struct {
	Name  string   `yaml:"name"`
	Paths []string `yaml:"paths"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

// Defaults returns the config used when there is no project file: built-in
// defaults with environment overrides applied. It has no sets, so it is only
// good for commands that work on a single level.
func Defaults() (*ProjectConfig, error) {
	var cfg ProjectConfig
	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("loading default config: %w", err)
	}
	if cfg.Log.Verbosity < 0 {
		return nil, fmt.Errorf("loading default config: log verbosity must not be negative")
	}
	return &cfg, nil
}

func applyEnv(cfg *ProjectConfig) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if cfg.Playback.NoteLinesDistance == 0 {
		cfg.Playback.NoteLinesDistance = DefaultNoteLinesDistance
	}
	return nil
}

// LoadDotEnv loads variables from path into the process environment. A
// missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if dsn := cfg.Catalog.DSN; dsn != "" && !IsSQLiteDSN(dsn) && !IsPostgresDSN(dsn) {
		return fmt.Errorf("unsupported catalog dsn scheme: %s", dsn)
	}
	if cfg.Playback.NoteLinesDistance < 0 {
		return fmt.Errorf("note_lines_distance must be positive")
	}
	if cfg.Log.Verbosity < 0 {
		return fmt.Errorf("log verbosity must not be negative")
	}
	for i, id := range cfg.Features.Disabled {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("disabled feature %d is empty", i)
		}
	}
	if len(cfg.Sets) == 0 {
		return fmt.Errorf("at least one set is required")
	}

	seen := make(map[string]struct{})
	for i, set := range cfg.Sets {
		if strings.TrimSpace(set.Name) == "" {
			return fmt.Errorf("set %d name is required", i)
		}
		if len(set.Paths) == 0 {
			return fmt.Errorf("set %d paths are required", i)
		}
		key := strings.ToLower(set.Name)
		if _, exists := seen[key]; exists {
			return fmt.Errorf("duplicate set name: %s", set.Name)
		}
		seen[key] = struct{}{}
	}

	return nil
}

func IsSQLiteDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "sqlite://")
}

func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
