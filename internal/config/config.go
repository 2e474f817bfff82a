package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working directory
// and the user config directory.
const FileName = ".buildbot-ci.yaml"

// Listing source kinds.
const (
	SourceSQLite = "sqlite"
	SourceAPI    = "api"
	SourceFile   = "file"
)

// Constants for default values.
const (
	DefaultArtifactRoot = "build_reports"
	DefaultBuildLimit   = 20
	DefaultListen       = ":8010"
	DefaultSourceKind   = SourceSQLite
	DefaultDBPath       = "state.sqlite"
	DefaultTimeout      = 10 * time.Second
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultTheme        = "default"
	DefaultConcurrency  = 4
)

// SourceConfig selects where the job and build listing comes from.
type SourceConfig struct {
	Kind    string        `yaml:"kind"`
	DBPath  string        `yaml:"db_path"`
	APIURL  string        `yaml:"api_url"`
	File    string        `yaml:"file"`
	Timeout time.Duration `yaml:"timeout"`
}

// AppConfig represents the application's overall configuration from .buildbot-ci.yaml.
type AppConfig struct {
	ArtifactRoot string       `yaml:"artifact_root"`
	BuildLimit   int          `yaml:"build_limit"`
	Listen       string       `yaml:"listen"`
	Source       SourceConfig `yaml:"source"`
	LogLevel     string       `yaml:"log_level"`
	LogFormat    string       `yaml:"log_format"`
	Theme        string       `yaml:"theme"`
	Concurrency  int          `yaml:"concurrency"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *AppConfig {
	return &AppConfig{
		ArtifactRoot: DefaultArtifactRoot,
		BuildLimit:   DefaultBuildLimit,
		Listen:       DefaultListen,
		Source: SourceConfig{
			Kind:    DefaultSourceKind,
			DBPath:  DefaultDBPath,
			Timeout: DefaultTimeout,
		},
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
		Theme:       DefaultTheme,
		Concurrency: DefaultConcurrency,
	}
}

// LoadConfig loads the configuration file at path, or the first
// .buildbot-ci.yaml found when path is empty. Keys missing from the file
// keep their defaults. It returns the path actually read ("" for defaults
// only).
func LoadConfig(path string) (*AppConfig, string, error) {
	cfg := Defaults()

	if path == "" {
		path = getConfigPath()
		if path == "" {
			return cfg, "", nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read config file: %w", err)
	}
	// Unmarshal over the defaults so absent keys keep them.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, path, nil
}

// getConfigPath tries to find the .buildbot-ci.yaml configuration file.
// It checks local directory first, then XDG UserConfigDir (if valid).
func getConfigPath() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}

	configHome, err := os.UserConfigDir()
	// An empty or root config dir is not usable for an XDG path.
	if err != nil || configHome == "" || configHome == "/" {
		return ""
	}
	xdgPath := filepath.Join(configHome, "buildbot-ci", FileName)
	if _, err := os.Stat(xdgPath); err == nil {
		return xdgPath
	}
	return ""
}

// Validate reports every invalid setting.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.ArtifactRoot == "" {
		errs = append(errs, errors.New("artifact_root must not be empty"))
	}
	if c.BuildLimit <= 0 {
		errs = append(errs, fmt.Errorf("build_limit must be positive, got: %d", c.BuildLimit))
	}
	if c.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("concurrency must be positive, got: %d", c.Concurrency))
	}

	switch c.Source.Kind {
	case SourceSQLite:
		if c.Source.DBPath == "" {
			errs = append(errs, errors.New("source.db_path is required for the sqlite source"))
		}
	case SourceAPI:
		if c.Source.APIURL == "" {
			errs = append(errs, errors.New("source.api_url is required for the api source"))
		}
	case SourceFile:
		if c.Source.File == "" {
			errs = append(errs, errors.New("source.file is required for the file source"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid source.kind: %q (must be: sqlite, api, file)", c.Source.Kind))
	}
	if c.Source.Timeout < 0 {
		errs = append(errs, fmt.Errorf("source.timeout must not be negative, got: %s", c.Source.Timeout))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.LogFormat] {
		errs = append(errs, fmt.Errorf("invalid log_format: %q (must be: text, json)", c.LogFormat))
	}
	validThemes := map[string]bool{"default": true, "orca": true, "mono": true}
	if !validThemes[c.Theme] {
		errs = append(errs, fmt.Errorf("invalid theme: %q (must be: default, orca, mono)", c.Theme))
	}
	return errors.Join(errs...)
}
