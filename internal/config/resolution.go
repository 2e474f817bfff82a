package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Origins of a resolved setting, highest priority first.
const (
	OriginCLI     = "cli"
	OriginEnv     = "env"
	OriginFile    = "file"
	OriginDefault = "default"
)

// CliFlags holds the values of command-line flags. Zero values mean the
// flag was not given, except for NoColor which has NoColorSet.
type CliFlags struct {
	ConfigPath   string
	ArtifactRoot string
	BuildLimit   int
	Listen       string
	SourceKind   string
	DBPath       string
	APIURL       string
	SourceFile   string
	LogLevel     string
	LogFormat    string
	Theme        string
	Concurrency  int

	NoColor    bool
	NoColorSet bool
}

// ResolvedConfig holds the final resolved configuration after applying all priority rules.
type ResolvedConfig struct {
	AppConfig

	// ConfigFile is the file read, empty when only defaults applied.
	ConfigFile string

	// Sources records where each setting came from, keyed by its yaml name.
	Sources map[string]string
}

// ResolveConfig resolves configuration from all sources with explicit priority order.
//
// Resolution order:
//  1. Load base config from the config file (or defaults)
//  2. Apply environment variables
//  3. Apply CLI flags (highest priority)
//  4. Validate the result
func ResolveConfig(flags CliFlags) (*ResolvedConfig, error) {
	appCfg, file, err := LoadConfig(flags.ConfigPath)
	if err != nil {
		return nil, err
	}

	base := OriginDefault
	if file != "" {
		base = OriginFile
	}
	resolved := &ResolvedConfig{AppConfig: *appCfg, ConfigFile: file, Sources: map[string]string{}}
	for _, key := range []string{
		"artifact_root", "build_limit", "listen", "source.kind", "source.db_path",
		"source.api_url", "source.file", "source.timeout", "log_level", "log_format",
		"theme", "concurrency",
	} {
		resolved.Sources[key] = base
	}

	if err := applyEnv(resolved); err != nil {
		return nil, err
	}
	applyFlags(resolved, flags)

	if err := resolved.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return resolved, nil
}

func applyEnv(r *ResolvedConfig) error {
	setString := func(key, env string, dst *string) {
		if v := os.Getenv(env); v != "" {
			*dst = v
			r.Sources[key] = OriginEnv
		}
	}
	setInt := func(key, env string, dst *int) error {
		v := os.Getenv(env)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
		*dst = n
		r.Sources[key] = OriginEnv
		return nil
	}

	setString("artifact_root", "BUILDBOT_CI_ARTIFACT_ROOT", &r.ArtifactRoot)
	setString("listen", "BUILDBOT_CI_LISTEN", &r.Listen)
	setString("source.kind", "BUILDBOT_CI_SOURCE", &r.Source.Kind)
	setString("source.db_path", "BUILDBOT_CI_DB_PATH", &r.Source.DBPath)
	setString("source.api_url", "BUILDBOT_CI_API_URL", &r.Source.APIURL)
	setString("source.file", "BUILDBOT_CI_SOURCE_FILE", &r.Source.File)
	setString("log_level", "BUILDBOT_CI_LOG_LEVEL", &r.LogLevel)
	setString("log_format", "BUILDBOT_CI_LOG_FORMAT", &r.LogFormat)
	setString("theme", "BUILDBOT_CI_THEME", &r.Theme)
	if err := setInt("build_limit", "BUILDBOT_CI_BUILD_LIMIT", &r.BuildLimit); err != nil {
		return err
	}
	if err := setInt("concurrency", "BUILDBOT_CI_CONCURRENCY", &r.Concurrency); err != nil {
		return err
	}
	if v := os.Getenv("BUILDBOT_CI_SOURCE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BUILDBOT_CI_SOURCE_TIMEOUT: %w", err)
		}
		r.Source.Timeout = d
		r.Sources["source.timeout"] = OriginEnv
	}

	if noColor := getEnvBool("BUILDBOT_CI_NO_COLOR", "NO_COLOR"); noColor != nil && *noColor {
		r.Theme = "mono"
		r.Sources["theme"] = OriginEnv
	}
	return nil
}

func applyFlags(r *ResolvedConfig, flags CliFlags) {
	setString := func(key, v string, dst *string) {
		if v != "" {
			*dst = v
			r.Sources[key] = OriginCLI
		}
	}
	setInt := func(key string, v int, dst *int) {
		if v != 0 {
			*dst = v
			r.Sources[key] = OriginCLI
		}
	}

	setString("artifact_root", flags.ArtifactRoot, &r.ArtifactRoot)
	setString("listen", flags.Listen, &r.Listen)
	setString("source.kind", flags.SourceKind, &r.Source.Kind)
	setString("source.db_path", flags.DBPath, &r.Source.DBPath)
	setString("source.api_url", flags.APIURL, &r.Source.APIURL)
	setString("source.file", flags.SourceFile, &r.Source.File)
	setString("log_level", flags.LogLevel, &r.LogLevel)
	setString("log_format", flags.LogFormat, &r.LogFormat)
	setString("theme", flags.Theme, &r.Theme)
	setInt("build_limit", flags.BuildLimit, &r.BuildLimit)
	setInt("concurrency", flags.Concurrency, &r.Concurrency)

	if flags.NoColorSet && flags.NoColor {
		r.Theme = "mono"
		r.Sources["theme"] = OriginCLI
	}
}

// getEnvBool reads a boolean from environment variables, trying multiple keys.
// Returns nil if none are set, or a pointer to the boolean value.
func getEnvBool(keys ...string) *bool {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				return &b
			}
		}
	}
	return nil
}
