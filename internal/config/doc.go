// Package config handles configuration loading and merging for buildbot-ci.
//
// # Configuration Precedence
//
// Configuration values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--artifact-root, --limit, --listen, --source, --theme, etc.)
//  2. Environment variables (BUILDBOT_CI_*, NO_COLOR)
//  3. YAML config file (--config, .buildbot-ci.yaml in the local directory or
//     ~/.config/buildbot-ci/.buildbot-ci.yaml)
//  4. Hardcoded defaults
//
// When a higher-priority source sets a value, it overrides any lower-priority values.
//
// # Listing Sources
//
// The job and build listing comes from one of:
//
//   - sqlite: the Buildbot master's state database (source.db_path)
//   - api: the Buildbot REST data API (source.api_url)
//   - file: a static YAML listing (source.file)
//
// # Environment Variables
//
// The following environment variables are recognized:
//
//   - BUILDBOT_CI_ARTIFACT_ROOT, BUILDBOT_CI_BUILD_LIMIT, BUILDBOT_CI_LISTEN
//   - BUILDBOT_CI_SOURCE, BUILDBOT_CI_DB_PATH, BUILDBOT_CI_API_URL, BUILDBOT_CI_SOURCE_FILE
//   - BUILDBOT_CI_LOG_LEVEL, BUILDBOT_CI_LOG_FORMAT, BUILDBOT_CI_THEME, BUILDBOT_CI_CONCURRENCY
//   - BUILDBOT_CI_NO_COLOR or NO_COLOR: Set to "true" or "1" to force the mono theme
package config
