package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BUILDBOT_CI_ARTIFACT_ROOT", "BUILDBOT_CI_BUILD_LIMIT", "BUILDBOT_CI_LISTEN",
		"BUILDBOT_CI_SOURCE", "BUILDBOT_CI_DB_PATH", "BUILDBOT_CI_API_URL",
		"BUILDBOT_CI_SOURCE_FILE", "BUILDBOT_CI_SOURCE_TIMEOUT", "BUILDBOT_CI_LOG_LEVEL",
		"BUILDBOT_CI_LOG_FORMAT", "BUILDBOT_CI_THEME", "BUILDBOT_CI_CONCURRENCY",
		"BUILDBOT_CI_NO_COLOR", "NO_COLOR",
	} {
		t.Setenv(key, "")
	}
}

func TestResolveConfig_PriorityOrder(t *testing.T) {
	tests := []struct {
		name       string
		fileYAML   string
		envVars    map[string]string
		cliFlags   CliFlags
		wantLimit  int
		wantOrigin string
	}{
		{
			name:       "defaults only",
			wantLimit:  DefaultBuildLimit,
			wantOrigin: OriginDefault,
		},
		{
			name:       "file over defaults",
			fileYAML:   "build_limit: 7\n",
			wantLimit:  7,
			wantOrigin: OriginFile,
		},
		{
			name:       "env over file",
			fileYAML:   "build_limit: 7\n",
			envVars:    map[string]string{"BUILDBOT_CI_BUILD_LIMIT": "9"},
			wantLimit:  9,
			wantOrigin: OriginEnv,
		},
		{
			name:       "CLI over env",
			fileYAML:   "build_limit: 7\n",
			envVars:    map[string]string{"BUILDBOT_CI_BUILD_LIMIT": "9"},
			cliFlags:   CliFlags{BuildLimit: 11},
			wantLimit:  11,
			wantOrigin: OriginCLI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			clearEnv(t)
			if tt.fileYAML != "" {
				require.NoError(t, os.WriteFile(FileName, []byte(tt.fileYAML), 0o600))
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			resolved, err := ResolveConfig(tt.cliFlags)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, resolved.BuildLimit)
			assert.Equal(t, tt.wantOrigin, resolved.Sources["build_limit"])
		})
	}
}

func TestResolveConfig_Validation(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)

	_, err := ResolveConfig(CliFlags{SourceKind: "jenkins"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")

	t.Setenv("BUILDBOT_CI_CONCURRENCY", "many")
	_, err = ResolveConfig(CliFlags{})
	require.Error(t, err)
}

func TestResolveConfig_NoColorForcesMono(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)

	resolved, err := ResolveConfig(CliFlags{Theme: "orca", NoColor: true, NoColorSet: true})
	require.NoError(t, err)
	assert.Equal(t, "mono", resolved.Theme)

	t.Setenv("NO_COLOR", "1")
	resolved, err = ResolveConfig(CliFlags{})
	require.NoError(t, err)
	assert.Equal(t, "mono", resolved.Theme)
	assert.Equal(t, OriginEnv, resolved.Sources["theme"])
}

func TestResolveConfig_ExplicitPath(t *testing.T) {
	dir := chdirTemp(t)
	clearEnv(t)

	path := dir + "/custom.yaml"
	require.NoError(t, os.WriteFile(path, []byte("source:\n  kind: file\n  file: listing.yaml\n"), 0o600))

	resolved, err := ResolveConfig(CliFlags{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, path, resolved.ConfigFile)
	assert.Equal(t, SourceFile, resolved.Source.Kind)
	assert.Equal(t, "listing.yaml", resolved.Source.File)
}
