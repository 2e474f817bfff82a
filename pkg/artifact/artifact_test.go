package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile creates path (and its parents) below dir with the given content.
func writeFile(t *testing.T, dir, path, content string) string {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(path))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return full
}

func TestLocator_Logs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	build := writeFile(t, dir, "logs/a/b/c-build.log", "build")
	test := writeFile(t, dir, "logs/a/b/c-test.log", "test")
	writeFile(t, dir, "logs/a/b/cx-build.log", "other package")
	writeFile(t, dir, "logs/a/b/c-.log", "no log type")
	writeFile(t, dir, "logs/a/b/c-build.txt", "wrong extension")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs/a/b/c-dir.log"), 0o755))

	logs, err := NewLocator(dir).Logs("a/b/c")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"build": build, "test": test}, logs)
}

func TestLocator_Logs_TopLevelPackage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	imp := writeFile(t, dir, "logs/x-import.log", "import")

	logs, err := NewLocator(dir).Logs("x")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"import": imp}, logs)
}

func TestLocator_Logs_MissingDirectoryIsEmpty(t *testing.T) {
	t.Parallel()

	logs, err := NewLocator(t.TempDir()).Logs("never/built")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestLocator_Logs_FileInPlaceOfDirectoryIsEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "logs/x", "not a directory")

	logs, err := NewLocator(dir).Logs("x/y")
	require.NoError(t, err)
	assert.Empty(t, logs)
	assert.Empty(t, NewLocator(dir).Tests("x/y"))
}

func TestLocator_Tests(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	html := writeFile(t, dir, "logs/test-results/a/b/c.html", "<html/>")

	l := NewLocator(dir)
	assert.Equal(t, []Test{{Path: html, Kind: TestKindXUnit}}, l.Tests("a/b/c"))
	assert.Empty(t, l.Tests("a/b/d"))
}
