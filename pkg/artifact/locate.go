// Package artifact finds and serves the log and test-result files that the
// report generator stores next to a build's report.json.
//
// Layout under a report directory:
//
//	logs/<dir>/<base>-<logtype>.log       one file per log type
//	logs/test-results/<dir>/<base>.html   xunit test results
//
// where <dir>/<base> is the slash-separated package name.
package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// TestKindXUnit is the kind of HTML-rendered xunit test results.
const TestKindXUnit = "xunit"

const (
	logsDir        = "logs"
	testResultsDir = "test-results"
	logExt         = ".log"
	testResultsExt = ".html"
)

// Test is a structured test-result file of a package.
type Test struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// Locator looks up the artifacts of packages within one report directory.
type Locator struct {
	dir string
}

// NewLocator returns a locator for the report stored in reportDir.
func NewLocator(reportDir string) *Locator {
	return &Locator{dir: reportDir}
}

// Logs returns the log files of a package keyed by log type. A package
// without a log directory has no logs, also when a file stands where one of
// its directories would be; that is not an error.
func (l *Locator) Logs(pkgName string) (map[string]string, error) {
	elems, base := splitPackage(pkgName)
	logDir := filepath.Join(append([]string{l.dir, logsDir}, elems...)...)

	logs := make(map[string]string)
	entries, err := os.ReadDir(logDir)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return logs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list logs of %s: %w", pkgName, err)
	}

	prefix := base + "-"
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, logExt) {
			continue
		}
		logType := strings.TrimSuffix(name[len(prefix):], logExt)
		if logType == "" {
			continue
		}
		path := filepath.Join(logDir, name)
		if !isFile(path) {
			continue
		}
		logs[logType] = path
	}
	return logs, nil
}

// Tests returns the structured test results of a package, checked with a
// single existence test.
func (l *Locator) Tests(pkgName string) []Test {
	elems, base := splitPackage(pkgName)
	parts := append([]string{l.dir, logsDir, testResultsDir}, elems...)
	path := filepath.Join(append(parts, base+testResultsExt)...)
	if !isFile(path) {
		return nil
	}
	return []Test{{Path: path, Kind: TestKindXUnit}}
}

// splitPackage splits "a/b/c" into the directory elements ["a", "b"] and the
// base name "c".
func splitPackage(name string) ([]string, string) {
	elems := strings.Split(name, "/")
	return elems[:len(elems)-1], elems[len(elems)-1]
}

// isFile reports whether path is a regular file, following symlinks.
func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
