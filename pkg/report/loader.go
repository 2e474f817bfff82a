package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tidewise/buildbot-ci/pkg/artifact"
	"github.com/tidewise/buildbot-ci/pkg/status"
)

// FileName is the name of the report inside a report directory.
const FileName = "report.json"

// ErrNoReport is returned when a report directory has no report.json. The
// build has not produced its report yet; callers skip it.
var ErrNoReport = errors.New("no report")

// Loader reads reports stored as <root>/<report key>/report.json.
type Loader struct {
	root  string
	table *status.Table
}

// NewLoader returns a loader over the artifact root that ranks packages with
// table.
func NewLoader(root string, table *status.Table) *Loader {
	return &Loader{root: root, table: table}
}

// Dir returns the report directory of a report key.
func (l *Loader) Dir(reportKey string) string {
	return filepath.Join(l.root, reportKey)
}

// Load reads and classifies the report of reportKey. A missing report.json
// yields ErrNoReport; a malformed one a *MalformedError.
func (l *Loader) Load(reportKey string) (*Report, error) {
	path := filepath.Join(l.Dir(reportKey), FileName)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.Mode().IsRegular()) {
		return nil, fmt.Errorf("%w for %s", ErrNoReport, reportKey)
	}
	if err != nil {
		return nil, fmt.Errorf("stat report %s: %w", reportKey, err)
	}
	return l.LoadFile(path)
}

// LoadFile reads a report.json at an arbitrary path. Artifacts are looked up
// next to it.
func (l *Loader) LoadFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()

	raw, err := Read(f)
	if err != nil {
		var malformed *MalformedError
		if errors.As(err, &malformed) {
			malformed.Path = path
		}
		return nil, err
	}
	return Build(raw, l.table, artifact.NewLocator(filepath.Dir(path)))
}
