package artifact

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// ErrNotFound is returned when a requested artifact does not exist.
	ErrNotFound = errors.New("artifact not found")
	// ErrForbidden is returned when a requested artifact resolves outside
	// the allowed directory. Such requests are never served.
	ErrForbidden = errors.New("artifact path escapes the artifact root")
)

// Kind selects the directory of a report that an artifact path is relative to.
type Kind int

const (
	// KindLog paths are relative to <report>/logs.
	KindLog Kind = iota
	// KindTestResults paths are relative to <report>/logs/test-results.
	KindTestResults
)

func (k Kind) String() string {
	switch k {
	case KindLog:
		return "log"
	case KindTestResults:
		return "test-results"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Resolver maps client-supplied report keys and relative paths to files
// under the artifact root.
//
// Resolution is canonicalize-then-verify: the request is first checked
// lexically against its base directory, then symlinks are evaluated and the
// canonical result must still lie inside the canonical root.
type Resolver struct {
	root string
	log  logrus.FieldLogger
}

// NewResolver canonicalizes root once. The root must exist.
func NewResolver(root string, log logrus.FieldLogger) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("artifact root %s: %w", root, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("artifact root %s: %w", root, err)
	}
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &Resolver{root: canonical, log: log}, nil
}

// Root returns the canonical artifact root.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve returns the canonical path of an artifact. It fails with
// ErrForbidden when the request leaves its base directory or the canonical
// path leaves the root, and with ErrNotFound when a path element is missing.
func (r *Resolver) Resolve(kind Kind, reportKey, relPath string) (string, error) {
	base, err := r.base(kind, reportKey)
	if err != nil {
		return "", r.forbidden(kind, reportKey, relPath, err.Error())
	}

	rel := filepath.FromSlash(relPath)
	joined := filepath.Join(base, rel)
	if filepath.IsAbs(rel) || !within(joined, base) {
		return "", r.forbidden(kind, reportKey, relPath, "relative path leaves its base directory")
	}

	canonical, err := filepath.EvalSymlinks(joined)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s %s/%s", ErrNotFound, kind, reportKey, relPath)
	}
	if err != nil {
		return "", fmt.Errorf("resolve %s %s/%s: %w", kind, reportKey, relPath, err)
	}
	if !within(canonical, r.root) {
		return "", r.forbidden(kind, reportKey, relPath, "canonical path outside root")
	}
	return canonical, nil
}

// Read resolves an artifact and returns its raw contents.
func (r *Resolver) Read(kind Kind, reportKey, relPath string) ([]byte, error) {
	path, err := r.Resolve(kind, reportKey, relPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a file", ErrNotFound, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// Log returns the raw contents of one log of a package.
func (r *Resolver) Log(reportKey, pkgName, logType string) ([]byte, error) {
	return r.Read(KindLog, reportKey, pkgName+"-"+logType+logExt)
}

// TestResults returns the test-result document of a package as text.
func (r *Resolver) TestResults(reportKey, pkgName string) (string, error) {
	data, err := r.Read(KindTestResults, reportKey, pkgName+testResultsExt)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// base returns the lexical base directory of kind within a report. The
// report key must name a direct child of the root; characters that are not
// path separators on this system, such as a backslash on Unix, are allowed
// since report keys keep them.
func (r *Resolver) base(kind Kind, reportKey string) (string, error) {
	if reportKey == "" || reportKey == "." || reportKey == ".." ||
		strings.ContainsRune(reportKey, '/') || strings.ContainsRune(reportKey, filepath.Separator) {
		return "", fmt.Errorf("invalid report key")
	}
	switch kind {
	case KindLog:
		return filepath.Join(r.root, reportKey, logsDir), nil
	case KindTestResults:
		return filepath.Join(r.root, reportKey, logsDir, testResultsDir), nil
	default:
		return "", fmt.Errorf("unknown artifact kind %s", kind)
	}
}

func (r *Resolver) forbidden(kind Kind, reportKey, relPath, reason string) error {
	r.log.WithFields(logrus.Fields{
		"kind":       kind.String(),
		"report_key": reportKey,
		"path":       relPath,
		"reason":     reason,
	}).Warn("rejected artifact request outside the artifact root")
	return fmt.Errorf("%w: %s %s/%s", ErrForbidden, kind, reportKey, relPath)
}

// within reports whether path is root or lies below it. Both must be clean.
func within(path, root string) bool {
	if path == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}
	return strings.HasPrefix(path, prefix)
}
