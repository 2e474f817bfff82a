package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tidewise/buildbot-ci/pkg/status"
)

// MalformedError reports a report.json that cannot be decoded or violates
// the expected document shape. It indicates a broken report generator and
// is never recovered from.
type MalformedError struct {
	Path string
	Err  error
}

func (e *MalformedError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed report: %v", e.Err)
	}
	return fmt.Sprintf("malformed report %s: %v", e.Path, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// document is the on-disk shape of report.json.
type document struct {
	Packages *map[string]*rawPackage `json:"packages"`
}

// rawPackage holds the recognized phases of a package. Unrecognized keys
// are ignored.
type rawPackage struct {
	Import *rawPhase `json:"import"`
	Build  *rawPhase `json:"build"`
	Test   *rawPhase `json:"test"`
}

// rawPhase is a phase result as written. All three flags are required.
type rawPhase struct {
	Invoked *bool `json:"invoked"`
	Cached  *bool `json:"cached"`
	Success *bool `json:"success"`
}

func (p *rawPhase) result() (status.PhaseResult, error) {
	switch {
	case p.Invoked == nil:
		return status.PhaseResult{}, errors.New(`missing "invoked"`)
	case p.Cached == nil:
		return status.PhaseResult{}, errors.New(`missing "cached"`)
	case p.Success == nil:
		return status.PhaseResult{}, errors.New(`missing "success"`)
	}
	return status.PhaseResult{Invoked: *p.Invoked, Cached: *p.Cached, Success: *p.Success}, nil
}

func (p *rawPackage) phases() (status.Phases, error) {
	phases := status.Phases{}
	for _, ph := range []struct {
		phase status.Phase
		raw   *rawPhase
	}{
		{status.PhaseImport, p.Import},
		{status.PhaseBuild, p.Build},
		{status.PhaseTest, p.Test},
	} {
		if ph.raw == nil {
			continue
		}
		r, err := ph.raw.result()
		if err != nil {
			return nil, fmt.Errorf("phase %s: %w", ph.phase, err)
		}
		phases[ph.phase] = r
	}
	return phases, nil
}

// Read decodes a report document into the raw phases of each package.
func Read(r io.Reader) (map[string]status.Phases, error) {
	dec := json.NewDecoder(r)
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, &MalformedError{Err: fmt.Errorf("decode: %w", err)}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, &MalformedError{Err: errors.New("trailing data after report object")}
	}
	return validateDocument(&doc)
}

// ReadBytes decodes a report document from a byte slice.
func ReadBytes(data []byte) (map[string]status.Phases, error) {
	return Read(bytes.NewReader(data))
}

func validateDocument(doc *document) (map[string]status.Phases, error) {
	if doc.Packages == nil {
		return nil, &MalformedError{Err: errors.New(`missing "packages" object`)}
	}
	raw := make(map[string]status.Phases, len(*doc.Packages))
	for name, pkg := range *doc.Packages {
		if name == "" {
			return nil, &MalformedError{Err: errors.New("package with empty name")}
		}
		if pkg == nil {
			return nil, &MalformedError{Err: fmt.Errorf("package %s: null entry", name)}
		}
		phases, err := pkg.phases()
		if err != nil {
			return nil, &MalformedError{Err: fmt.Errorf("package %s: %w", name, err)}
		}
		raw[name] = phases
	}
	return raw, nil
}
