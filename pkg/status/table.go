package status

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownText is returned when a status text has no severity entry.
var ErrUnknownText = errors.New("status text not in severity table")

// CurrentVersion identifies the severity table returned by DefaultTable.
const CurrentVersion = 2

// Severity places a status text in the display ordering.
type Severity struct {
	Text  string `json:"text" yaml:"text"`
	Rank  int    `json:"rank" yaml:"rank"`
	Badge Badge  `json:"badge" yaml:"badge"`
}

// Table is an immutable lookup from status text to severity. Lower ranks are
// more severe and sort first.
type Table struct {
	version int
	byText  map[string]Severity
}

// NewTable builds a table from explicit severities. Texts must be unique and
// ranks non-negative.
func NewTable(version int, severities ...Severity) (*Table, error) {
	t := &Table{version: version, byText: make(map[string]Severity, len(severities))}
	for _, s := range severities {
		if s.Text == "" {
			return nil, errors.New("severity with empty text")
		}
		if s.Rank < 0 {
			return nil, fmt.Errorf("severity %q: negative rank %d", s.Text, s.Rank)
		}
		if _, dup := t.byText[s.Text]; dup {
			return nil, fmt.Errorf("severity %q listed twice", s.Text)
		}
		t.byText[s.Text] = s
	}
	return t, nil
}

// DefaultTable returns the current severity table, validated against every
// entry the classifier can produce.
//
// Texts that share a rank are ordered by package name only: "build" sits with
// "import", the cached variants of import/build with their uncached
// counterparts or with "cached: build". "success" (empty report) ranks with
// "unknown", and the "no tests" annotation comes last.
func DefaultTable() *Table {
	t, err := NewTable(CurrentVersion,
		Severity{Text: "import failed", Rank: 0, Badge: BadgeFailure},
		Severity{Text: "cached: import failed", Rank: 0, Badge: BadgeFailure},
		Severity{Text: "build failed", Rank: 1, Badge: BadgeFailure},
		Severity{Text: "cached: build failed", Rank: 1, Badge: BadgeFailure},
		Severity{Text: "test failed", Rank: 2, Badge: BadgeFailure},
		Severity{Text: "cached: test failed", Rank: 3, Badge: BadgeFailure},
		Severity{Text: "test", Rank: 4, Badge: BadgeSuccess},
		Severity{Text: "import", Rank: 5, Badge: BadgeSuccess},
		Severity{Text: "build", Rank: 5, Badge: BadgeSuccess},
		Severity{Text: "cached: test", Rank: 6, Badge: BadgeSuccess},
		Severity{Text: "cached: build", Rank: 7, Badge: BadgeSuccess},
		Severity{Text: "cached: import", Rank: 7, Badge: BadgeSuccess},
		Severity{Text: TextUnknown, Rank: 8, Badge: BadgeSkipped},
		Severity{Text: TextSuccess, Rank: 8, Badge: BadgeSuccess},
		Severity{Text: TextNoTests, Rank: 9, Badge: BadgeWarnings},
	)
	if err != nil {
		panic(err)
	}
	if err := t.Validate(ProducibleEntries()); err != nil {
		panic(err)
	}
	return t
}

// Version identifies the table layout.
func (t *Table) Version() int {
	return t.version
}

// Lookup returns the severity of text.
func (t *Table) Lookup(text string) (Severity, bool) {
	s, ok := t.byText[text]
	return s, ok
}

// Rank returns the severity rank of text.
func (t *Table) Rank(text string) (int, error) {
	s, ok := t.byText[text]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownText, text)
	}
	return s.Rank, nil
}

// MustRank is Rank for texts already proven present by Validate.
func (t *Table) MustRank(text string) int {
	rank, err := t.Rank(text)
	if err != nil {
		panic(err)
	}
	return rank
}

// Validate checks that every entry has a severity with a matching badge.
// All problems are reported at once.
func (t *Table) Validate(entries []Entry) error {
	var errs []error
	for _, e := range entries {
		s, ok := t.byText[e.Text]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownText, e.Text))
		case s.Badge != e.Badge:
			errs = append(errs, fmt.Errorf("status %q: badge %s, table says %s", e.Text, e.Badge, s.Badge))
		}
	}
	return errors.Join(errs...)
}

// Severities returns the table contents ordered by rank, then text.
func (t *Table) Severities() []Severity {
	out := make([]Severity, 0, len(t.byText))
	for _, s := range t.byText {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].Text < out[j].Text
	})
	return out
}
