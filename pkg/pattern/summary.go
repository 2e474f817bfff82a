package pattern

// SummaryKind identifies what a summary describes, for renderer dispatch.
type SummaryKind string

const (
	SummaryKindDashboard SummaryKind = "dashboard"
	SummaryKindBuild     SummaryKind = "build"
)

// Summary represents high-level metrics and counts.
type Summary struct {
	Label   string        `json:"label"`
	Kind    SummaryKind   `json:"kind"`
	Metrics []SummaryItem `json:"metrics"`
}

// SummaryItem is a single metric in a summary.
type SummaryItem struct {
	Label string `json:"label"` // e.g., "build failed", "test"
	Value string `json:"value"` // formatted value
	Kind  string `json:"kind"`  // KindSuccess, KindError, ... affects coloring
}

func (s *Summary) Type() PatternType { return PatternTypeSummary }
