package pattern

// Leaderboard represents a ranked list of items by metric.
type Leaderboard struct {
	Label      string            `json:"label"`
	MetricName string            `json:"metric_name"` // e.g., "failed packages"
	Items      []LeaderboardItem `json:"items"`
	TotalCount int               `json:"total_count"` // total before filtering to top N
	ShowRank   bool              `json:"show_rank"`
}

// LeaderboardItem is a single ranked entry.
type LeaderboardItem struct {
	Name    string  `json:"name"`   // display name
	Metric  string  `json:"metric"` // formatted value (e.g., "12 failed")
	Value   float64 `json:"value"`  // numeric value for sorting
	Rank    int     `json:"rank"`
	Context string  `json:"context,omitempty"`
}

func (l *Leaderboard) Type() PatternType { return PatternTypeLeaderboard }
