package pattern

// TestTable lists the packages of one build in severity order.
type TestTable struct {
	Label   string          `json:"label"`
	Results []TestTableItem `json:"results"`
}

// TestTableItem is a single package result.
type TestTableItem struct {
	Name    string   `json:"name"`    // package name
	Status  string   `json:"status"`  // KindSuccess, KindError, KindWarning, KindInfo
	Texts   []string `json:"texts"`   // status texts, first is the package state
	Logs    []string `json:"logs"`    // available log types, sorted
	Details string   `json:"details"` // extra info, e.g. test results path
}

func (t *TestTable) Type() PatternType { return PatternTypeTestTable }
