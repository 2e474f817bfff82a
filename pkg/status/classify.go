package status

// Phase is a stage a package goes through in the CI pipeline.
type Phase string

const (
	PhaseImport Phase = "import"
	PhaseBuild  Phase = "build"
	PhaseTest   Phase = "test"
)

// PhaseResult is the raw outcome of one phase as written by the report
// generator.
type PhaseResult struct {
	Invoked bool `json:"invoked"`
	Cached  bool `json:"cached"`
	Success bool `json:"success"`
}

// Phases maps the phases present in a report entry to their results. A phase
// absent from the map was not invoked.
type Phases map[Phase]PhaseResult

// DominanceOrder returns the recognized phases from latest to earliest. The
// first invoked phase in this order is the package's dominant phase.
func DominanceOrder() []Phase {
	return []Phase{PhaseTest, PhaseBuild, PhaseImport}
}

// Dominant returns the latest invoked phase, or false when no phase was
// invoked.
func Dominant(phases Phases) (Phase, bool) {
	for _, phase := range DominanceOrder() {
		if r, ok := phases[phase]; ok && r.Invoked {
			return phase, true
		}
	}
	return "", false
}

// Classify derives the ordered status list of a package from its phases.
//
// The first entry reflects the dominant phase. A package with no test phase
// entry at all gets a trailing "no tests" warning; that annotation never
// affects the severity rank.
func Classify(phases Phases) []Entry {
	phase, ok := Dominant(phases)
	if !ok {
		return []Entry{Unknown()}
	}

	entries := []Entry{PhaseEntry(phase, phases[phase])}
	if _, hasTest := phases[PhaseTest]; !hasTest {
		entries = append(entries, NoTests())
	}
	return entries
}

// PhaseEntry returns the entry describing the result of phase.
func PhaseEntry(phase Phase, r PhaseResult) Entry {
	text := string(phase)
	if r.Cached {
		text = cachedPrefix + text
	}
	if !r.Success {
		return Entry{Badge: BadgeFailure, Text: text + failedSuffix}
	}
	return Entry{Badge: BadgeSuccess, Text: text}
}

// ProducibleEntries lists every entry Classify or the build aggregator can
// emit. A severity table must cover all of them.
func ProducibleEntries() []Entry {
	var entries []Entry
	for _, phase := range DominanceOrder() {
		for _, cached := range []bool{false, true} {
			for _, success := range []bool{false, true} {
				entries = append(entries, PhaseEntry(phase, PhaseResult{Invoked: true, Cached: cached, Success: success}))
			}
		}
	}
	return append(entries, Unknown(), NoTests(), Success())
}
