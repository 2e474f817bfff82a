// Package status defines the outcome taxonomy of packages in a build report
// and classifies raw phase results into it.
//
// Every status text the classifier can emit has exactly one entry in a
// versioned severity Table. Rank 0 is the most severe outcome and is shown
// first; a text missing from the table is an error, never a default rank.
package status

// Badge is the display class of a status entry.
type Badge string

// BadgeSuccess marks a phase that completed successfully.
const BadgeSuccess Badge = "SUCCESS"

// BadgeFailure marks a phase that failed.
const BadgeFailure Badge = "FAILURE"

// BadgeSkipped marks a package for which no phase was invoked.
const BadgeSkipped Badge = "SKIPPED"

// BadgeWarnings marks a secondary annotation such as a missing test phase.
const BadgeWarnings Badge = "WARNINGS"

// Entry is one status of a package. The first entry of a package's status
// list determines its severity rank; later entries are annotations.
type Entry struct {
	Badge Badge  `json:"badge"`
	Text  string `json:"text"`
}

const (
	// TextUnknown is the status of a package with no invoked phase. It
	// denotes a no-op package, not a missing result.
	TextUnknown = "unknown"
	// TextNoTests annotates a package whose report has no test phase at all.
	TextNoTests = "no tests"
	// TextSuccess is the state of a build whose report lists no packages.
	TextSuccess = "success"

	cachedPrefix = "cached: "
	failedSuffix = " failed"
)

// Unknown returns the entry of a package with no invoked phase.
func Unknown() Entry {
	return Entry{Badge: BadgeSkipped, Text: TextUnknown}
}

// NoTests returns the annotation appended to packages without a test phase.
func NoTests() Entry {
	return Entry{Badge: BadgeWarnings, Text: TextNoTests}
}

// Success returns the state of a build with an empty report.
func Success() Entry {
	return Entry{Badge: BadgeSuccess, Text: TextSuccess}
}
