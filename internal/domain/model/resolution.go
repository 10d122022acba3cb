package model

// ResolutionVerdict is the final determination of whether a finding was
// addressed in a later review pass.
type ResolutionVerdict string

const (
	VerdictResolved   ResolutionVerdict = "resolved"
	VerdictUnresolved ResolutionVerdict = "unresolved"
	// VerdictUnknown is reserved for findings whose section kind never
	// receives a real verdict. Treated as unresolved downstream; kept
	// distinct for diagnostics only.
	VerdictUnknown ResolutionVerdict = "unknown"
)

// ResolutionMarker is one textual resolution signal found in a review body.
type ResolutionMarker struct {
	Text      string
	PatternID string // Which resolution phrase matched.
	// SurroundingContext holds up to 500 characters on each side of the
	// match, used for exclusion re-checking and audit.
	SurroundingContext string
	ReviewIndex        int // 0-based position in the chronological review list.
}

// ResolutionRecord pairs a finding with its verdict and the markers that
// produced it.
type ResolutionRecord struct {
	Finding Finding
	Verdict ResolutionVerdict
	Markers []ResolutionMarker
	// ContextSummary describes the most recent marker in human-readable
	// form. Empty when no marker was found.
	ContextSummary string
}
