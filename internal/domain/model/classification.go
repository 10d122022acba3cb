package model

// Priority ranks an actionable comment. Derived from its description text by
// keyword matching; never stored independently of the text it was derived from.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
)

// ActionableComment is a finding that still requires developer action. Only
// emitted when the resolution verdict is unresolved or unknown.
type ActionableComment struct {
	ID          string // Composite identity key, "filePath:lineRange".
	FilePath    string
	LineRange   string
	Description string
	Priority    Priority
	RawText     string
}

// NitpickComment is a minor stylistic remark. Never filtered by resolution.
type NitpickComment struct {
	FilePath   string
	LineRange  string
	Suggestion string
	RawContent string
}

// OutsideDiffComment is a finding on code outside the PR's diff range.
// Never filtered by resolution.
type OutsideDiffComment struct {
	FilePath   string
	LineRange  string
	Content    string
	RawContent string
}

// ParseStats counts findings extracted per section kind across all parsed
// review bodies.
type ParseStats struct {
	BySection     map[SectionKind]int
	ReviewsParsed int
}

// ResolutionStats summarizes the detection phase.
type ResolutionStats struct {
	Evaluated  int // Actionable findings run through detection.
	Resolved   int
	Unresolved int
	Markers    int // Total markers found across all findings.
}

// ClassificationResult is the terminal aggregate of one classification call.
type ClassificationResult struct {
	Actionable  []ActionableComment
	Nitpicks    []NitpickComment
	OutsideDiff []OutsideDiffComment

	TotalParsed               int
	TotalActionableFound      int // Before resolution filtering; includes duplicate-section findings.
	TotalActionableUnresolved int
	TotalNitpick              int
	TotalOutsideDiff          int

	Parse      ParseStats
	Resolution ResolutionStats
}

// EmptyClassificationResult returns a result with all counts at zero and
// non-nil slices, the degraded output for empty or unusable input.
func EmptyClassificationResult() ClassificationResult {
	return ClassificationResult{
		Actionable:  []ActionableComment{},
		Nitpicks:    []NitpickComment{},
		OutsideDiff: []OutsideDiffComment{},
		Parse:       ParseStats{BySection: map[SectionKind]int{}},
	}
}
