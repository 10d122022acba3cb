package model

// SectionKind identifies one of the five fixed markdown regions the review
// bot uses to group findings in a review body. The set is closed; it is
// never extended at runtime.
type SectionKind string

const (
	SectionActionable  SectionKind = "actionable"
	SectionNitpick     SectionKind = "nitpick"
	SectionOutsideDiff SectionKind = "outside_diff_range"
	SectionAdditional  SectionKind = "additional"
	SectionDuplicate   SectionKind = "duplicate"
)

// UnknownFile is the sentinel file path assigned to a finding whose enclosing
// file block could not be resolved. Only outside-diff-range findings can end
// up with it, since that section may appear without a per-file wrapper.
const UnknownFile = "unknown_file"

// Finding is the atomic unit extracted from a review body: one
// "`<line-range>`: **title**" marker plus its free-text content, associated
// with the file block that encloses it.
type Finding struct {
	FilePath  string
	LineRange string // Raw line reference as written ("12", "12-18"); kept opaque for matching.
	Title     string
	Content   string
	Section   SectionKind
	RawText   string // Exact matched marker substring; stable key for resolution scanning.

	// IsDuplicate marks records synthesized from an "Also applies to:" reference.
	IsDuplicate bool

	// AppliesToLines lists, on the origin finding only, the additional line
	// ranges that share its title and content. Empty on duplicate records.
	AppliesToLines []string
}
