package application

import (
	"regexp"
	"sort"
	"strings"

	"github.com/revtriage/revtriage/internal/domain/model"
)

// Section marker patterns for the review bot's markdown dialect. Each section
// kind has exactly one marker; a body that lacks a marker simply has no
// findings of that kind. The emoji prefixes inside <summary> vary between bot
// versions, so the patterns anchor on the literal label text instead.
var sectionMarkers = map[model.SectionKind]*regexp.Regexp{
	model.SectionActionable:  regexp.MustCompile(`(?m)^\*\*Actionable comments posted: \d+\*\*`),
	model.SectionNitpick:     regexp.MustCompile(`<summary>[^<]*Nitpick comments \(\d+\)</summary>`),
	model.SectionOutsideDiff: regexp.MustCompile(`<summary>[^<]*Outside diff range comments \(\d+\)</summary>`),
	model.SectionAdditional:  regexp.MustCompile(`<summary>[^<]*Additional comments \(\d+\)</summary>`),
	model.SectionDuplicate:   regexp.MustCompile(`<summary>[^<]*Duplicate comments \(\d+\)</summary>`),
}

var (
	// fileBlockPattern matches a per-file details block:
	// <details><summary>path/to/file.go (3)</summary><blockquote>...</blockquote></details>
	fileBlockPattern = regexp.MustCompile(`(?s)<details>\s*<summary>([^<\n]+?)\s*\(\d+\)</summary>\s*<blockquote>(.*?)</blockquote>\s*</details>`)

	// quotedFileBlockPattern matches the blockquote-only nesting variant the
	// bot emits inside quoted replies, where the outer <details> tag is absent.
	quotedFileBlockPattern = regexp.MustCompile(`(?s)<summary>([^<\n]+?)\s*\(\d+\)</summary>\s*<blockquote>(.*?)</blockquote>`)

	// inlineFilePattern resolves a bare file summary line inside the
	// outside-diff section, which sometimes carries no blockquote wrapper.
	inlineFilePattern = regexp.MustCompile(`<summary>([^<\n]+?)\s*\(\d+\)</summary>`)

	// findingMarkerPattern matches one finding marker: `12-18`: **title**
	// Leading "> " prefixes occur when the block is quoted.
	findingMarkerPattern = regexp.MustCompile("(?m)^[ \t>]*`(\\d+(?:-\\d+)?)`:\\s*\\*\\*(.+?)\\*\\*")

	// alsoAppliesPattern captures the comma-separated line ranges of an
	// "Also applies to:" cross-reference.
	alsoAppliesPattern = regexp.MustCompile(`Also applies to:\s*(\d[\d,\-\s]*)`)
)

// contentDivider terminates a finding's content early when present.
const contentDivider = "\n---\n"

// ParserConfig carries the marker patterns the parser scans with. The
// defaults describe the known bot dialect; tests and future bot versions can
// substitute their own. Passed by value; no process-wide parser state exists.
type ParserConfig struct {
	SectionMarkers map[model.SectionKind]*regexp.Regexp
}

// DefaultParserConfig returns the marker set for the current bot dialect.
func DefaultParserConfig() ParserConfig {
	return ParserConfig{SectionMarkers: sectionMarkers}
}

// CommentParser extracts structured findings from one review body. It is
// stateless between calls: parsing the same body twice yields identical
// ordered finding lists.
type CommentParser struct {
	cfg ParserConfig
}

// NewCommentParser creates a parser with the given configuration.
func NewCommentParser(cfg ParserConfig) *CommentParser {
	if cfg.SectionMarkers == nil {
		cfg.SectionMarkers = sectionMarkers
	}
	return &CommentParser{cfg: cfg}
}

// Parse returns all findings present in the review body, in document order.
// A body containing none of the known section markers yields an empty slice,
// never an error.
func (p *CommentParser) Parse(reviewBody string) []model.Finding {
	findings, _ := p.ParseWithStats(reviewBody)
	return findings
}

// ParseWithStats is Parse plus a per-section finding count.
func (p *CommentParser) ParseWithStats(reviewBody string) ([]model.Finding, map[model.SectionKind]int) {
	findings := []model.Finding{}
	counts := map[model.SectionKind]int{}

	for _, span := range p.sectionSpans(reviewBody) {
		var extracted []model.Finding
		if span.kind == model.SectionOutsideDiff {
			extracted = extractOutsideDiff(span.text)
		} else {
			for _, block := range fileBlocks(span.text) {
				extracted = append(extracted, extractFindings(block.text, block.file, span.kind)...)
			}
		}

		counts[span.kind] += len(extracted)
		findings = append(findings, extracted...)
	}

	return findings, counts
}

// sectionSpan is the region of a review body belonging to one section kind.
type sectionSpan struct {
	kind model.SectionKind
	text string
}

// sectionSpans locates every known section marker and slices the body into
// spans. All marker offsets are computed up front and sorted, so each span
// runs from the end of its own marker to the start of whichever marker comes
// next, or to end of body. Missing sections yield no span.
func (p *CommentParser) sectionSpans(body string) []sectionSpan {
	type markerHit struct {
		kind       model.SectionKind
		start, end int
	}

	var hits []markerHit
	for kind, pattern := range p.cfg.SectionMarkers {
		if loc := pattern.FindStringIndex(body); loc != nil {
			hits = append(hits, markerHit{kind: kind, start: loc[0], end: loc[1]})
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].start < hits[j].start })

	spans := make([]sectionSpan, 0, len(hits))
	for i, hit := range hits {
		end := len(body)
		if i+1 < len(hits) {
			end = hits[i+1].start
		}
		spans = append(spans, sectionSpan{kind: hit.kind, text: body[hit.end:end]})
	}

	return spans
}

// fileBlock is one per-file region inside a section span.
type fileBlock struct {
	file string
	text string
}

// fileBlocks splits a section span into per-file blocks. The primary form is
// a nested <details><summary>FILE (N)</summary><blockquote>...</blockquote></details>
// structure; when the outer <details> tag was stripped by quoting, the
// blockquote-only variant is matched instead. Malformed structures yield zero
// blocks, not an error.
func fileBlocks(span string) []fileBlock {
	matches := fileBlockPattern.FindAllStringSubmatch(span, -1)
	if matches == nil {
		matches = quotedFileBlockPattern.FindAllStringSubmatch(span, -1)
	}

	blocks := make([]fileBlock, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, fileBlock{file: strings.TrimSpace(m[1]), text: m[2]})
	}
	return blocks
}

// extractOutsideDiff handles the outside-diff-range section, which may carry
// per-file blocks like the other sections, a single inline file summary, or
// neither. Findings that cannot be tied to a file fall back to the
// unknown-file sentinel rather than being discarded.
func extractOutsideDiff(span string) []model.Finding {
	if blocks := fileBlocks(span); len(blocks) > 0 {
		var findings []model.Finding
		for _, block := range blocks {
			findings = append(findings, extractFindings(block.text, block.file, model.SectionOutsideDiff)...)
		}
		return findings
	}

	file := model.UnknownFile
	if m := inlineFilePattern.FindStringSubmatch(span); m != nil {
		file = strings.TrimSpace(m[1])
	}
	return extractFindings(span, file, model.SectionOutsideDiff)
}

// extractFindings scans one file block (or raw span) for finding markers in
// document order. Each finding's content runs from the end of its marker to
// the next marker, a "\n---\n" divider, or the end of the block, whichever
// comes first. "Also applies to:" cross-references are expanded into
// duplicate findings inserted immediately after their origin.
func extractFindings(block, file string, kind model.SectionKind) []model.Finding {
	locs := findingMarkerPattern.FindAllStringSubmatchIndex(block, -1)
	if locs == nil {
		return nil
	}

	findings := make([]model.Finding, 0, len(locs))
	for i, loc := range locs {
		contentEnd := len(block)
		if i+1 < len(locs) {
			contentEnd = locs[i+1][0]
		}
		content := block[loc[1]:contentEnd]
		if div := strings.Index(content, contentDivider); div >= 0 {
			content = content[:div]
		}
		content = strings.TrimSpace(content)

		origin := model.Finding{
			FilePath:  file,
			LineRange: block[loc[2]:loc[3]],
			Title:     block[loc[4]:loc[5]],
			Content:   content,
			Section:   kind,
			RawText:   block[loc[0]:loc[1]],
		}

		extraRanges := alsoAppliesRanges(content)
		origin.AppliesToLines = extraRanges
		findings = append(findings, origin)

		for _, lineRange := range extraRanges {
			dup := origin
			dup.LineRange = lineRange
			dup.IsDuplicate = true
			dup.AppliesToLines = nil
			findings = append(findings, dup)
		}
	}

	return findings
}

// alsoAppliesRanges returns the line ranges listed in an "Also applies to:"
// reference, or nil when the content has none.
func alsoAppliesRanges(content string) []string {
	m := alsoAppliesPattern.FindStringSubmatch(content)
	if m == nil {
		return nil
	}

	var ranges []string
	for _, part := range strings.Split(m[1], ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			ranges = append(ranges, part)
		}
	}
	return ranges
}
