package application

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/revtriage/revtriage/internal/domain/model"
)

// ResolutionPattern ties one resolution phrase regex to a stable identifier
// carried on the markers it produces.
type ResolutionPattern struct {
	ID      string
	Pattern *regexp.Regexp
}

// contextWindow is the number of characters kept on each side of a reference
// match when scanning for resolution language.
const contextWindow = 500

// resolutionPatterns is the language that counts as a resolution signal when
// it appears near a reference to the finding. The list is bilingual because
// the bot replies in the repository's configured language. The "Duplicate
// comments" section header is an implicit signal: the bot files a finding
// there once it considers the original addressed.
var resolutionPatterns = []ResolutionPattern{
	{ID: "resolved", Pattern: regexp.MustCompile(`(?i)\bresolved\b`)},
	{ID: "fixed", Pattern: regexp.MustCompile(`(?i)\bfixed\b`)},
	{ID: "addressed", Pattern: regexp.MustCompile(`(?i)\baddressed\b`)},
	{ID: "completed", Pattern: regexp.MustCompile(`(?i)\bcompleted\b`)},
	{ID: "no-longer-applicable", Pattern: regexp.MustCompile(`(?i)\bno longer applicable\b`)},
	{ID: "resolved-ja", Pattern: regexp.MustCompile(`対応済み`)},
	{ID: "fixed-ja", Pattern: regexp.MustCompile(`修正済み`)},
	{ID: "no-problem-ja", Pattern: regexp.MustCompile(`問題ありません`)},
	{ID: "duplicate-header", Pattern: regexp.MustCompile(`Duplicate comments`)},
}

// exclusionPatterns describe negated phrasing. A context window that matches
// any of these produces no markers at all, even if a resolution pattern also
// matches inside it.
var exclusionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bnot\s+(?:yet\s+)?resolved\b`),
	regexp.MustCompile(`(?i)\bunresolved\b`),
	regexp.MustCompile(`(?i)\bnot\s+(?:yet\s+)?fixed\b`),
	regexp.MustCompile(`(?i)\bnot\s+(?:yet\s+)?addressed\b`),
	regexp.MustCompile(`(?i)\bstill\s+(?:open|broken|an issue|needs)\b`),
	regexp.MustCompile(`(?i)\bremains?\s+(?:open|unaddressed)\b`),
	regexp.MustCompile(`まだ[^。]*(?:していません|されていません)`),
	regexp.MustCompile(`未対応`),
	regexp.MustCompile(`未解決`),
	regexp.MustCompile(`未修正`),
}

// definitivePatternIDs is the stricter subset whose presence on the most
// recent marker alone yields a resolved verdict.
var definitivePatternIDs = map[string]bool{
	"resolved":    true,
	"fixed":       true,
	"addressed":   true,
	"resolved-ja": true,
	"fixed-ja":    true,
}

// titlePrefixLen is how much of a finding's title is used as the weakest
// reference key when neither file path nor line range match.
const titlePrefixLen = 20

// DetectorConfig carries the pattern tables the detector scans with.
type DetectorConfig struct {
	ResolutionPatterns []ResolutionPattern
	ExclusionPatterns  []*regexp.Regexp
	DefinitiveIDs      map[string]bool
	Window             int
}

// DefaultDetectorConfig returns the built-in bilingual pattern tables.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		ResolutionPatterns: resolutionPatterns,
		ExclusionPatterns:  exclusionPatterns,
		DefinitiveIDs:      definitivePatternIDs,
		Window:             contextWindow,
	}
}

// ResolutionDetector determines, per finding, whether any later review body
// marks it resolved. It holds no state across calls.
type ResolutionDetector struct {
	cfg DetectorConfig
}

// NewResolutionDetector creates a detector with the given configuration.
func NewResolutionDetector(cfg DetectorConfig) *ResolutionDetector {
	def := DefaultDetectorConfig()
	if cfg.ResolutionPatterns == nil {
		cfg.ResolutionPatterns = def.ResolutionPatterns
	}
	if cfg.ExclusionPatterns == nil {
		cfg.ExclusionPatterns = def.ExclusionPatterns
	}
	if cfg.DefinitiveIDs == nil {
		cfg.DefinitiveIDs = def.DefinitiveIDs
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	return &ResolutionDetector{cfg: cfg}
}

// DetectAll evaluates every finding against the chronological review list
// (index 0 = earliest) and returns one record per finding, in the same order.
// Only actionable-kind findings get real detection; every other kind is fixed
// to unresolved with no markers, since nitpicks and outside-diff findings are
// never resolution-filtered downstream.
func (d *ResolutionDetector) DetectAll(findings []model.Finding, reviewBodiesChronological []string) []model.ResolutionRecord {
	records := make([]model.ResolutionRecord, 0, len(findings))
	for _, f := range findings {
		if f.Section != model.SectionActionable {
			records = append(records, model.ResolutionRecord{Finding: f, Verdict: model.VerdictUnresolved})
			continue
		}
		records = append(records, d.detect(f, reviewBodiesChronological))
	}
	return records
}

// detect scans every review body for references to the finding and collects
// resolution markers from the context around each reference.
func (d *ResolutionDetector) detect(f model.Finding, bodies []string) model.ResolutionRecord {
	record := model.ResolutionRecord{Finding: f, Verdict: model.VerdictUnresolved}

	for idx, body := range bodies {
		pos, ok := findReference(body, f)
		if !ok {
			continue
		}

		window := contextAround(body, pos, d.cfg.Window)
		if d.excluded(window) {
			continue
		}

		for _, rp := range d.cfg.ResolutionPatterns {
			if text := rp.Pattern.FindString(window); text != "" {
				record.Markers = append(record.Markers, model.ResolutionMarker{
					Text:               text,
					PatternID:          rp.ID,
					SurroundingContext: window,
					ReviewIndex:        idx,
				})
			}
		}
	}

	record.Verdict = d.verdict(record.Markers)
	if n := len(record.Markers); n > 0 {
		latest := record.Markers[n-1]
		record.ContextSummary = fmt.Sprintf("%q matched in review %d", latest.Text, latest.ReviewIndex)
	}

	return record
}

// verdict derives the resolution verdict from the accumulated markers.
// No markers: unresolved. A definitive phrase among the most recent markers:
// resolved. Two or more markers in total: resolved, on the grounds that two
// independent signals corroborate each other even when neither is definitive.
// A single non-definitive marker is insufficient evidence.
func (d *ResolutionDetector) verdict(markers []model.ResolutionMarker) model.ResolutionVerdict {
	if len(markers) == 0 {
		return model.VerdictUnresolved
	}

	// Markers are appended in review order, so the max index is at the tail.
	// Several patterns can fire in the same (most recent) window; the verdict
	// looks at all of them.
	maxIdx := markers[len(markers)-1].ReviewIndex
	for i := len(markers) - 1; i >= 0 && markers[i].ReviewIndex == maxIdx; i-- {
		if d.cfg.DefinitiveIDs[markers[i].PatternID] {
			return model.VerdictResolved
		}
	}

	if len(markers) >= 2 {
		return model.VerdictResolved
	}

	return model.VerdictUnresolved
}

// excluded reports whether the window contains negated resolution phrasing.
func (d *ResolutionDetector) excluded(window string) bool {
	for _, p := range d.cfg.ExclusionPatterns {
		if p.MatchString(window) {
			return true
		}
	}
	return false
}

// findReference locates the finding inside one review body using three keys
// in priority order: the file path and line range co-occurring, the bare
// back-ticked line range, and finally the first characters of the title. A
// finding with empty identifying fields simply never matches.
func findReference(body string, f model.Finding) (int, bool) {
	if f.FilePath != "" && f.FilePath != model.UnknownFile && f.LineRange != "" {
		if strings.Contains(body, f.FilePath) {
			if pos := strings.Index(body, f.LineRange); pos >= 0 {
				return pos, true
			}
		}
	}

	if f.LineRange != "" {
		if pos := strings.Index(body, "`"+f.LineRange+"`"); pos >= 0 {
			return pos, true
		}
	}

	prefix := f.Title
	if len(prefix) > titlePrefixLen {
		prefix = prefix[:titlePrefixLen]
	}
	if prefix != "" {
		if pos := strings.Index(body, prefix); pos >= 0 {
			return pos, true
		}
	}

	return 0, false
}

// contextAround returns up to radius characters on each side of pos.
func contextAround(body string, pos, radius int) string {
	start := pos - radius
	if start < 0 {
		start = 0
	}
	end := pos + radius
	if end > len(body) {
		end = len(body)
	}
	return body[start:end]
}
