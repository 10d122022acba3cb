package application

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/revtriage/revtriage/internal/domain/model"
)

// ClassificationService turns the chronological review history of a pull
// request into a deduplicated, resolution-aware classification. It composes
// the comment parser and the resolution detector and owns the conversion,
// priority, reclassification, and deduplication policy.
type ClassificationService struct {
	parser   *CommentParser
	detector *ResolutionDetector
	logger   *slog.Logger
}

// NewClassificationService creates a classification service from its two
// collaborators.
func NewClassificationService(parser *CommentParser, detector *ResolutionDetector) *ClassificationService {
	return &ClassificationService{
		parser:   parser,
		detector: detector,
		logger:   slog.Default(),
	}
}

// Classify runs the full pipeline over the review bodies, oldest first.
// It never returns an error: empty or unusable input degrades to an empty
// result with all counts at zero, and per-review or per-finding failures are
// logged and skipped so one malformed review never discards the others.
func (s *ClassificationService) Classify(reviewBodiesChronological []string) model.ClassificationResult {
	result := model.EmptyClassificationResult()
	if len(reviewBodiesChronological) == 0 {
		return result
	}

	// Phase 1: parse every review body, preserving inter-review order.
	var findings []model.Finding
	for i, body := range reviewBodiesChronological {
		fs, counts := s.parseReview(i, body)
		findings = append(findings, fs...)
		for kind, n := range counts {
			result.Parse.BySection[kind] += n
		}
		result.Parse.ReviewsParsed++
	}
	result.TotalParsed = len(findings)

	// Phase 2: one detection pass over the full finding set.
	records := s.detector.DetectAll(findings, reviewBodiesChronological)

	// Phase 3: convert each (finding, record) pair into its typed shape.
	var actionable []model.ActionableComment
	for i, f := range findings {
		record := records[i]

		switch f.Section {
		case model.SectionActionable:
			result.TotalActionableFound++
			result.Resolution.Evaluated++
			result.Resolution.Markers += len(record.Markers)

			if record.Verdict == model.VerdictResolved {
				result.Resolution.Resolved++
				continue
			}
			result.Resolution.Unresolved++

			comment, err := toActionable(f)
			if err != nil {
				s.logger.Warn("skipping unconvertible finding", "section", f.Section, "file", f.FilePath, "error", err)
				continue
			}
			actionable = append(actionable, comment)

		case model.SectionNitpick:
			result.Nitpicks = append(result.Nitpicks, model.NitpickComment{
				FilePath:   f.FilePath,
				LineRange:  f.LineRange,
				Suggestion: describeFinding(f),
				RawContent: f.RawText,
			})

		case model.SectionOutsideDiff:
			result.OutsideDiff = append(result.OutsideDiff, model.OutsideDiffComment{
				FilePath:   f.FilePath,
				LineRange:  f.LineRange,
				Content:    describeFinding(f),
				RawContent: f.RawText,
			})

		case model.SectionDuplicate:
			// Duplicate-section findings count as already-resolved actionable
			// work for statistics but are never emitted.
			result.TotalActionableFound++

		case model.SectionAdditional:
			switch outcome := ReclassifyAdditional(f.Title + " " + f.Content); outcome {
			case ReclassifyActionable:
				result.TotalActionableFound++
				comment, err := toActionable(f)
				if err != nil {
					s.logger.Warn("skipping unconvertible finding", "section", f.Section, "file", f.FilePath, "error", err)
					continue
				}
				actionable = append(actionable, comment)
			case ReclassifyDropResolved, ReclassifyDropMinor:
				s.logger.Debug("dropping additional-section finding", "outcome", outcome, "file", f.FilePath, "lines", f.LineRange)
			case ReclassifyNitpick:
				result.Nitpicks = append(result.Nitpicks, model.NitpickComment{
					FilePath:   f.FilePath,
					LineRange:  f.LineRange,
					Suggestion: describeFinding(f),
					RawContent: f.RawText,
				})
			}
		}
	}

	// Phase 4: deduplicate the actionable list. The same underlying finding
	// can arrive through two different sections when the bot's formatting is
	// inconsistent across reviews.
	result.Actionable = dedupeActionable(actionable)

	result.TotalActionableUnresolved = len(result.Actionable)
	result.TotalNitpick = len(result.Nitpicks)
	result.TotalOutsideDiff = len(result.OutsideDiff)

	return result
}

// parseReview parses one review body, converting any parser panic into an
// empty contribution so a single malformed review cannot abort classification.
func (s *ClassificationService) parseReview(index int, body string) (findings []model.Finding, counts map[model.SectionKind]int) {
	defer func() {
		if v := recover(); v != nil {
			s.logger.Error("review body parse failed", "review_index", index, "panic", v)
			findings = nil
			counts = nil
		}
	}()

	findings, counts = s.parser.ParseWithStats(body)
	return findings, counts
}

var errEmptyFinding = errors.New("finding has neither title nor line range")

// toActionable converts a finding into its actionable shape, computing the
// identity key and priority.
func toActionable(f model.Finding) (model.ActionableComment, error) {
	if f.Title == "" && f.LineRange == "" {
		return model.ActionableComment{}, errEmptyFinding
	}

	description := describeFinding(f)
	return model.ActionableComment{
		ID:          f.FilePath + ":" + f.LineRange,
		FilePath:    f.FilePath,
		LineRange:   f.LineRange,
		Description: description,
		Priority:    PriorityFor(description),
		RawText:     f.RawText,
	}, nil
}

// describeFinding joins a finding's title and content into one description.
func describeFinding(f model.Finding) string {
	title := strings.TrimSpace(f.Title)
	if f.Content == "" {
		return title
	}
	if title == "" {
		return f.Content
	}
	return title + "\n\n" + f.Content
}

// dedupeActionable removes duplicates using two keys in sequence: the
// identity key (filePath:lineRange) and a content key of file, lines, and
// description. First occurrence wins.
func dedupeActionable(comments []model.ActionableComment) []model.ActionableComment {
	seenID := make(map[string]bool, len(comments))
	seenContent := make(map[string]bool, len(comments))

	deduped := make([]model.ActionableComment, 0, len(comments))
	for _, c := range comments {
		contentKey := c.FilePath + "\x00" + c.LineRange + "\x00" + c.Description
		if seenID[c.ID] || seenContent[contentKey] {
			continue
		}
		seenID[c.ID] = true
		seenContent[contentKey] = true
		deduped = append(deduped, c)
	}
	return deduped
}
