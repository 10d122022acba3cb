// Package render turns classification runs into markdown, sanitized HTML,
// and plain-text reports.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/revtriage/revtriage/internal/domain/model"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
}

// Markdown renders a classification run as a GFM report: a summary table of
// counts followed by one section per comment category, actionable comments
// grouped under their priority.
func Markdown(run model.ClassificationRun) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Review triage for %s#%d\n\n", run.RepoFullName, run.PRNumber)

	res := run.Result
	b.WriteString("| Metric | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| Reviews classified | %d |\n", run.ReviewCount)
	fmt.Fprintf(&b, "| Findings parsed | %d |\n", res.TotalParsed)
	fmt.Fprintf(&b, "| Actionable found | %d |\n", res.TotalActionableFound)
	fmt.Fprintf(&b, "| Actionable unresolved | %d |\n", res.TotalActionableUnresolved)
	fmt.Fprintf(&b, "| Nitpicks | %d |\n", res.TotalNitpick)
	fmt.Fprintf(&b, "| Outside diff range | %d |\n", res.TotalOutsideDiff)
	b.WriteString("\n")

	if len(res.Actionable) > 0 {
		b.WriteString("## Unresolved actionable comments\n")
		for _, priority := range []model.Priority{model.PriorityCritical, model.PriorityHigh, model.PriorityMedium} {
			writePriorityGroup(&b, res.Actionable, priority)
		}
	}

	if len(res.OutsideDiff) > 0 {
		b.WriteString("## Outside diff range\n\n")
		for _, c := range res.OutsideDiff {
			fmt.Fprintf(&b, "- `%s`: %s\n", location(c.FilePath, c.LineRange), firstLine(c.Content))
		}
		b.WriteString("\n")
	}

	if len(res.Nitpicks) > 0 {
		b.WriteString("## Nitpicks\n\n")
		for _, c := range res.Nitpicks {
			fmt.Fprintf(&b, "- `%s`: %s\n", location(c.FilePath, c.LineRange), firstLine(c.Suggestion))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// HTML renders a classification run as sanitized HTML via the markdown report.
func HTML(run model.ClassificationRun) string {
	var buf bytes.Buffer
	md := Markdown(run)
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return htmlSanitizer.Sanitize(md)
	}
	return htmlSanitizer.Sanitize(buf.String())
}

// Text renders a classification run as an indented plain-text report.
func Text(run model.ClassificationRun) string {
	var b strings.Builder

	res := run.Result
	fmt.Fprintf(&b, "Review triage for %s#%d\n", run.RepoFullName, run.PRNumber)
	fmt.Fprintf(&b, "  reviews classified:     %d\n", run.ReviewCount)
	fmt.Fprintf(&b, "  findings parsed:        %d\n", res.TotalParsed)
	fmt.Fprintf(&b, "  actionable found:       %d\n", res.TotalActionableFound)
	fmt.Fprintf(&b, "  actionable unresolved:  %d\n", res.TotalActionableUnresolved)
	fmt.Fprintf(&b, "  nitpicks:               %d\n", res.TotalNitpick)
	fmt.Fprintf(&b, "  outside diff range:     %d\n", res.TotalOutsideDiff)

	if len(res.Actionable) > 0 {
		b.WriteString("\nUnresolved actionable comments:\n")
		for _, c := range res.Actionable {
			fmt.Fprintf(&b, "  [%s] %s: %s\n", c.Priority, location(c.FilePath, c.LineRange), firstLine(c.Description))
		}
	}

	if len(res.OutsideDiff) > 0 {
		b.WriteString("\nOutside diff range:\n")
		for _, c := range res.OutsideDiff {
			fmt.Fprintf(&b, "  %s: %s\n", location(c.FilePath, c.LineRange), firstLine(c.Content))
		}
	}

	if len(res.Nitpicks) > 0 {
		b.WriteString("\nNitpicks:\n")
		for _, c := range res.Nitpicks {
			fmt.Fprintf(&b, "  %s: %s\n", location(c.FilePath, c.LineRange), firstLine(c.Suggestion))
		}
	}

	return b.String()
}

// writePriorityGroup writes one "### <priority>" block for the actionable
// comments matching the given priority. Writes nothing if none match.
func writePriorityGroup(b *strings.Builder, comments []model.ActionableComment, priority model.Priority) {
	var matched []model.ActionableComment
	for _, c := range comments {
		if c.Priority == priority {
			matched = append(matched, c)
		}
	}
	if len(matched) == 0 {
		return
	}

	fmt.Fprintf(b, "\n### %s\n\n", strings.ToUpper(string(priority)[:1])+string(priority)[1:])
	for _, c := range matched {
		fmt.Fprintf(b, "- `%s`: %s\n", location(c.FilePath, c.LineRange), firstLine(c.Description))
	}
	b.WriteString("\n")
}

// location formats a file path with its optional line range.
func location(filePath, lineRange string) string {
	if lineRange == "" {
		return filePath
	}
	return filePath + ":" + lineRange
}

// firstLine returns the first non-empty line of s, for one-line list entries.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
