package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/revtriage/revtriage/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// TriageRequest is the JSON body for the triage endpoint.
type TriageRequest struct {
	Repository string `json:"repository"`
	PRNumber   int    `json:"pr_number"`
}

// RunResponse is the JSON representation of a classification run. Comment
// lists are populated only on the single-run endpoint.
type RunResponse struct {
	ID          int64  `json:"id"`
	Repository  string `json:"repository"`
	PRNumber    int    `json:"pr_number"`
	ReviewCount int    `json:"review_count"`
	CreatedAt   string `json:"created_at"`

	TotalParsed               int `json:"total_parsed"`
	TotalActionableFound      int `json:"total_actionable_found"`
	TotalActionableUnresolved int `json:"total_actionable_unresolved"`
	TotalNitpick              int `json:"total_nitpick"`
	TotalOutsideDiff          int `json:"total_outside_diff"`

	Resolution ResolutionStatsResponse `json:"resolution"`

	Actionable  []ActionableResponse  `json:"actionable"`
	Nitpicks    []NitpickResponse     `json:"nitpicks"`
	OutsideDiff []OutsideDiffResponse `json:"outside_diff"`
}

// ResolutionStatsResponse summarizes the resolution detection phase of a run.
type ResolutionStatsResponse struct {
	Evaluated  int `json:"evaluated"`
	Resolved   int `json:"resolved"`
	Unresolved int `json:"unresolved"`
	Markers    int `json:"markers"`
}

// ActionableResponse is the JSON representation of an unresolved actionable comment.
type ActionableResponse struct {
	ID          string `json:"id"`
	FilePath    string `json:"file_path"`
	LineRange   string `json:"line_range"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	RawText     string `json:"raw_text"`
}

// NitpickResponse is the JSON representation of a nitpick comment.
type NitpickResponse struct {
	FilePath   string `json:"file_path"`
	LineRange  string `json:"line_range"`
	Suggestion string `json:"suggestion"`
	RawContent string `json:"raw_content"`
}

// OutsideDiffResponse is the JSON representation of an outside-diff-range comment.
type OutsideDiffResponse struct {
	FilePath   string `json:"file_path"`
	LineRange  string `json:"line_range"`
	Content    string `json:"content"`
	RawContent string `json:"raw_content"`
}

// BotConfigResponse is the JSON representation of a bot configuration entry.
type BotConfigResponse struct {
	Username string `json:"username"`
	AddedAt  string `json:"added_at"`
}

// AddBotRequest is the JSON body for the add bot endpoint.
type AddBotRequest struct {
	Username string `json:"username"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toRunResponse converts a domain ClassificationRun to its JSON representation.
func toRunResponse(run model.ClassificationRun) RunResponse {
	res := run.Result

	actionable := make([]ActionableResponse, 0, len(res.Actionable))
	for _, c := range res.Actionable {
		actionable = append(actionable, ActionableResponse{
			ID:          c.ID,
			FilePath:    c.FilePath,
			LineRange:   c.LineRange,
			Description: c.Description,
			Priority:    string(c.Priority),
			RawText:     c.RawText,
		})
	}

	nitpicks := make([]NitpickResponse, 0, len(res.Nitpicks))
	for _, c := range res.Nitpicks {
		nitpicks = append(nitpicks, NitpickResponse{
			FilePath:   c.FilePath,
			LineRange:  c.LineRange,
			Suggestion: c.Suggestion,
			RawContent: c.RawContent,
		})
	}

	outsideDiff := make([]OutsideDiffResponse, 0, len(res.OutsideDiff))
	for _, c := range res.OutsideDiff {
		outsideDiff = append(outsideDiff, OutsideDiffResponse{
			FilePath:   c.FilePath,
			LineRange:  c.LineRange,
			Content:    c.Content,
			RawContent: c.RawContent,
		})
	}

	return RunResponse{
		ID:          run.ID,
		Repository:  run.RepoFullName,
		PRNumber:    run.PRNumber,
		ReviewCount: run.ReviewCount,
		CreatedAt:   run.CreatedAt.UTC().Format(time.RFC3339),

		TotalParsed:               res.TotalParsed,
		TotalActionableFound:      res.TotalActionableFound,
		TotalActionableUnresolved: res.TotalActionableUnresolved,
		TotalNitpick:              res.TotalNitpick,
		TotalOutsideDiff:          res.TotalOutsideDiff,

		Resolution: ResolutionStatsResponse{
			Evaluated:  res.Resolution.Evaluated,
			Resolved:   res.Resolution.Resolved,
			Unresolved: res.Resolution.Unresolved,
			Markers:    res.Resolution.Markers,
		},

		Actionable:  actionable,
		Nitpicks:    nitpicks,
		OutsideDiff: outsideDiff,
	}
}

// toBotConfigResponse converts a domain BotConfig to its JSON representation.
func toBotConfigResponse(bot model.BotConfig) BotConfigResponse {
	return BotConfigResponse{
		Username: bot.Username,
		AddedAt:  bot.AddedAt.UTC().Format(time.RFC3339),
	}
}
