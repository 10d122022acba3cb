// Package httpapi is the HTTP driving adapter that serves the REST API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/revtriage/revtriage/internal/adapter/driving/render"
	"github.com/revtriage/revtriage/internal/domain/model"
	"github.com/revtriage/revtriage/internal/domain/port/driven"
)

// Triager runs one triage pass over a pull request's review history.
// Satisfied by application.TriageService.
type Triager interface {
	TriagePR(ctx context.Context, repoFullName string, prNumber int) (model.ClassificationRun, error)
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	triager      Triager
	runStore     driven.RunStore
	botStore     driven.BotConfigStore
	runListLimit int
	logger       *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. runListLimit
// caps the number of runs returned by the list endpoint.
func NewHandler(
	triager Triager,
	runStore driven.RunStore,
	botStore driven.BotConfigStore,
	runListLimit int,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		triager:      triager,
		runStore:     runStore,
		botStore:     botStore,
		runListLimit: runListLimit,
		logger:       logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/triage", h.Triage)
	mux.HandleFunc("GET /api/v1/runs", h.ListRuns)
	mux.HandleFunc("GET /api/v1/runs/{id}", h.GetRun)
	mux.HandleFunc("GET /api/v1/bots", h.ListBots)
	mux.HandleFunc("POST /api/v1/bots", h.AddBot)
	mux.HandleFunc("DELETE /api/v1/bots/{username}", h.RemoveBot)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Triage classifies a pull request's review history and returns the persisted run.
func (h *Handler) Triage(w http.ResponseWriter, r *http.Request) {
	var req TriageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	repo := strings.TrimSpace(req.Repository)
	if repo == "" || !strings.Contains(repo, "/") {
		writeError(w, http.StatusBadRequest, "repository must be in owner/repo form")
		return
	}
	if req.PRNumber <= 0 {
		writeError(w, http.StatusBadRequest, "pr_number must be positive")
		return
	}

	run, err := h.triager.TriagePR(r.Context(), repo, req.PRNumber)
	if err != nil {
		h.logger.Error("triage failed", "repo", repo, "pr_number", req.PRNumber, "error", err)
		writeError(w, http.StatusBadGateway, "triage failed")
		return
	}

	writeJSON(w, http.StatusCreated, toRunResponse(run))
}

// ListRuns returns stored run summaries, most recent first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := h.runListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	runs, err := h.runStore.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, toRunResponse(run))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetRun returns a single run with its comments. The format query parameter
// selects the representation: json (default), markdown, html, or text.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	run, err := h.runStore.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, driven.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		h.logger.Error("failed to get run", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, toRunResponse(run))
	case "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(render.Markdown(run)))
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(render.HTML(run)))
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(render.Text(run)))
	default:
		writeError(w, http.StatusBadRequest, "unknown format")
	}
}

// ListBots returns all configured bot usernames.
func (h *Handler) ListBots(w http.ResponseWriter, r *http.Request) {
	bots, err := h.botStore.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list bots", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]BotConfigResponse, 0, len(bots))
	for _, bot := range bots {
		resp = append(resp, toBotConfigResponse(bot))
	}

	writeJSON(w, http.StatusOK, resp)
}

// AddBot adds a new bot username to the configuration.
func (h *Handler) AddBot(w http.ResponseWriter, r *http.Request) {
	var req AddBotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	saved, err := h.botStore.Add(r.Context(), model.BotConfig{
		Username: username,
		AddedAt:  time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, driven.ErrBotAlreadyExists) {
			writeError(w, http.StatusConflict, "bot username already exists")
			return
		}
		h.logger.Error("failed to add bot", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toBotConfigResponse(saved))
}

// RemoveBot removes a bot username from the configuration.
func (h *Handler) RemoveBot(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	if err := h.botStore.Remove(r.Context(), username); err != nil {
		if errors.Is(err, driven.ErrBotNotFound) {
			writeError(w, http.StatusNotFound, "bot not found")
			return
		}
		h.logger.Error("failed to remove bot", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
