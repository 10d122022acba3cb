// Package application contains the classification engine and its use-case
// orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/revtriage/revtriage/internal/domain/model"
	"github.com/revtriage/revtriage/internal/domain/port/driven"
)

// defaultBotUsername is used when neither the store nor the configuration
// names any review bot.
const defaultBotUsername = "coderabbitai[bot]"

// TriageService orchestrates one triage pass: fetch the chronological review
// history of a PR, classify it, and persist the run.
type TriageService struct {
	source     driven.ReviewSource
	runStore   driven.RunStore
	botStore   driven.BotConfigStore
	classifier *ClassificationService
	configBots []string // Fallback bot usernames from configuration.
	logger     *slog.Logger
}

// NewTriageService creates a TriageService with all required dependencies.
// configBots is the fallback list of bot usernames used when the bot config
// store has none.
func NewTriageService(
	source driven.ReviewSource,
	runStore driven.RunStore,
	botStore driven.BotConfigStore,
	classifier *ClassificationService,
	configBots []string,
) *TriageService {
	return &TriageService{
		source:     source,
		runStore:   runStore,
		botStore:   botStore,
		classifier: classifier,
		configBots: configBots,
		logger:     slog.Default(),
	}
}

// TriagePR classifies the review history of one pull request and persists the
// result as a new run. Classification itself cannot fail; only fetching and
// persistence can.
func (s *TriageService) TriagePR(ctx context.Context, repoFullName string, prNumber int) (model.ClassificationRun, error) {
	bots := s.botUsernames(ctx)

	bodies, err := s.source.FetchReviewBodies(ctx, repoFullName, prNumber, bots)
	if err != nil {
		return model.ClassificationRun{}, fmt.Errorf("fetch review bodies for %s#%d: %w", repoFullName, prNumber, err)
	}

	result := s.classifier.Classify(bodies)
	s.logger.Info("classified pull request",
		"repo", repoFullName,
		"pr_number", prNumber,
		"reviews", len(bodies),
		"actionable_found", result.TotalActionableFound,
		"actionable_unresolved", result.TotalActionableUnresolved,
		"nitpicks", result.TotalNitpick,
		"outside_diff", result.TotalOutsideDiff,
	)

	run := model.ClassificationRun{
		RepoFullName: repoFullName,
		PRNumber:     prNumber,
		ReviewCount:  len(bodies),
		Result:       result,
		CreatedAt:    time.Now().UTC(),
	}

	id, err := s.runStore.SaveRun(ctx, run)
	if err != nil {
		return model.ClassificationRun{}, fmt.Errorf("save run for %s#%d: %w", repoFullName, prNumber, err)
	}
	run.ID = id

	return run, nil
}

// botUsernames resolves the bot list: stored configuration first, then the
// configured fallback, then the built-in default. Store errors degrade to the
// fallback rather than failing the triage.
func (s *TriageService) botUsernames(ctx context.Context) []string {
	stored, err := s.botStore.GetUsernames(ctx)
	if err != nil {
		s.logger.Warn("failed to load bot usernames, using configured fallback", "error", err)
	}
	if len(stored) > 0 {
		return stored
	}
	if len(s.configBots) > 0 {
		return s.configBots
	}
	return []string{defaultBotUsername}
}
