package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revtriage/revtriage/internal/domain/model"
	"github.com/revtriage/revtriage/internal/domain/port/driven"
)

// sampleRun builds a fully populated classification run for persistence tests.
func sampleRun() model.ClassificationRun {
	return model.ClassificationRun{
		RepoFullName: "acme/widgets",
		PRNumber:     42,
		ReviewCount:  3,
		Result: model.ClassificationResult{
			Actionable: []model.ActionableComment{
				{
					ID:          "internal/server.go:10-20",
					FilePath:    "internal/server.go",
					LineRange:   "10-20",
					Description: "Possible nil pointer dereference",
					Priority:    model.PriorityHigh,
					RawText:     "`10-20`: **Possible nil pointer dereference**\n\nGuard the lookup.",
				},
				{
					ID:          "internal/auth.go:5",
					FilePath:    "internal/auth.go",
					LineRange:   "5",
					Description: "Hardcoded credential",
					Priority:    model.PriorityCritical,
					RawText:     "`5`: **Hardcoded credential**",
				},
			},
			Nitpicks: []model.NitpickComment{
				{
					FilePath:   "main.go",
					LineRange:  "3",
					Suggestion: "Rename for clarity",
					RawContent: "`3`: **Rename for clarity**",
				},
			},
			OutsideDiff: []model.OutsideDiffComment{
				{
					FilePath:   "config.go",
					LineRange:  "99",
					Content:    "Stale default value",
					RawContent: "`99`: **Stale default value**",
				},
			},
			TotalParsed:               4,
			TotalActionableFound:      3,
			TotalActionableUnresolved: 2,
			TotalNitpick:              1,
			TotalOutsideDiff:          1,
			Parse: model.ParseStats{
				BySection: map[model.SectionKind]int{
					model.SectionActionable: 3,
					model.SectionNitpick:    1,
				},
				ReviewsParsed: 3,
			},
			Resolution: model.ResolutionStats{
				Evaluated:  3,
				Resolved:   1,
				Unresolved: 2,
				Markers:    2,
			},
		},
		CreatedAt: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRunRepo_SaveAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRunRepo(db)
	ctx := context.Background()

	id, err := repo.SaveRun(ctx, sampleRun())
	require.NoError(t, err)
	assert.NotZero(t, id)

	got, err := repo.GetRun(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, id, got.ID)
	assert.Equal(t, "acme/widgets", got.RepoFullName)
	assert.Equal(t, 42, got.PRNumber)
	assert.Equal(t, 3, got.ReviewCount)
	assert.Equal(t, 4, got.Result.TotalParsed)
	assert.Equal(t, 3, got.Result.TotalActionableFound)
	assert.Equal(t, 2, got.Result.TotalActionableUnresolved)
	assert.Equal(t, 3, got.Result.Parse.BySection[model.SectionActionable])
	assert.Equal(t, 3, got.Result.Parse.ReviewsParsed)
	assert.Equal(t, 1, got.Result.Resolution.Resolved)
	assert.False(t, got.CreatedAt.IsZero())

	require.Len(t, got.Result.Actionable, 2)
	assert.Equal(t, "internal/server.go:10-20", got.Result.Actionable[0].ID)
	assert.Equal(t, model.PriorityHigh, got.Result.Actionable[0].Priority)
	assert.Equal(t, model.PriorityCritical, got.Result.Actionable[1].Priority)

	require.Len(t, got.Result.Nitpicks, 1)
	assert.Equal(t, "Rename for clarity", got.Result.Nitpicks[0].Suggestion)

	require.Len(t, got.Result.OutsideDiff, 1)
	assert.Equal(t, "Stale default value", got.Result.OutsideDiff[0].Content)
}

func TestRunRepo_SavePreservesCommentOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRunRepo(db)
	ctx := context.Background()

	run := sampleRun()
	id, err := repo.SaveRun(ctx, run)
	require.NoError(t, err)

	got, err := repo.GetRun(ctx, id)
	require.NoError(t, err)

	require.Len(t, got.Result.Actionable, 2)
	assert.Equal(t, run.Result.Actionable[0].ID, got.Result.Actionable[0].ID)
	assert.Equal(t, run.Result.Actionable[1].ID, got.Result.Actionable[1].ID)
}

func TestRunRepo_GetNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRunRepo(db)

	_, err := repo.GetRun(context.Background(), 999)
	require.Error(t, err)
	assert.ErrorIs(t, err, driven.ErrRunNotFound)
}

func TestRunRepo_ListRuns(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRunRepo(db)
	ctx := context.Background()

	first := sampleRun()
	first.CreatedAt = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	second := sampleRun()
	second.PRNumber = 43
	second.CreatedAt = time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)

	_, err := repo.SaveRun(ctx, first)
	require.NoError(t, err)
	_, err = repo.SaveRun(ctx, second)
	require.NoError(t, err)

	runs, err := repo.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Most recent first; summaries carry counts but not comment lists.
	assert.Equal(t, 43, runs[0].PRNumber)
	assert.Equal(t, 42, runs[1].PRNumber)
	assert.Empty(t, runs[0].Result.Actionable)
	assert.Equal(t, 2, runs[0].Result.TotalActionableUnresolved)
}

func TestRunRepo_ListRuns_Limit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRunRepo(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run := sampleRun()
		run.PRNumber = 100 + i
		run.CreatedAt = time.Date(2026, 2, 1, 12, i, 0, 0, time.UTC)
		_, err := repo.SaveRun(ctx, run)
		require.NoError(t, err)
	}

	runs, err := repo.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 102, runs[0].PRNumber)
	assert.Equal(t, 101, runs[1].PRNumber)
}

func TestRunRepo_SaveEmptyResult(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRunRepo(db)
	ctx := context.Background()

	run := model.ClassificationRun{
		RepoFullName: "acme/widgets",
		PRNumber:     7,
		Result:       model.EmptyClassificationResult(),
	}

	id, err := repo.SaveRun(ctx, run)
	require.NoError(t, err)

	got, err := repo.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, got.Result.Actionable)
	assert.Empty(t, got.Result.Nitpicks)
	assert.Empty(t, got.Result.OutsideDiff)
	assert.False(t, got.CreatedAt.IsZero(), "zero CreatedAt should be replaced at insert time")
}
