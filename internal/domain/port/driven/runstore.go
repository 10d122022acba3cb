package driven

import (
	"context"
	"errors"

	"github.com/revtriage/revtriage/internal/domain/model"
)

// ErrRunNotFound indicates the requested classification run does not exist.
var ErrRunNotFound = errors.New("classification run not found")

// RunStore defines the driven port for persisting classification runs and
// their classified comments.
type RunStore interface {
	// SaveRun persists a run together with its actionable, nitpick, and
	// outside-diff comments, returning the assigned run ID.
	SaveRun(ctx context.Context, run model.ClassificationRun) (int64, error)

	// GetRun loads a run with its comments. Returns ErrRunNotFound if no
	// such run exists.
	GetRun(ctx context.Context, id int64) (model.ClassificationRun, error)

	// ListRuns returns run summaries (comments not loaded), most recent first.
	ListRuns(ctx context.Context, limit int) ([]model.ClassificationRun, error)
}
