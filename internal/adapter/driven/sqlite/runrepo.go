package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/revtriage/revtriage/internal/domain/model"
	"github.com/revtriage/revtriage/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RunStore = (*RunRepo)(nil)

// RunRepo is the SQLite implementation of the RunStore port interface.
type RunRepo struct {
	db *DB
}

// NewRunRepo creates a new RunRepo backed by the given DB.
func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// SaveRun persists a classification run and its comments in one transaction,
// returning the assigned run ID.
func (r *RunRepo) SaveRun(ctx context.Context, run model.ClassificationRun) (int64, error) {
	bySection, err := json.Marshal(run.Result.Parse.BySection)
	if err != nil {
		return 0, fmt.Errorf("marshal parse stats: %w", err)
	}

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin save run: %w", err)
	}
	defer tx.Rollback()

	const insertRun = `
		INSERT INTO runs (
			repo_full_name, pr_number, review_count,
			total_parsed, total_actionable_found, total_actionable_unresolved,
			total_nitpick, total_outside_diff,
			parse_by_section, reviews_parsed,
			resolution_evaluated, resolution_resolved, resolution_unresolved, resolution_markers,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res := run.Result
	result, err := tx.ExecContext(ctx, insertRun,
		run.RepoFullName, run.PRNumber, run.ReviewCount,
		res.TotalParsed, res.TotalActionableFound, res.TotalActionableUnresolved,
		res.TotalNitpick, res.TotalOutsideDiff,
		string(bySection), res.Parse.ReviewsParsed,
		res.Resolution.Evaluated, res.Resolution.Resolved, res.Resolution.Unresolved, res.Resolution.Markers,
		createdAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run for %s#%d: %w", run.RepoFullName, run.PRNumber, err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get run id: %w", err)
	}

	const insertActionable = `
		INSERT INTO actionable_comments (run_id, position, comment_id, file_path, line_range, description, priority, raw_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, c := range res.Actionable {
		if _, err := tx.ExecContext(ctx, insertActionable,
			runID, i, c.ID, c.FilePath, c.LineRange, c.Description, string(c.Priority), c.RawText,
		); err != nil {
			return 0, fmt.Errorf("insert actionable comment %d: %w", i, err)
		}
	}

	const insertNitpick = `
		INSERT INTO nitpick_comments (run_id, position, file_path, line_range, suggestion, raw_content)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for i, c := range res.Nitpicks {
		if _, err := tx.ExecContext(ctx, insertNitpick,
			runID, i, c.FilePath, c.LineRange, c.Suggestion, c.RawContent,
		); err != nil {
			return 0, fmt.Errorf("insert nitpick comment %d: %w", i, err)
		}
	}

	const insertOutsideDiff = `
		INSERT INTO outside_diff_comments (run_id, position, file_path, line_range, content, raw_content)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for i, c := range res.OutsideDiff {
		if _, err := tx.ExecContext(ctx, insertOutsideDiff,
			runID, i, c.FilePath, c.LineRange, c.Content, c.RawContent,
		); err != nil {
			return 0, fmt.Errorf("insert outside-diff comment %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit save run: %w", err)
	}

	return runID, nil
}

// GetRun loads a run with its comments. Returns driven.ErrRunNotFound if no
// such run exists.
func (r *RunRepo) GetRun(ctx context.Context, id int64) (model.ClassificationRun, error) {
	const query = `
		SELECT id, repo_full_name, pr_number, review_count,
			total_parsed, total_actionable_found, total_actionable_unresolved,
			total_nitpick, total_outside_diff,
			parse_by_section, reviews_parsed,
			resolution_evaluated, resolution_resolved, resolution_unresolved, resolution_markers,
			created_at
		FROM runs WHERE id = ?
	`

	run, err := r.scanRun(r.db.Reader.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ClassificationRun{}, driven.ErrRunNotFound
		}
		return model.ClassificationRun{}, fmt.Errorf("get run %d: %w", id, err)
	}

	if run.Result.Actionable, err = r.loadActionable(ctx, id); err != nil {
		return model.ClassificationRun{}, err
	}
	if run.Result.Nitpicks, err = r.loadNitpicks(ctx, id); err != nil {
		return model.ClassificationRun{}, err
	}
	if run.Result.OutsideDiff, err = r.loadOutsideDiff(ctx, id); err != nil {
		return model.ClassificationRun{}, err
	}

	return run, nil
}

// ListRuns returns run summaries without their comment lists, most recent first.
func (r *RunRepo) ListRuns(ctx context.Context, limit int) ([]model.ClassificationRun, error) {
	const query = `
		SELECT id, repo_full_name, pr_number, review_count,
			total_parsed, total_actionable_found, total_actionable_unresolved,
			total_nitpick, total_outside_diff,
			parse_by_section, reviews_parsed,
			resolution_evaluated, resolution_resolved, resolution_unresolved, resolution_markers,
			created_at
		FROM runs ORDER BY created_at DESC, id DESC LIMIT ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []model.ClassificationRun{}
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanRun.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *RunRepo) scanRun(row rowScanner) (model.ClassificationRun, error) {
	var (
		run       model.ClassificationRun
		bySection string
		createdAt string
	)

	err := row.Scan(
		&run.ID, &run.RepoFullName, &run.PRNumber, &run.ReviewCount,
		&run.Result.TotalParsed, &run.Result.TotalActionableFound, &run.Result.TotalActionableUnresolved,
		&run.Result.TotalNitpick, &run.Result.TotalOutsideDiff,
		&bySection, &run.Result.Parse.ReviewsParsed,
		&run.Result.Resolution.Evaluated, &run.Result.Resolution.Resolved,
		&run.Result.Resolution.Unresolved, &run.Result.Resolution.Markers,
		&createdAt,
	)
	if err != nil {
		return model.ClassificationRun{}, err
	}

	run.Result.Parse.BySection = map[model.SectionKind]int{}
	if err := json.Unmarshal([]byte(bySection), &run.Result.Parse.BySection); err != nil {
		return model.ClassificationRun{}, fmt.Errorf("unmarshal parse stats: %w", err)
	}

	run.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return model.ClassificationRun{}, fmt.Errorf("parse created_at: %w", err)
	}

	return run, nil
}

func (r *RunRepo) loadActionable(ctx context.Context, runID int64) ([]model.ActionableComment, error) {
	const query = `
		SELECT comment_id, file_path, line_range, description, priority, raw_text
		FROM actionable_comments WHERE run_id = ? ORDER BY position
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("load actionable comments for run %d: %w", runID, err)
	}
	defer rows.Close()

	comments := []model.ActionableComment{}
	for rows.Next() {
		var c model.ActionableComment
		var priority string
		if err := rows.Scan(&c.ID, &c.FilePath, &c.LineRange, &c.Description, &priority, &c.RawText); err != nil {
			return nil, fmt.Errorf("scan actionable comment: %w", err)
		}
		c.Priority = model.Priority(priority)
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actionable comments: %w", err)
	}

	return comments, nil
}

func (r *RunRepo) loadNitpicks(ctx context.Context, runID int64) ([]model.NitpickComment, error) {
	const query = `
		SELECT file_path, line_range, suggestion, raw_content
		FROM nitpick_comments WHERE run_id = ? ORDER BY position
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("load nitpick comments for run %d: %w", runID, err)
	}
	defer rows.Close()

	comments := []model.NitpickComment{}
	for rows.Next() {
		var c model.NitpickComment
		if err := rows.Scan(&c.FilePath, &c.LineRange, &c.Suggestion, &c.RawContent); err != nil {
			return nil, fmt.Errorf("scan nitpick comment: %w", err)
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nitpick comments: %w", err)
	}

	return comments, nil
}

func (r *RunRepo) loadOutsideDiff(ctx context.Context, runID int64) ([]model.OutsideDiffComment, error) {
	const query = `
		SELECT file_path, line_range, content, raw_content
		FROM outside_diff_comments WHERE run_id = ? ORDER BY position
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("load outside-diff comments for run %d: %w", runID, err)
	}
	defer rows.Close()

	comments := []model.OutsideDiffComment{}
	for rows.Next() {
		var c model.OutsideDiffComment
		if err := rows.Scan(&c.FilePath, &c.LineRange, &c.Content, &c.RawContent); err != nil {
			return nil, fmt.Errorf("scan outside-diff comment: %w", err)
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outside-diff comments: %w", err)
	}

	return comments, nil
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
