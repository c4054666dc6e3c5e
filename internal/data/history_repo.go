package data

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ragforge/console/internal/data/pgxutil"
	"github.com/ragforge/console/internal/domain/model"
	apperrors "github.com/ragforge/console/internal/errors"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// JobRunRepo persists terminal job snapshots for the dashboard's recent-runs
// and benchmark-comparison panels.
type JobRunRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewJobRunRepo creates a new JobRunRepo.
func NewJobRunRepo(db *sql.DB) *JobRunRepo {
	return &JobRunRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// NewJobRunRepoWithTimeProvider creates a JobRunRepo with a custom time provider.
func NewJobRunRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *JobRunRepo {
	return &JobRunRepo{
		DB:           db,
		timeProvider: tp,
	}
}

const jobRunColumns = `id, job_id, kind, status, stage, done, total, pct, message, error, started_at, finished_at`

// Insert records a finished run. job_id is unique: recording the same run
// twice (e.g. a watch restarted across a console redeploy) keeps the first
// row and returns it rather than failing.
func (r *JobRunRepo) Insert(ctx context.Context, run *model.JobRun) (*model.JobRun, error) {
	if run == nil {
		return nil, errors.New("job run is required")
	}
	if run.JobID == "" {
		return nil, apperrors.Validation("job run requires a job id")
	}
	if !run.Kind.Valid() {
		return nil, apperrors.Validationf("invalid job kind %q", run.Kind)
	}
	if !run.Status.Terminal() {
		return nil, apperrors.Validationf("job run status %q is not terminal", run.Status)
	}

	id := run.ID
	if id == "" {
		id = uuid.NewString()
	}
	finishedAt := run.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = r.timeProvider.Now()
	}
	startedAt := run.StartedAt
	if startedAt.IsZero() {
		startedAt = finishedAt
	}

	var out model.JobRun
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO job_runs (`+jobRunColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (job_id) DO NOTHING
			RETURNING `+jobRunColumns,
			id, run.JobID, run.Kind, run.Status, run.Stage,
			run.Done, run.Total, run.Pct, run.Message, run.Error,
			startedAt, finishedAt)
		if err != nil {
			return err
		}
		defer rows.Close()

		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.JobRun])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		// Conflict path: the run was already recorded.
		return r.GetByJobID(ctx, run.JobID)
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByJobID retrieves the recorded run for a backend job id.
func (r *JobRunRepo) GetByJobID(ctx context.Context, jobID string) (*model.JobRun, error) {
	if jobID == "" {
		return nil, apperrors.Validation("job id is required")
	}

	var run model.JobRun
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+jobRunColumns+`
			FROM job_runs
			WHERE job_id = $1`, jobID)
		if err != nil {
			return err
		}
		defer rows.Close()

		run, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.JobRun])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &run, nil
}

// RecentRunsOptions controls filtering for Recent. A nil Kind returns runs of
// every kind.
type RecentRunsOptions struct {
	Kind  *model.JobKind
	Limit int
}

// Recent lists finished runs, newest first.
func (r *JobRunRepo) Recent(ctx context.Context, opts RecentRunsOptions) ([]model.JobRun, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	query := `
		SELECT ` + jobRunColumns + `
		FROM job_runs`
	args := []any{}
	if opts.Kind != nil {
		if !opts.Kind.Valid() {
			return nil, apperrors.Validationf("invalid job kind %q", *opts.Kind)
		}
		query += ` WHERE kind = $1`
		args = append(args, *opts.Kind)
	}
	query += ` ORDER BY finished_at DESC, id DESC`
	if opts.Kind != nil {
		query += ` LIMIT $2`
	} else {
		query += ` LIMIT $1`
	}
	args = append(args, limit)

	var runs []model.JobRun
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		runs, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.JobRun])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return runs, nil
}

// Prune deletes runs that finished before the cutoff and returns how many
// rows were removed.
func (r *JobRunRepo) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, apperrors.Validation("retention must be positive")
	}
	cutoff := r.timeProvider.Now().Add(-retention)

	var removed int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM job_runs WHERE finished_at < $1`, cutoff)
		if err != nil {
			return err
		}
		removed = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return removed, nil
}
