package job

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goto/batchboard/core/job"
	"github.com/goto/batchboard/internal/errors"
	"github.com/goto/batchboard/internal/store/postgres"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type JobRepository struct {
	db *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{db: pool}
}

func (j JobRepository) GetByID(ctx context.Context, id job.ID) (*job.Job, error) {
	getByID := `SELECT ` + jobColumns + ` FROM batch_job WHERE id = $1`

	found, err := scanJob(j.db.QueryRow(ctx, getByID, int64(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound(job.EntityJob, fmt.Sprintf("job %d not found", id))
		}
		return nil, errors.Wrap(job.EntityJob, "error getting job", err)
	}
	return found, nil
}

func (j JobRepository) GetAllByEvent(ctx context.Context, eventID job.EventID) (job.Jobs, error) {
	return getAllByEvent(ctx, j.db, eventID)
}

func (j JobRepository) ListEventIDs(ctx context.Context) ([]job.EventID, error) {
	rows, err := j.db.Query(ctx, `SELECT id FROM batch_event ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(job.EntityEvent, "error listing events", err)
	}
	defer rows.Close()

	var ids []job.EventID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(job.EntityEvent, "error scanning event id", err)
		}
		ids = append(ids, job.EventID(id))
	}
	return ids, rows.Err()
}

// WithinEvent locks the event row for the duration of one transaction, so
// mutations of the same event are applied one after another.
func (j JobRepository) WithinEvent(ctx context.Context, eventID job.EventID, fn func(job.EventScope) error) error {
	tx, err := j.db.Begin(ctx)
	if err != nil {
		return errors.InternalError(job.EntityEvent, "unable to begin transaction", err)
	}

	var locked int64
	err = tx.QueryRow(ctx, `SELECT id FROM batch_event WHERE id = $1 FOR UPDATE`, int64(eventID)).Scan(&locked)
	if err != nil {
		tx.Rollback(ctx)
		if errors.Is(err, pgx.ErrNoRows) {
			return errors.NotFound(job.EntityEvent, fmt.Sprintf("event %d not found", eventID))
		}
		return errors.Wrap(job.EntityEvent, "error locking event", err)
	}

	if err := fn(&eventScope{tx: tx, eventID: eventID}); err != nil {
		tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.InternalError(job.EntityEvent, "unable to commit transaction", err)
	}
	return nil
}

type eventScope struct {
	tx      querier
	eventID job.EventID
}

func (s *eventScope) Jobs(ctx context.Context) (job.Jobs, error) {
	return getAllByEvent(ctx, s.tx, s.eventID)
}

func (s *eventScope) Insert(ctx context.Context, spec *job.Spec) (*job.Job, error) {
	insertJob := `INSERT INTO batch_job (` + jobColumnsToStore + `, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, NOW(), NOW())
RETURNING ` + jobColumns

	inserted, err := scanJob(s.tx.QueryRow(ctx, insertJob, int64(s.eventID),
		spec.Name().String(), spec.Title(), spec.Description(), spec.ScheduleTime(), spec.Frequency().String(),
		spec.AverageDuration(), spec.MaxDuration(), spec.Prerequisites().Int64s(),
	))
	if err != nil {
		if postgres.ErrorCodeEqual(err, postgres.ErrPgCodeUniqueConstraints) {
			return nil, errors.AlreadyExists(job.EntityJob, fmt.Sprintf("job %s already exists in event %d", spec.Name(), s.eventID))
		}
		if postgres.ErrorCodeEqual(err, postgres.ErrPgCodeForeignKeyConstraints) {
			return nil, errors.NotFound(job.EntityEvent, fmt.Sprintf("event %d not found", s.eventID))
		}
		return nil, errors.Wrap(job.EntityJob, "error inserting job", err)
	}
	return inserted, nil
}

func (s *eventScope) Update(ctx context.Context, id job.ID, spec *job.Spec) (*job.Job, error) {
	updateJob := `UPDATE batch_job SET
	name = $1, title = $2, description = $3, schedule_time = $4, frequency = $5,
	average_duration = $6, max_duration = $7, prerequisites = $8, updated_at = NOW()
WHERE id = $9 AND event_id = $10
RETURNING ` + jobColumns

	updated, err := scanJob(s.tx.QueryRow(ctx, updateJob,
		spec.Name().String(), spec.Title(), spec.Description(), spec.ScheduleTime(), spec.Frequency().String(),
		spec.AverageDuration(), spec.MaxDuration(), spec.Prerequisites().Int64s(), int64(id), int64(s.eventID),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound(job.EntityJob, fmt.Sprintf("job %d not found in event %d", id, s.eventID))
		}
		if postgres.ErrorCodeEqual(err, postgres.ErrPgCodeUniqueConstraints) {
			return nil, errors.AlreadyExists(job.EntityJob, fmt.Sprintf("job %s already exists in event %d", spec.Name(), s.eventID))
		}
		return nil, errors.Wrap(job.EntityJob, "error updating job", err)
	}
	return updated, nil
}

func (s *eventScope) Delete(ctx context.Context, id job.ID) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM batch_job WHERE id = $1 AND event_id = $2`, int64(id), int64(s.eventID))
	if err != nil {
		return errors.Wrap(job.EntityJob, "error deleting job", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound(job.EntityJob, fmt.Sprintf("job %d not found in event %d", id, s.eventID))
	}
	return nil
}

func (s *eventScope) SavePlan(ctx context.Context, jobs job.Jobs) error {
	savePlan := `UPDATE batch_job SET prerequisites = $1, prerequisite_offset = $2, updated_at = NOW()
WHERE id = $3 AND event_id = $4`

	for _, j := range jobs {
		tag, err := s.tx.Exec(ctx, savePlan, j.Prerequisites().Int64s(), j.Offset(), int64(j.ID()), int64(s.eventID))
		if err != nil {
			return errors.Wrap(job.EntityJob, fmt.Sprintf("error saving offset of job %d", j.ID()), err)
		}
		if tag.RowsAffected() == 0 {
			return errors.NotFound(job.EntityJob, fmt.Sprintf("job %d not found in event %d", j.ID(), s.eventID))
		}
	}
	return nil
}

func getAllByEvent(ctx context.Context, db querier, eventID job.EventID) (job.Jobs, error) {
	getAll := `SELECT ` + jobColumns + ` FROM batch_job WHERE event_id = $1 ORDER BY id`

	rows, err := db.Query(ctx, getAll, int64(eventID))
	if err != nil {
		return nil, errors.Wrap(job.EntityJob, "error getting jobs of event", err)
	}
	return scanJobs(rows)
}
