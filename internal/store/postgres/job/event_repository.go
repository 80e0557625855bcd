package job

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goto/batchboard/core/job"
	"github.com/goto/batchboard/internal/errors"
	"github.com/goto/batchboard/internal/store/postgres"
)

type EventRepository struct {
	db *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: pool}
}

func (e EventRepository) Create(ctx context.Context, event *job.Event) (*job.Event, error) {
	insertEvent := `INSERT INTO batch_event (event_type, event_name, created_at, updated_at)
VALUES ($1, $2, NOW(), NOW())
RETURNING ` + eventColumns

	created, err := scanEvent(e.db.QueryRow(ctx, insertEvent, event.Type(), event.Name()))
	if err != nil {
		if postgres.ErrorCodeEqual(err, postgres.ErrPgCodeUniqueConstraints) {
			return nil, errors.AlreadyExists(job.EntityEvent, fmt.Sprintf("event %s %s already exists", event.Type(), event.Name()))
		}
		return nil, errors.Wrap(job.EntityEvent, "error inserting event", err)
	}
	return created, nil
}

func (e EventRepository) Update(ctx context.Context, event *job.Event) error {
	updateEvent := `UPDATE batch_event SET event_type = $1, event_name = $2, updated_at = NOW() WHERE id = $3`

	tag, err := e.db.Exec(ctx, updateEvent, event.Type(), event.Name(), int64(event.ID()))
	if err != nil {
		if postgres.ErrorCodeEqual(err, postgres.ErrPgCodeUniqueConstraints) {
			return errors.AlreadyExists(job.EntityEvent, fmt.Sprintf("event %s %s already exists", event.Type(), event.Name()))
		}
		return errors.Wrap(job.EntityEvent, "error updating event", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound(job.EntityEvent, fmt.Sprintf("event %d not found", event.ID()))
	}
	return nil
}

// Delete removes the event, its jobs go with it through the foreign key.
func (e EventRepository) Delete(ctx context.Context, id job.EventID) error {
	tag, err := e.db.Exec(ctx, `DELETE FROM batch_event WHERE id = $1`, int64(id))
	if err != nil {
		return errors.Wrap(job.EntityEvent, "error deleting event", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound(job.EntityEvent, fmt.Sprintf("event %d not found", id))
	}
	return nil
}

func (e EventRepository) GetByID(ctx context.Context, id job.EventID) (*job.Event, error) {
	found, err := scanEvent(e.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM batch_event WHERE id = $1`, int64(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound(job.EntityEvent, fmt.Sprintf("event %d not found", id))
		}
		return nil, errors.Wrap(job.EntityEvent, "error getting event", err)
	}
	return found, nil
}

func (e EventRepository) GetAll(ctx context.Context) ([]*job.Event, error) {
	rows, err := e.db.Query(ctx, `SELECT `+eventColumns+` FROM batch_event ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(job.EntityEvent, "error listing events", err)
	}
	defer rows.Close()

	var events []*job.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, errors.Wrap(job.EntityEvent, "error scanning event", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
