package job

import (
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/goto/batchboard/core/job"
	"github.com/goto/batchboard/internal/errors"
)

const (
	jobColumnsToStore = `event_id, name, title, description, schedule_time, frequency, average_duration, max_duration, prerequisites, prerequisite_offset`
	jobColumns        = `id, ` + jobColumnsToStore + `, created_at, updated_at`

	eventColumns = `id, event_type, event_name, created_at, updated_at`
)

type Spec struct {
	ID      int64
	EventID int64

	Name        string
	Title       string
	Description string

	ScheduleTime    int64
	Frequency       string
	AverageDuration float64
	MaxDuration     float64

	Prerequisites pq.Int64Array
	Offset        float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s Spec) toJob() (*job.Job, error) {
	frequency, err := job.FrequencyFrom(s.Frequency)
	if err != nil {
		return nil, errors.Wrap(job.EntityJob, "stored frequency is invalid", err)
	}

	ids := make([]job.ID, len(s.Prerequisites))
	for i, id := range s.Prerequisites {
		ids[i] = job.ID(id)
	}
	prerequisites, err := job.NewPrerequisites(ids...)
	if err != nil {
		return nil, errors.Wrap(job.EntityJob, "stored prerequisites are invalid", err)
	}

	spec := job.NewSpecBuilder(job.Name(s.Name), s.AverageDuration, prerequisites).
		WithTitle(s.Title).
		WithDescription(s.Description).
		WithScheduleTime(s.ScheduleTime).
		WithFrequency(frequency).
		WithMaxDuration(s.MaxDuration).
		Restore()

	return job.NewJob(job.ID(s.ID), job.EventID(s.EventID), spec, s.Offset), nil
}

func scanJob(row pgx.Row) (*job.Job, error) {
	var s Spec
	err := row.Scan(&s.ID, &s.EventID, &s.Name, &s.Title, &s.Description, &s.ScheduleTime, &s.Frequency,
		&s.AverageDuration, &s.MaxDuration, &s.Prerequisites, &s.Offset, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s.toJob()
}

func scanJobs(rows pgx.Rows) (job.Jobs, error) {
	defer rows.Close()

	var jobs job.Jobs
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, errors.Wrap(job.EntityJob, "error scanning job", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(job.EntityJob, "error reading jobs", err)
	}
	return jobs, nil
}

type Event struct {
	ID        int64
	Type      string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func scanEvent(row pgx.Row) (*job.Event, error) {
	var e Event
	if err := row.Scan(&e.ID, &e.Type, &e.Name, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return job.NewEvent(job.EventID(e.ID), e.Type, e.Name)
}
