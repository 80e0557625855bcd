package event

import (
	"encoding/json"
	"time"

	"github.com/goto/batchboard/core/job"
)

const (
	TypeJobCreate         = "JOB_CREATE"
	TypeJobUpdate         = "JOB_UPDATE"
	TypeJobDelete         = "JOB_DELETE"
	TypeOffsetsRecomputed = "OFFSETS_RECOMPUTED"
)

type JobCreated struct {
	Event

	job *job.Job
}

func NewJobCreatedEvent(j *job.Job) (*JobCreated, error) {
	baseEvent, err := NewBaseEvent()
	if err != nil {
		return nil, err
	}
	return &JobCreated{Event: baseEvent, job: j}, nil
}

func (j JobCreated) Bytes() ([]byte, error) {
	return jobEventToBytes(j.Event, TypeJobCreate, j.job.EventID(), jobPayloadFrom(j.job))
}

type JobUpdated struct {
	Event

	job *job.Job
}

func NewJobUpdatedEvent(j *job.Job) (*JobUpdated, error) {
	baseEvent, err := NewBaseEvent()
	if err != nil {
		return nil, err
	}
	return &JobUpdated{Event: baseEvent, job: j}, nil
}

func (j JobUpdated) Bytes() ([]byte, error) {
	return jobEventToBytes(j.Event, TypeJobUpdate, j.job.EventID(), jobPayloadFrom(j.job))
}

type JobDeleted struct {
	Event

	eventID job.EventID
	jobID   job.ID
}

func NewJobDeletedEvent(eventID job.EventID, jobID job.ID) (*JobDeleted, error) {
	baseEvent, err := NewBaseEvent()
	if err != nil {
		return nil, err
	}
	return &JobDeleted{Event: baseEvent, eventID: eventID, jobID: jobID}, nil
}

func (j JobDeleted) Bytes() ([]byte, error) {
	return jobEventToBytes(j.Event, TypeJobDelete, j.eventID, &jobPayload{ID: int64(j.jobID)})
}

// OffsetsRecomputed is raised whenever the offsets of an event are persisted,
// carrying the offset of every job in the event.
type OffsetsRecomputed struct {
	Event

	eventID job.EventID
	offsets map[job.ID]float64
}

func NewOffsetsRecomputedEvent(eventID job.EventID, offsets map[job.ID]float64) (*OffsetsRecomputed, error) {
	baseEvent, err := NewBaseEvent()
	if err != nil {
		return nil, err
	}
	return &OffsetsRecomputed{Event: baseEvent, eventID: eventID, offsets: offsets}, nil
}

func (o OffsetsRecomputed) Bytes() ([]byte, error) {
	offsets := make(map[string]float64, len(o.offsets))
	for id, offset := range o.offsets {
		offsets[id.String()] = offset
	}
	return json.Marshal(changeEvent{
		EventID:    o.ID.String(),
		OccurredAt: o.OccurredAt,
		EventType:  TypeOffsetsRecomputed,
		BatchEvent: int64(o.eventID),
		Offsets:    offsets,
	})
}

type changeEvent struct {
	EventID    string             `json:"event_id"`
	OccurredAt time.Time          `json:"occurred_at"`
	EventType  string             `json:"event_type"`
	BatchEvent int64              `json:"batch_event_id"`
	Job        *jobPayload        `json:"job,omitempty"`
	Offsets    map[string]float64 `json:"offsets,omitempty"`
}

type jobPayload struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name,omitempty"`
	Title           string  `json:"title,omitempty"`
	Description     string  `json:"description,omitempty"`
	ScheduleTime    int64   `json:"schedule_time,omitempty"`
	Frequency       string  `json:"frequency,omitempty"`
	AverageDuration float64 `json:"average_duration,omitempty"`
	MaxDuration     float64 `json:"max_duration,omitempty"`
	Prerequisites   []int64 `json:"prerequisites,omitempty"`
	Offset          float64 `json:"offset,omitempty"`
}

func jobPayloadFrom(j *job.Job) *jobPayload {
	spec := j.Spec()
	return &jobPayload{
		ID:              int64(j.ID()),
		Name:            spec.Name().String(),
		Title:           spec.Title(),
		Description:     spec.Description(),
		ScheduleTime:    spec.ScheduleTime(),
		Frequency:       spec.Frequency().String(),
		AverageDuration: spec.AverageDuration(),
		MaxDuration:     spec.MaxDuration(),
		Prerequisites:   spec.Prerequisites().Int64s(),
		Offset:          j.Offset(),
	}
}

func jobEventToBytes(event Event, eventType string, eventID job.EventID, payload *jobPayload) ([]byte, error) {
	return json.Marshal(changeEvent{
		EventID:    event.ID.String(),
		OccurredAt: event.OccurredAt,
		EventType:  eventType,
		BatchEvent: int64(eventID),
		Job:        payload,
	})
}
