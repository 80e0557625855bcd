package job

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/goto/batchboard/internal/errors"
)

const (
	EntityJob   = "job"
	EntityEvent = "event"

	MetricJobEventStateAdded        = "added"
	MetricJobEventStateUpdated      = "updated"
	MetricJobEventStateDeleted      = "deleted"
	MetricJobEventStateUpsertFailed = "upsert_failed"
	MetricJobEventStateDeleteFailed = "delete_failed"

	MetricRecomputeStateSucceeded = "succeeded"
	MetricRecomputeStateRejected  = "rejected"
	MetricRecomputeStateFailed    = "failed"
)

var EventMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "job_events_total",
}, []string{"event", "status"})

var OffsetRecomputeMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "job_offset_recompute_total",
}, []string{"status"})

var OffsetDriftMetric = promauto.NewCounter(prometheus.CounterOpts{
	Name: "job_offset_drift_total",
	Help: "Jobs whose persisted offset differed from the recomputed one",
})

type ID int64

func IDFrom(raw string) (ID, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.InvalidArgument(EntityJob, fmt.Sprintf("invalid job id [%s]", raw))
	}
	return ID(id), nil
}

func (i ID) String() string {
	return strconv.FormatInt(int64(i), 10)
}

type EventID int64

func EventIDFrom(raw string) (EventID, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.InvalidArgument(EntityEvent, fmt.Sprintf("invalid event id [%s]", raw))
	}
	return EventID(id), nil
}

func (e EventID) String() string {
	return strconv.FormatInt(int64(e), 10)
}

type Job struct {
	id      ID
	eventID EventID

	spec *Spec

	// offset is the expected elapsed seconds from event start to job start,
	// derived from the event's prerequisite graph
	offset float64
}

func NewJob(id ID, eventID EventID, spec *Spec, offset float64) *Job {
	return &Job{id: id, eventID: eventID, spec: spec, offset: offset}
}

func (j *Job) ID() ID {
	return j.id
}

func (j *Job) EventID() EventID {
	return j.eventID
}

func (j *Job) Spec() *Spec {
	return j.spec
}

func (j *Job) Offset() float64 {
	return j.offset
}

func (j *Job) AverageDuration() float64 {
	return j.spec.AverageDuration()
}

func (j *Job) Prerequisites() Prerequisites {
	return j.spec.Prerequisites()
}

func (j *Job) IsRoot() bool {
	return j.spec.Prerequisites().IsEmpty()
}

func (j *Job) WithOffset(offset float64) *Job {
	return &Job{id: j.id, eventID: j.eventID, spec: j.spec, offset: offset}
}

func (j *Job) WithPrerequisites(prerequisites Prerequisites) *Job {
	spec := *j.spec
	spec.prerequisites = prerequisites
	return &Job{id: j.id, eventID: j.eventID, spec: &spec, offset: j.offset}
}

type Jobs []*Job

func (j Jobs) IDs() []ID {
	ids := make([]ID, len(j))
	for i, jb := range j {
		ids[i] = jb.ID()
	}
	return ids
}

func (j Jobs) ToMap() map[ID]*Job {
	output := make(map[ID]*Job, len(j))
	for _, jb := range j {
		output[jb.ID()] = jb
	}
	return output
}

func (j Jobs) Get(id ID) (*Job, bool) {
	for _, jb := range j {
		if jb.ID() == id {
			return jb, true
		}
	}
	return nil, false
}
