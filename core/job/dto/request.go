package dto

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goto/batchboard/core/job"
	"github.com/goto/batchboard/internal/errors"
)

const DefaultFrequency = "1,2,3,4,5,6,7"

type EventRequest struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

func (r EventRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 128)),
	)
	if err != nil {
		return errors.InvalidArgument(job.EntityEvent, err.Error())
	}
	return nil
}

// JobRequest is the wire form of a job. Prerequisites use the comma separated
// form where "0" marks a job without prerequisites.
type JobRequest struct {
	EventID       int64    `json:"eventID"`
	Name          string   `json:"name"`
	Title         string   `json:"title"`
	Description   string   `json:"desc"`
	ScheduledTime int64    `json:"scheduledTime"`
	AvgTime       *float64 `json:"avgTime"`
	MaxTime       float64  `json:"maxTime"`
	Frequency     string   `json:"frequency"`
	Prerequisites string   `json:"prereq"`
}

func (r JobRequest) Validate(requireEvent bool) error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.EventID, validation.When(requireEvent, validation.Required), validation.Min(int64(0))),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.AvgTime, validation.NotNil),
		validation.Field(&r.MaxTime, validation.Min(0.0)),
		validation.Field(&r.ScheduledTime, validation.Min(int64(0))),
	)
	if err != nil {
		return errors.InvalidArgument(job.EntityJob, err.Error())
	}
	return nil
}

func (r JobRequest) ToSpec() (*job.Spec, error) {
	name, err := job.NameFrom(r.Name)
	if err != nil {
		return nil, err
	}

	prerequisites, err := job.PrerequisitesFrom(r.Prerequisites)
	if err != nil {
		return nil, err
	}

	rawFrequency := r.Frequency
	if rawFrequency == "" {
		rawFrequency = DefaultFrequency
	}
	frequency, err := job.FrequencyFrom(rawFrequency)
	if err != nil {
		return nil, err
	}

	var avgTime float64
	if r.AvgTime != nil {
		avgTime = *r.AvgTime
	}

	return job.NewSpecBuilder(name, avgTime, prerequisites).
		WithTitle(r.Title).
		WithDescription(r.Description).
		WithScheduleTime(r.ScheduledTime).
		WithFrequency(frequency).
		WithMaxDuration(r.MaxTime).
		Build()
}

// JobResponse mirrors JobRequest with the identifiers and the derived offset.
type JobResponse struct {
	ID            int64   `json:"jobID"`
	Name          string  `json:"name"`
	Title         string  `json:"title"`
	Description   string  `json:"desc"`
	ScheduledTime int64   `json:"scheduledTime"`
	AvgTime       float64 `json:"avgTime"`
	MaxTime       float64 `json:"maxTime"`
	Frequency     string  `json:"frequency"`
	Prerequisites string  `json:"prereq"`
	Offset        float64 `json:"prereq_offset"`
}

func FromJob(j *job.Job) JobResponse {
	spec := j.Spec()
	return JobResponse{
		ID:            int64(j.ID()),
		Name:          spec.Name().String(),
		Title:         spec.Title(),
		Description:   spec.Description(),
		ScheduledTime: spec.ScheduleTime(),
		AvgTime:       spec.AverageDuration(),
		MaxTime:       spec.MaxDuration(),
		Frequency:     spec.Frequency().String(),
		Prerequisites: spec.Prerequisites().String(),
		Offset:        j.Offset(),
	}
}

type EventResponse struct {
	ID   int64         `json:"eventID"`
	Type string        `json:"type"`
	Name string        `json:"name"`
	Jobs []JobResponse `json:"jobs"`
}

func FromEventWithJobs(e *job.EventWithJobs) EventResponse {
	jobs := make([]JobResponse, len(e.Jobs))
	for i, j := range e.Jobs {
		jobs[i] = FromJob(j)
	}
	return EventResponse{
		ID:   int64(e.Event.ID()),
		Type: e.Event.Type(),
		Name: e.Event.Name(),
		Jobs: jobs,
	}
}

type PlannedJob struct {
	JobResponse
	Finish float64 `json:"finish"`
}
