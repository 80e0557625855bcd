package service

import (
	"context"

	"github.com/goto/salt/log"

	"github.com/goto/batchboard/core/event"
	"github.com/goto/batchboard/core/event/moderator"
	"github.com/goto/batchboard/core/job"
	"github.com/goto/batchboard/core/job/planner"
	"github.com/goto/batchboard/internal/errors"
)

const (
	MsgDanglingPrerequisite = "some of the prerequisite jobs did not exist"
	MsgPrerequisiteLoop     = "prerequisite jobs will cause a loop"
	MsgInvalidDuration      = "average duration must be a non-negative number"
)

type JobService struct {
	jobRepo      JobRepository
	eventHandler EventHandler

	logger log.Logger
}

func NewJobService(jobRepo JobRepository, eventHandler EventHandler, logger log.Logger) *JobService {
	return &JobService{
		jobRepo:      jobRepo,
		eventHandler: eventHandler,
		logger:       logger,
	}
}

type JobRepository interface {
	GetByID(ctx context.Context, id job.ID) (*job.Job, error)
	GetAllByEvent(ctx context.Context, eventID job.EventID) (job.Jobs, error)
	ListEventIDs(ctx context.Context) ([]job.EventID, error)

	// WithinEvent runs fn with exclusive access to the jobs of eventID. Writes
	// made through the scope are discarded when fn returns an error.
	WithinEvent(ctx context.Context, eventID job.EventID, fn func(job.EventScope) error) error
}

type EventHandler interface {
	HandleEvent(moderator.Event)
}

// EventPlan is the planned state of one event.
type EventPlan struct {
	EventID job.EventID
	Jobs    job.Jobs
	Graph   *planner.Graph
	Result  *planner.Result

	// Drifted lists jobs whose offset before planning differs from the
	// resolved one.
	Drifted []job.ID
}

// Span is the latest finish across the jobs of the event.
func (p *EventPlan) Span() float64 {
	var span float64
	if p.Result == nil {
		return span
	}
	for _, id := range p.Result.Order {
		span = max(span, p.Finish(id))
	}
	return span
}

func (p *EventPlan) Finish(id job.ID) float64 {
	return p.Result.Finish(p.Graph, id)
}

func (j *JobService) Create(ctx context.Context, eventID job.EventID, spec *job.Spec) (*job.Job, error) {
	var created *job.Job
	var plan *EventPlan
	err := j.jobRepo.WithinEvent(ctx, eventID, func(scope job.EventScope) error {
		inserted, err := scope.Insert(ctx, spec)
		if err != nil {
			return err
		}

		plan, err = planAndSave(ctx, scope, eventID, nil)
		if err != nil {
			return err
		}
		created, _ = plan.Jobs.Get(inserted.ID())
		return nil
	})
	if err != nil {
		raiseJobEventMetric(eventID, job.MetricJobEventStateUpsertFailed, 1)
		j.logger.Error("error creating job", "event", eventID, "name", spec.Name(), "err", err)
		return nil, ToDomainError(err)
	}

	j.logger.Info("job created", "event", eventID, "job", created.ID(), "offset", created.Offset())
	raiseJobEventMetric(eventID, job.MetricJobEventStateAdded, 1)
	j.raiseCreateEvent(created)
	j.raiseRecomputedEvent(plan)
	return created, nil
}

func (j *JobService) Update(ctx context.Context, id job.ID, spec *job.Spec) (*job.Job, error) {
	existing, err := j.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	eventID := existing.EventID()

	var updated *job.Job
	var plan *EventPlan
	err = j.jobRepo.WithinEvent(ctx, eventID, func(scope job.EventScope) error {
		if _, err := scope.Update(ctx, id, spec); err != nil {
			return err
		}

		plan, err = planAndSave(ctx, scope, eventID, nil)
		if err != nil {
			return err
		}
		updated, _ = plan.Jobs.Get(id)
		return nil
	})
	if err != nil {
		raiseJobEventMetric(eventID, job.MetricJobEventStateUpsertFailed, 1)
		j.logger.Error("error updating job", "event", eventID, "job", id, "err", err)
		return nil, ToDomainError(err)
	}

	j.logger.Info("job updated", "event", eventID, "job", id, "offset", updated.Offset())
	raiseJobEventMetric(eventID, job.MetricJobEventStateUpdated, 1)
	j.raiseUpdateEvent(updated)
	j.raiseRecomputedEvent(plan)
	return updated, nil
}

// Delete removes a job and every reference to it from its event. Dependents
// left without prerequisites become roots.
func (j *JobService) Delete(ctx context.Context, id job.ID) error {
	existing, err := j.jobRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	eventID := existing.EventID()

	var plan *EventPlan
	err = j.jobRepo.WithinEvent(ctx, eventID, func(scope job.EventScope) error {
		if err := scope.Delete(ctx, id); err != nil {
			return err
		}

		plan, err = planAndSave(ctx, scope, eventID, func(jobs job.Jobs) job.Jobs {
			return planner.RemoveJob(jobs, id)
		})
		return err
	})
	if err != nil {
		raiseJobEventMetric(eventID, job.MetricJobEventStateDeleteFailed, 1)
		j.logger.Error("error deleting job", "event", eventID, "job", id, "err", err)
		return ToDomainError(err)
	}

	j.logger.Info("job deleted", "event", eventID, "job", id)
	raiseJobEventMetric(eventID, job.MetricJobEventStateDeleted, 1)
	j.raiseDeleteEvent(eventID, id)
	j.raiseRecomputedEvent(plan)
	return nil
}

// Recompute plans the event from its persisted jobs and saves the offsets.
func (j *JobService) Recompute(ctx context.Context, eventID job.EventID) (*EventPlan, error) {
	var plan *EventPlan
	err := j.jobRepo.WithinEvent(ctx, eventID, func(scope job.EventScope) error {
		var err error
		plan, err = planAndSave(ctx, scope, eventID, nil)
		return err
	})
	if err != nil {
		return nil, ToDomainError(err)
	}

	j.raiseRecomputedEvent(plan)
	return plan, nil
}

// Preview plans the event without persisting anything.
func (j *JobService) Preview(ctx context.Context, eventID job.EventID) (*EventPlan, error) {
	jobs, err := j.jobRepo.GetAllByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	plan, err := planEvent(eventID, jobs)
	if err != nil {
		return nil, ToDomainError(err)
	}
	return plan, nil
}

// planAndSave reads the jobs of the scope, optionally patches them, resolves
// offsets and persists the result in the same scope.
func planAndSave(ctx context.Context, scope job.EventScope, eventID job.EventID, patch func(job.Jobs) job.Jobs) (*EventPlan, error) {
	jobs, err := scope.Jobs(ctx)
	if err != nil {
		return nil, err
	}
	if patch != nil {
		jobs = patch(jobs)
	}

	plan, err := planEvent(eventID, jobs)
	if err != nil {
		return nil, err
	}

	if err := scope.SavePlan(ctx, plan.Jobs); err != nil {
		job.OffsetRecomputeMetric.WithLabelValues(job.MetricRecomputeStateFailed).Inc()
		return nil, err
	}
	return plan, nil
}

func planEvent(eventID job.EventID, jobs job.Jobs) (*EventPlan, error) {
	g, result, err := planner.Plan(jobs)
	if err != nil {
		job.OffsetRecomputeMetric.WithLabelValues(job.MetricRecomputeStateRejected).Inc()
		return nil, err
	}
	job.OffsetRecomputeMetric.WithLabelValues(job.MetricRecomputeStateSucceeded).Inc()

	var drifted []job.ID
	for _, j := range jobs {
		if j.Offset() != result.Offsets[j.ID()] {
			drifted = append(drifted, j.ID())
		}
	}

	return &EventPlan{
		EventID: eventID,
		Jobs:    result.Apply(jobs),
		Graph:   g,
		Result:  result,
		Drifted: drifted,
	}, nil
}

// ToDomainError turns planner rejections into caller facing errors, anything
// else is passed through.
func ToDomainError(err error) error {
	var dangling *planner.DanglingPrerequisiteError
	var cycle *planner.CycleError
	var invalidDuration *planner.InvalidDurationError
	var duplicate *planner.DuplicateJobError

	switch {
	case errors.As(err, &dangling):
		return &errors.DomainError{ErrorType: errors.ErrNotFound, Entity: job.EntityJob, Message: MsgDanglingPrerequisite, WrappedErr: err}
	case errors.As(err, &cycle):
		return &errors.DomainError{ErrorType: errors.ErrInvalidArgument, Entity: job.EntityJob, Message: MsgPrerequisiteLoop, WrappedErr: err}
	case errors.As(err, &invalidDuration):
		return &errors.DomainError{ErrorType: errors.ErrInvalidArgument, Entity: job.EntityJob, Message: MsgInvalidDuration, WrappedErr: err}
	case errors.As(err, &duplicate):
		return errors.InternalError(job.EntityJob, "event contains duplicated jobs", err)
	default:
		return err
	}
}

func (j *JobService) raiseCreateEvent(created *job.Job) {
	jobEvent, err := event.NewJobCreatedEvent(created)
	if err != nil {
		j.logger.Error("error creating event for job create", "err", err)
		return
	}
	j.eventHandler.HandleEvent(jobEvent)
}

func (j *JobService) raiseUpdateEvent(updated *job.Job) {
	jobEvent, err := event.NewJobUpdatedEvent(updated)
	if err != nil {
		j.logger.Error("error creating event for job update", "err", err)
		return
	}
	j.eventHandler.HandleEvent(jobEvent)
}

func (j *JobService) raiseDeleteEvent(eventID job.EventID, id job.ID) {
	jobEvent, err := event.NewJobDeletedEvent(eventID, id)
	if err != nil {
		j.logger.Error("error creating event for job delete", "err", err)
		return
	}
	j.eventHandler.HandleEvent(jobEvent)
}

func (j *JobService) raiseRecomputedEvent(plan *EventPlan) {
	recomputed, err := event.NewOffsetsRecomputedEvent(plan.EventID, plan.Result.Offsets)
	if err != nil {
		j.logger.Error("error creating event for offset recompute", "err", err)
		return
	}
	j.eventHandler.HandleEvent(recomputed)
}

func raiseJobEventMetric(eventID job.EventID, state string, metricValue int) {
	job.EventMetric.WithLabelValues(eventID.String(), state).Add(float64(metricValue))
}

