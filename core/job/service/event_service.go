package service

import (
	"context"

	"github.com/goto/salt/log"

	"github.com/goto/batchboard/core/job"
)

type EventRepository interface {
	Create(ctx context.Context, event *job.Event) (*job.Event, error)
	Update(ctx context.Context, event *job.Event) error
	Delete(ctx context.Context, id job.EventID) error
	GetByID(ctx context.Context, id job.EventID) (*job.Event, error)
	GetAll(ctx context.Context) ([]*job.Event, error)
}

type EventJobsGetter interface {
	GetAllByEvent(ctx context.Context, eventID job.EventID) (job.Jobs, error)
}

type EventService struct {
	eventRepo EventRepository
	jobGetter EventJobsGetter

	logger log.Logger
}

func NewEventService(eventRepo EventRepository, jobGetter EventJobsGetter, logger log.Logger) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		jobGetter: jobGetter,
		logger:    logger,
	}
}

func (e *EventService) Create(ctx context.Context, eventType, name string) (*job.Event, error) {
	event, err := job.NewEvent(0, eventType, name)
	if err != nil {
		return nil, err
	}

	created, err := e.eventRepo.Create(ctx, event)
	if err != nil {
		e.logger.Error("error creating event", "name", name, "err", err)
		return nil, err
	}
	e.logger.Info("event created", "event", created.ID(), "name", created.Name())
	return created, nil
}

func (e *EventService) Update(ctx context.Context, id job.EventID, eventType, name string) (*job.Event, error) {
	event, err := job.NewEvent(id, eventType, name)
	if err != nil {
		return nil, err
	}

	if err := e.eventRepo.Update(ctx, event); err != nil {
		e.logger.Error("error updating event", "event", id, "err", err)
		return nil, err
	}
	return event, nil
}

// Delete removes the event together with all of its jobs.
func (e *EventService) Delete(ctx context.Context, id job.EventID) error {
	if err := e.eventRepo.Delete(ctx, id); err != nil {
		e.logger.Error("error deleting event", "event", id, "err", err)
		return err
	}
	e.logger.Info("event deleted", "event", id)
	return nil
}

func (e *EventService) Get(ctx context.Context, id job.EventID) (*job.EventWithJobs, error) {
	event, err := e.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	jobs, err := e.jobGetter.GetAllByEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	return &job.EventWithJobs{Event: event, Jobs: jobs}, nil
}

func (e *EventService) List(ctx context.Context) ([]*job.EventWithJobs, error) {
	events, err := e.eventRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	output := make([]*job.EventWithJobs, len(events))
	for i, event := range events {
		jobs, err := e.jobGetter.GetAllByEvent(ctx, event.ID())
		if err != nil {
			return nil, err
		}
		output[i] = &job.EventWithJobs{Event: event, Jobs: jobs}
	}
	return output, nil
}
