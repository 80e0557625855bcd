package job

import (
	"strings"

	"github.com/goto/batchboard/internal/errors"
)

// Event groups jobs that share one prerequisite graph, e.g. a nightly batch.
type Event struct {
	id        EventID
	eventType string
	name      string
}

func NewEvent(id EventID, eventType, name string) (*Event, error) {
	eventType = strings.TrimSpace(eventType)
	name = strings.TrimSpace(name)
	if eventType == "" {
		return nil, errors.InvalidArgument(EntityEvent, "event type is empty")
	}
	if name == "" {
		return nil, errors.InvalidArgument(EntityEvent, "event name is empty")
	}
	return &Event{id: id, eventType: eventType, name: name}, nil
}

func (e *Event) ID() EventID {
	return e.id
}

func (e *Event) Type() string {
	return e.eventType
}

func (e *Event) Name() string {
	return e.name
}

type EventWithJobs struct {
	Event *Event
	Jobs  Jobs
}
