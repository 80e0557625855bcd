package job

import "context"

// EventScope gives exclusive access to one event's jobs for the duration of a
// mutation. Everything written through it commits or rolls back together.
type EventScope interface {
	Jobs(ctx context.Context) (Jobs, error)
	Insert(ctx context.Context, spec *Spec) (*Job, error)
	Update(ctx context.Context, id ID, spec *Spec) (*Job, error)
	Delete(ctx context.Context, id ID) error
	// SavePlan persists prerequisites and offsets of the given jobs.
	SavePlan(ctx context.Context, jobs Jobs) error
}
