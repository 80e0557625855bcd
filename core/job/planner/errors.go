package planner

import (
	"fmt"
	"strings"

	"github.com/goto/batchboard/core/job"
)

// DanglingPrerequisiteError is returned when a job names a prerequisite that is
// not part of the event's job set.
type DanglingPrerequisiteError struct {
	JobID          job.ID
	PrerequisiteID job.ID
}

func (e *DanglingPrerequisiteError) Error() string {
	return fmt.Sprintf("job [%d] depends on unknown job [%d]", e.JobID, e.PrerequisiteID)
}

type DuplicateJobError struct {
	JobID job.ID
}

func (e *DuplicateJobError) Error() string {
	return fmt.Sprintf("job [%d] appears more than once", e.JobID)
}

// CycleError lists every job that could not be resolved because it sits on, or
// downstream of, a prerequisite cycle. Unresolved is sorted ascending.
type CycleError struct {
	Unresolved []job.ID
}

func (e *CycleError) Error() string {
	ids := make([]string, len(e.Unresolved))
	for i, id := range e.Unresolved {
		ids[i] = id.String()
	}
	return fmt.Sprintf("prerequisite cycle among jobs [%s]", strings.Join(ids, ","))
}

type InvalidDurationError struct {
	JobID    job.ID
	Duration float64
}

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("job [%d] has invalid average duration [%v]", e.JobID, e.Duration)
}
