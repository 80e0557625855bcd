package planner

import "github.com/goto/batchboard/core/job"

// RemoveJob returns the event's job set without the target and with every
// reference to it stripped. Jobs left without prerequisites become roots.
// Removing an id that is not present only strips stale references.
func RemoveJob(jobs job.Jobs, target job.ID) job.Jobs {
	patched := make(job.Jobs, 0, len(jobs))
	for _, j := range jobs {
		if j.ID() == target {
			continue
		}
		if j.Prerequisites().Contains(target) {
			j = j.WithPrerequisites(j.Prerequisites().Without(target))
		}
		patched = append(patched, j)
	}
	return patched
}
