package planner

import (
	"slices"

	"github.com/goto/batchboard/core/job"
)

// Result holds the offset of every job in seconds from event start, and the
// order in which jobs were resolved.
type Result struct {
	Offsets map[job.ID]float64
	Order   []job.ID
}

// Apply returns copies of jobs carrying the resolved offsets. Jobs unknown to
// the result are returned as is.
func (r *Result) Apply(jobs job.Jobs) job.Jobs {
	applied := make(job.Jobs, len(jobs))
	for i, j := range jobs {
		offset, ok := r.Offsets[j.ID()]
		if !ok {
			applied[i] = j
			continue
		}
		applied[i] = j.WithOffset(offset)
	}
	return applied
}

// Finish is the expected completion of a job relative to event start.
func (r *Result) Finish(g *Graph, id job.ID) float64 {
	return r.Offsets[id] + g.Duration(id)
}

// Plan builds the graph of an event and resolves every offset.
func Plan(jobs job.Jobs) (*Graph, *Result, error) {
	g, err := BuildGraph(jobs)
	if err != nil {
		return nil, nil, err
	}
	result, err := Resolve(g)
	if err != nil {
		return g, nil, err
	}
	return g, result, nil
}

// Resolve computes the longest-path offset of every job. Roots start at zero,
// every other job starts once its slowest prerequisite finishes.
func Resolve(g *Graph) (*Result, error) {
	for _, id := range g.ids {
		if d := g.durations[id]; !job.IsValidDuration(d) {
			return nil, &InvalidDurationError{JobID: id, Duration: d}
		}
	}

	inDegree := make(map[job.ID]int, len(g.ids))
	offsets := make(map[job.ID]float64, len(g.ids))
	queue := make([]job.ID, 0, len(g.ids))
	for _, id := range g.ids {
		inDegree[id] = len(g.prerequisites[id])
		if inDegree[id] == 0 {
			offsets[id] = 0
			queue = append(queue, id)
		}
	}

	order := make([]job.ID, 0, len(g.ids))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		finish := offsets[current] + g.durations[current]
		for _, dependent := range g.dependents[current] {
			if finish > offsets[dependent] {
				offsets[dependent] = finish
			}
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) < len(g.ids) {
		var unresolved []job.ID
		for _, id := range g.ids {
			if inDegree[id] > 0 {
				unresolved = append(unresolved, id)
			}
		}
		slices.Sort(unresolved)
		return nil, &CycleError{Unresolved: unresolved}
	}

	return &Result{Offsets: offsets, Order: order}, nil
}
