package planner

import (
	"slices"

	"github.com/goto/batchboard/core/job"
)

// Graph is the prerequisite graph of a single event. Edges point from a
// prerequisite to its dependents.
type Graph struct {
	ids           []job.ID
	durations     map[job.ID]float64
	prerequisites map[job.ID][]job.ID
	dependents    map[job.ID][]job.ID
}

// BuildGraph indexes the full job set of one event. Every prerequisite must
// resolve to a job in the same set.
func BuildGraph(jobs job.Jobs) (*Graph, error) {
	g := &Graph{
		ids:           make([]job.ID, 0, len(jobs)),
		durations:     make(map[job.ID]float64, len(jobs)),
		prerequisites: make(map[job.ID][]job.ID, len(jobs)),
		dependents:    make(map[job.ID][]job.ID, len(jobs)),
	}

	for _, j := range jobs {
		if _, ok := g.durations[j.ID()]; ok {
			return nil, &DuplicateJobError{JobID: j.ID()}
		}
		g.ids = append(g.ids, j.ID())
		g.durations[j.ID()] = j.AverageDuration()
	}
	slices.Sort(g.ids)

	for _, j := range jobs {
		prereqs := j.Prerequisites()
		for _, p := range prereqs {
			if _, ok := g.durations[p]; !ok {
				return nil, &DanglingPrerequisiteError{JobID: j.ID(), PrerequisiteID: p}
			}
			g.dependents[p] = append(g.dependents[p], j.ID())
		}
		g.prerequisites[j.ID()] = slices.Clone(prereqs)
	}
	for id := range g.dependents {
		slices.Sort(g.dependents[id])
	}

	return g, nil
}

// IDs returns every job id in ascending order.
func (g *Graph) IDs() []job.ID {
	return slices.Clone(g.ids)
}

func (g *Graph) Duration(id job.ID) float64 {
	return g.durations[id]
}

func (g *Graph) Prerequisites(id job.ID) []job.ID {
	return g.prerequisites[id]
}

func (g *Graph) Dependents(id job.ID) []job.ID {
	return g.dependents[id]
}

func (g *Graph) Roots() []job.ID {
	var roots []job.ID
	for _, id := range g.ids {
		if len(g.prerequisites[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

func (g *Graph) NonRoots() []job.ID {
	var nonRoots []job.ID
	for _, id := range g.ids {
		if len(g.prerequisites[id]) > 0 {
			nonRoots = append(nonRoots, id)
		}
	}
	return nonRoots
}

func (g *Graph) Len() int {
	return len(g.ids)
}
