package job

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/goto/batchboard/internal/errors"
)

const (
	prerequisiteSeparator = ","

	// noPrerequisite is the wire value for a job that starts with its event
	noPrerequisite = "0"
)

// Prerequisites is a sorted set of job ids that must finish before a job starts.
// The empty set marks a root job.
type Prerequisites []ID

func NewPrerequisites(ids ...ID) (Prerequisites, error) {
	seen := make(map[ID]struct{}, len(ids))
	output := make(Prerequisites, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, errors.InvalidArgument(EntityJob, fmt.Sprintf("invalid prerequisite job id [%d]", id))
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		output = append(output, id)
	}
	slices.Sort(output)
	return output, nil
}

// PrerequisitesFrom parses the wire form: "0" or "" for none, otherwise
// comma separated job ids such as "6,8".
func PrerequisitesFrom(raw string) (Prerequisites, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == noPrerequisite {
		return Prerequisites{}, nil
	}

	parts := strings.Split(raw, prerequisiteSeparator)
	ids := make([]ID, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			return nil, errors.InvalidArgument(EntityJob, fmt.Sprintf("invalid prerequisite [%s] in [%s]", strings.TrimSpace(part), raw))
		}
		ids = append(ids, ID(id))
	}
	return NewPrerequisites(ids...)
}

func (p Prerequisites) IsEmpty() bool {
	return len(p) == 0
}

func (p Prerequisites) Contains(id ID) bool {
	_, found := slices.BinarySearch(p, id)
	return found
}

// Without returns a copy of the set excluding id.
func (p Prerequisites) Without(id ID) Prerequisites {
	output := make(Prerequisites, 0, len(p))
	for _, prereq := range p {
		if prereq != id {
			output = append(output, prereq)
		}
	}
	return output
}

func (p Prerequisites) String() string {
	if p.IsEmpty() {
		return noPrerequisite
	}
	parts := make([]string, len(p))
	for i, id := range p {
		parts[i] = id.String()
	}
	return strings.Join(parts, prerequisiteSeparator)
}

func (p Prerequisites) Int64s() []int64 {
	output := make([]int64, len(p))
	for i, id := range p {
		output[i] = int64(id)
	}
	return output
}
