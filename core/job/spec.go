package job

import (
	"fmt"
	"math"
	"strings"

	"github.com/goto/batchboard/internal/errors"
)

const secondsInDay = 24 * 60 * 60

type Name string

func NameFrom(name string) (Name, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.InvalidArgument(EntityJob, "job name is empty")
	}
	return Name(name), nil
}

func (n Name) String() string {
	return string(n)
}

type Spec struct {
	name        Name
	title       string
	description string

	// scheduleTime is the expected seconds after midnight the event kicks off
	scheduleTime int64
	frequency    Frequency

	averageDuration float64
	maxDuration     float64

	prerequisites Prerequisites
}

func (s *Spec) Name() Name {
	return s.name
}

func (s *Spec) Title() string {
	return s.title
}

func (s *Spec) Description() string {
	return s.description
}

func (s *Spec) ScheduleTime() int64 {
	return s.scheduleTime
}

func (s *Spec) Frequency() Frequency {
	return s.frequency
}

func (s *Spec) AverageDuration() float64 {
	return s.averageDuration
}

func (s *Spec) MaxDuration() float64 {
	return s.maxDuration
}

func (s *Spec) Prerequisites() Prerequisites {
	return s.prerequisites
}

type SpecBuilder struct {
	spec *Spec
}

func NewSpecBuilder(name Name, averageDuration float64, prerequisites Prerequisites) *SpecBuilder {
	return &SpecBuilder{
		spec: &Spec{
			name:            name,
			averageDuration: averageDuration,
			prerequisites:   prerequisites,
		},
	}
}

func (s *SpecBuilder) WithTitle(title string) *SpecBuilder {
	spec := *s.spec
	spec.title = title
	return &SpecBuilder{spec: &spec}
}

func (s *SpecBuilder) WithDescription(description string) *SpecBuilder {
	spec := *s.spec
	spec.description = description
	return &SpecBuilder{spec: &spec}
}

func (s *SpecBuilder) WithScheduleTime(scheduleTime int64) *SpecBuilder {
	spec := *s.spec
	spec.scheduleTime = scheduleTime
	return &SpecBuilder{spec: &spec}
}

func (s *SpecBuilder) WithFrequency(frequency Frequency) *SpecBuilder {
	spec := *s.spec
	spec.frequency = frequency
	return &SpecBuilder{spec: &spec}
}

func (s *SpecBuilder) WithMaxDuration(maxDuration float64) *SpecBuilder {
	spec := *s.spec
	spec.maxDuration = maxDuration
	return &SpecBuilder{spec: &spec}
}

func (s *SpecBuilder) Build() (*Spec, error) {
	if s.spec.name == "" {
		return nil, errors.InvalidArgument(EntityJob, "job name is empty")
	}
	if !IsValidDuration(s.spec.averageDuration) {
		return nil, errors.InvalidArgument(EntityJob, fmt.Sprintf("average duration of job %s must be a non-negative number", s.spec.name))
	}
	if !IsValidDuration(s.spec.maxDuration) {
		return nil, errors.InvalidArgument(EntityJob, fmt.Sprintf("max duration of job %s must be a non-negative number", s.spec.name))
	}
	if s.spec.maxDuration > 0 && s.spec.maxDuration < s.spec.averageDuration {
		return nil, errors.InvalidArgument(EntityJob, fmt.Sprintf("max duration of job %s is lower than its average duration", s.spec.name))
	}
	if s.spec.scheduleTime < 0 || s.spec.scheduleTime >= secondsInDay {
		return nil, errors.InvalidArgument(EntityJob, fmt.Sprintf("schedule time of job %s must be within a day", s.spec.name))
	}
	spec := *s.spec
	if spec.prerequisites == nil {
		spec.prerequisites = Prerequisites{}
	}
	return &spec, nil
}

// Restore returns the spec as is. It is meant for rows read back from storage,
// whose durations are checked again when the event is planned.
func (s *SpecBuilder) Restore() *Spec {
	spec := *s.spec
	if spec.prerequisites == nil {
		spec.prerequisites = Prerequisites{}
	}
	return &spec
}

// IsValidDuration reports whether d can be used in offset arithmetic.
func IsValidDuration(d float64) bool {
	return d >= 0 && !math.IsNaN(d) && !math.IsInf(d, 0)
}
