package job_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goto/batchboard/core/job"
	"github.com/goto/batchboard/internal/errors"
)

func TestPrerequisites(t *testing.T) {
	t.Run("PrerequisitesFrom", func(t *testing.T) {
		t.Run("should treat the zero sentinel as no prerequisite", func(t *testing.T) {
			prereqs, err := job.PrerequisitesFrom("0")

			assert.NoError(t, err)
			assert.True(t, prereqs.IsEmpty())
			assert.NotNil(t, prereqs)
		})
		t.Run("should treat empty string as no prerequisite", func(t *testing.T) {
			prereqs, err := job.PrerequisitesFrom("  ")

			assert.NoError(t, err)
			assert.True(t, prereqs.IsEmpty())
		})
		t.Run("should parse, sort and deduplicate ids", func(t *testing.T) {
			prereqs, err := job.PrerequisitesFrom("8, 6,8")

			assert.NoError(t, err)
			assert.Equal(t, job.Prerequisites{6, 8}, prereqs)
		})
		t.Run("should reject the zero sentinel mixed with ids", func(t *testing.T) {
			_, err := job.PrerequisitesFrom("0,6")

			assert.True(t, errors.IsErrorType(err, errors.ErrInvalidArgument))
		})
		t.Run("should reject non numeric ids", func(t *testing.T) {
			_, err := job.PrerequisitesFrom("6,abc")

			assert.ErrorContains(t, err, "invalid prerequisite [abc]")
		})
		t.Run("should reject negative ids", func(t *testing.T) {
			_, err := job.PrerequisitesFrom("-3")

			assert.Error(t, err)
		})
	})
	t.Run("String", func(t *testing.T) {
		t.Run("should render the zero sentinel for roots", func(t *testing.T) {
			assert.Equal(t, "0", job.Prerequisites{}.String())
		})
		t.Run("should render comma separated ids", func(t *testing.T) {
			prereqs, _ := job.NewPrerequisites(8, 6)

			assert.Equal(t, "6,8", prereqs.String())
		})
	})
	t.Run("Without", func(t *testing.T) {
		t.Run("should remove the id without touching the original", func(t *testing.T) {
			prereqs, _ := job.NewPrerequisites(1, 2, 3)

			patched := prereqs.Without(2)

			assert.Equal(t, job.Prerequisites{1, 3}, patched)
			assert.Equal(t, job.Prerequisites{1, 2, 3}, prereqs)
			assert.True(t, patched.Contains(3))
			assert.False(t, patched.Contains(2))
		})
		t.Run("should be a no-op for an absent id", func(t *testing.T) {
			prereqs, _ := job.NewPrerequisites(1)

			assert.Equal(t, job.Prerequisites{1}, prereqs.Without(5))
		})
	})
}

func TestFrequency(t *testing.T) {
	t.Run("should parse weekdays", func(t *testing.T) {
		freq, err := job.FrequencyFrom("5,1,3,1")

		assert.NoError(t, err)
		assert.Equal(t, "1,3,5", freq.String())
		assert.True(t, freq.RunsOn(time.Monday))
		assert.False(t, freq.RunsOn(time.Sunday))
	})
	t.Run("should map sunday to seven", func(t *testing.T) {
		freq, err := job.FrequencyFrom("7")

		assert.NoError(t, err)
		assert.True(t, freq.RunsOn(time.Sunday))
	})
	t.Run("should reject out of range weekdays", func(t *testing.T) {
		_, err := job.FrequencyFrom("0,8")

		assert.Error(t, err)
	})
	t.Run("should reject empty frequency", func(t *testing.T) {
		_, err := job.FrequencyFrom("")

		assert.Error(t, err)
	})
}

func TestSpecBuilder(t *testing.T) {
	prereqs, _ := job.NewPrerequisites(1)

	t.Run("should build spec with optional fields", func(t *testing.T) {
		freq, _ := job.FrequencyFrom("1,2,3,4,5")

		spec, err := job.NewSpecBuilder("load-orders", 300, prereqs).
			WithTitle("Load Orders").
			WithDescription("loads orders into the mart").
			WithScheduleTime(3600).
			WithFrequency(freq).
			WithMaxDuration(600).
			Build()

		require.NoError(t, err)
		assert.Equal(t, job.Name("load-orders"), spec.Name())
		assert.Equal(t, "Load Orders", spec.Title())
		assert.Equal(t, "loads orders into the mart", spec.Description())
		assert.Equal(t, int64(3600), spec.ScheduleTime())
		assert.Equal(t, freq, spec.Frequency())
		assert.Equal(t, 300.0, spec.AverageDuration())
		assert.Equal(t, 600.0, spec.MaxDuration())
		assert.Equal(t, prereqs, spec.Prerequisites())
	})
	t.Run("should default prerequisites to an empty set", func(t *testing.T) {
		spec, err := job.NewSpecBuilder("root", 10, nil).Build()

		require.NoError(t, err)
		assert.NotNil(t, spec.Prerequisites())
		assert.True(t, spec.Prerequisites().IsEmpty())
	})
	t.Run("should reject invalid durations", func(t *testing.T) {
		for _, d := range []float64{-5, math.NaN(), math.Inf(1)} {
			_, err := job.NewSpecBuilder("bad", d, nil).Build()

			assert.True(t, errors.IsErrorType(err, errors.ErrInvalidArgument))
		}
	})
	t.Run("should reject max duration lower than average", func(t *testing.T) {
		_, err := job.NewSpecBuilder("bad", 300, nil).WithMaxDuration(100).Build()

		assert.ErrorContains(t, err, "lower than its average duration")
	})
	t.Run("should reject schedule time outside a day", func(t *testing.T) {
		_, err := job.NewSpecBuilder("bad", 300, nil).WithScheduleTime(86400).Build()

		assert.Error(t, err)
	})
	t.Run("should reject empty name", func(t *testing.T) {
		_, err := job.NewSpecBuilder("", 300, nil).Build()

		assert.Error(t, err)
	})
}

func TestEntityJob(t *testing.T) {
	prereqs, _ := job.NewPrerequisites(1, 2)
	spec, _ := job.NewSpecBuilder("job-C", 100, prereqs).Build()
	jobC := job.NewJob(3, 10, spec, 300)

	t.Run("WithOffset", func(t *testing.T) {
		t.Run("should return copy with new offset", func(t *testing.T) {
			updated := jobC.WithOffset(500)

			assert.Equal(t, 500.0, updated.Offset())
			assert.Equal(t, 300.0, jobC.Offset())
			assert.Equal(t, jobC.ID(), updated.ID())
			assert.Equal(t, jobC.EventID(), updated.EventID())
		})
	})
	t.Run("WithPrerequisites", func(t *testing.T) {
		t.Run("should return copy without mutating the original spec", func(t *testing.T) {
			updated := jobC.WithPrerequisites(job.Prerequisites{})

			assert.True(t, updated.IsRoot())
			assert.False(t, jobC.IsRoot())
			assert.Equal(t, prereqs, jobC.Prerequisites())
		})
	})
	t.Run("Jobs", func(t *testing.T) {
		specA, _ := job.NewSpecBuilder("job-A", 100, nil).Build()
		jobA := job.NewJob(1, 10, specA, 0)
		jobs := job.Jobs{jobA, jobC}

		assert.Equal(t, []job.ID{1, 3}, jobs.IDs())
		assert.Equal(t, map[job.ID]*job.Job{1: jobA, 3: jobC}, jobs.ToMap())

		found, ok := jobs.Get(3)
		assert.True(t, ok)
		assert.Equal(t, jobC, found)

		_, ok = jobs.Get(99)
		assert.False(t, ok)
	})
}

func TestIDFrom(t *testing.T) {
	id, err := job.IDFrom("42")
	assert.NoError(t, err)
	assert.Equal(t, job.ID(42), id)

	_, err = job.IDFrom("0")
	assert.Error(t, err)

	_, err = job.EventIDFrom("abc")
	assert.Error(t, err)
}

func TestNewEvent(t *testing.T) {
	t.Run("should trim and store fields", func(t *testing.T) {
		event, err := job.NewEvent(1, " nightly ", " close ")

		require.NoError(t, err)
		assert.Equal(t, "nightly", event.Type())
		assert.Equal(t, "close", event.Name())
	})
	t.Run("should reject missing type or name", func(t *testing.T) {
		_, err := job.NewEvent(1, "", "close")
		assert.Error(t, err)

		_, err = job.NewEvent(1, "nightly", "")
		assert.Error(t, err)
	})
}
