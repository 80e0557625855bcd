package utils_test

import (
	"errors"
	"testing"
	"time"

	"github.com/goto/salt/log"
	"github.com/stretchr/testify/assert"

	"github.com/goto/batchboard/internal/utils"
)

func TestRetry(t *testing.T) {
	logger := log.NewNoop()

	t.Run("should stop retrying once the call succeeds", func(t *testing.T) {
		calls := 0
		err := utils.Retry(logger, 5, time.Millisecond, func() error {
			calls++
			if calls < 3 {
				return errors.New("not yet")
			}
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})
	t.Run("returns the last error after all attempts fail", func(t *testing.T) {
		calls := 0
		err := utils.Retry(logger, 2, time.Millisecond, func() error {
			calls++
			return errors.New("still down")
		})

		assert.EqualError(t, err, "still down")
		assert.Equal(t, 2, calls)
	})
}
