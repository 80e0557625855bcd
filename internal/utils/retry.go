package utils

import (
	"time"

	"github.com/goto/salt/log"
)

// Retry calls f until it succeeds or maxAttempts is reached, doubling the wait
// after every failure. The last error is returned.
func Retry(l log.Logger, maxAttempts int, backoff time.Duration, f func() error) error {
	var err error
	wait := backoff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = f(); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}

		l.Warn("retrying after failure", "attempt", attempt, "wait", wait.String(), "err", err)
		time.Sleep(wait)
		wait *= 2
	}
	return err
}
