package logger

import (
	"io"
	"os"

	"github.com/goto/salt/log"

	"github.com/goto/batchboard/config"
)

// NewClientLogger writes client side messages to stderr, leaving stdout to the
// command output.
func NewClientLogger() log.Logger {
	return NewClientLoggerWithWriter(os.Stderr)
}

func NewClientLoggerWithWriter(w io.Writer) log.Logger {
	return log.NewLogrus(
		log.LogrusWithLevel(config.LogLevelInfo.String()),
		log.LogrusWithWriter(w),
	)
}
