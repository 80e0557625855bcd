package errors

import "fmt"

const (
	ExitCodeInputError   = 20
	ExitCodeRejectedPlan = 30
)

// CmdError carries the exit code the process should terminate with.
type CmdError struct {
	Cause error
	Code  int
}

func (e *CmdError) Error() string { return e.Cause.Error() }

func (e *CmdError) Unwrap() error { return e.Cause }

func NewCmdError(cause error, code int) *CmdError {
	return &CmdError{
		Cause: cause,
		Code:  code,
	}
}

func NewInputErrorf(format string, args ...any) *CmdError {
	return NewCmdError(fmt.Errorf(format, args...), ExitCodeInputError)
}

func NewRejectedPlanErrorf(format string, args ...any) *CmdError {
	return NewCmdError(fmt.Errorf(format, args...), ExitCodeRejectedPlan)
}
