package errors

import (
	"errors"
	"fmt"
)

type ErrorType string

func (e ErrorType) String() string {
	return string(e)
}

const (
	ErrFailedPrecond   ErrorType = "Failed Precondition"
	ErrInvalidArgument ErrorType = "Invalid Argument"
	ErrInvalidState    ErrorType = "Invalid State"
	ErrAlreadyExists   ErrorType = "Resource Already Exists"
	ErrNotFound        ErrorType = "Resource Not Found"
	ErrInternalError   ErrorType = "Internal Error"
)

// DomainError carries the entity an error belongs to and the kind of failure,
// so transport layers can translate it without string matching.
type DomainError struct {
	ErrorType  ErrorType
	Entity     string
	Message    string
	WrappedErr error
}

func (e *DomainError) Error() string {
	if e.WrappedErr != nil {
		return fmt.Sprintf("%s: %s, %s: %s", e.ErrorType, e.Entity, e.Message, e.WrappedErr.Error())
	}
	return fmt.Sprintf("%s: %s, %s", e.ErrorType, e.Entity, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.WrappedErr
}

func (e *DomainError) DebugString() string {
	var wrappedError string
	if e.WrappedErr != nil {
		wrappedError = e.WrappedErr.Error()
	}

	return fmt.Sprintf("%s: %s, %s: %s", e.ErrorType, e.Entity, e.Message, wrappedError)
}

func NewError(errType ErrorType, entity, msg string) *DomainError {
	return &DomainError{
		ErrorType: errType,
		Entity:    entity,
		Message:   msg,
	}
}

func InvalidArgument(entity, msg string) *DomainError {
	return &DomainError{
		ErrorType: ErrInvalidArgument,
		Entity:    entity,
		Message:   msg,
	}
}

func NotFound(entity, msg string) *DomainError {
	return &DomainError{
		ErrorType: ErrNotFound,
		Entity:    entity,
		Message:   msg,
	}
}

func AlreadyExists(entity, msg string) *DomainError {
	return &DomainError{
		ErrorType: ErrAlreadyExists,
		Entity:    entity,
		Message:   msg,
	}
}

func FailedPrecondition(entity, msg string, err error) *DomainError {
	return &DomainError{
		ErrorType:  ErrFailedPrecond,
		Entity:     entity,
		Message:    msg,
		WrappedErr: err,
	}
}

func InternalError(entity, msg string, err error) *DomainError {
	return &DomainError{
		ErrorType:  ErrInternalError,
		Entity:     entity,
		Message:    msg,
		WrappedErr: err,
	}
}

// Wrap keeps the type of an underlying DomainError, everything else becomes an
// internal error of the given entity.
func Wrap(entity, msg string, err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return &DomainError{
			ErrorType:  de.ErrorType,
			Entity:     entity,
			Message:    msg,
			WrappedErr: err,
		}
	}

	return &DomainError{
		ErrorType:  ErrInternalError,
		Entity:     entity,
		Message:    msg,
		WrappedErr: err,
	}
}

func WrapIfErr(entity, msg string, err error) error {
	if err == nil {
		return nil
	}
	return Wrap(entity, msg, err)
}

func IsErrorType(err error, errType ErrorType) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.ErrorType == errType
	}
	return false
}

// UserMessage returns the message of the outermost DomainError, falling back to
// the error text.
func UserMessage(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func New(msg string) error {
	return errors.New(msg)
}
