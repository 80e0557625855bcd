package errors

import (
	"net/http"
)

var httpStatusByType = map[ErrorType]int{
	ErrInvalidArgument: http.StatusUnprocessableEntity,
	ErrNotFound:        http.StatusNotFound,
	ErrAlreadyExists:   http.StatusConflict,
	ErrFailedPrecond:   http.StatusPreconditionFailed,
	ErrInvalidState:    http.StatusConflict,
	ErrInternalError:   http.StatusInternalServerError,
}

// HTTPStatus translates an error into the status code served by the API.
func HTTPStatus(err error) int {
	var de *DomainError
	if !As(err, &de) {
		return http.StatusInternalServerError
	}

	if code, ok := httpStatusByType[de.ErrorType]; ok {
		return code
	}
	return http.StatusInternalServerError
}
