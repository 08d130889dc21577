package dashboard

import (
	"errors"
	"fmt"
)

// Refresh errors. Each one ends the refresh cycle it occurred in; nothing is retried.
var (
	ErrTransport        = errors.New("incident feed unreachable")
	ErrStatus           = errors.New("incident feed returned non-success status")
	ErrMalformedPayload = errors.New("incident feed payload is malformed")
	ErrApplication      = errors.New("incident feed reported an error")
)

// StatusError carries the HTTP status of a failed feed request.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.Code)
}

// Unwrap makes errors.Is(err, ErrStatus) hold.
func (e *StatusError) Unwrap() error {
	return ErrStatus
}
