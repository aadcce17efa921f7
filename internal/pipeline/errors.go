package pipeline

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when an operation arrives while the session already
// has a request in flight.
var ErrBusy = errors.New("a request is already in progress")

// ErrInvalidSelection is returned when an index does not address an entry
// of the list currently on display.
var ErrInvalidSelection = errors.New("selection is not available")

// ErrSessionNotFound is returned by Store for unknown or expired ids.
var ErrSessionNotFound = errors.New("session not found")

// RequestError reports a failed AI request for one stage.
type RequestError struct {
	Stage Stage
	Err   error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Stage, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
