package realtime

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTransport returned by Send when the manager has no transport attached.
	ErrNoTransport = errors.New("realtime: no transport configured")

	// ErrOperationInFlight returned by Send when the operation is already SENT.
	ErrOperationInFlight = errors.New("realtime: operation already sent")
)

// ResponseError is a negative acknowledgement returned by the server.
type ResponseError struct {
	Code    string
	Message string
}

func (e *ResponseError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server rejected operation: %s", e.Message)
	}
	return fmt.Sprintf("server rejected operation (%s): %s", e.Code, e.Message)
}
