package stocktracker

import (
	"errors"
	"fmt"
)

// The client reports failures as one of three error kinds, so callers can
// distinguish connectivity problems from server-side rejections:
//
//   - TransportError: the request never produced a usable HTTP response.
//   - ServerError: the server answered with success=false and a message.
//   - StatusError: a non-2xx status with no usable JSON body.

// TransportError wraps a network-level failure (DNS, connect, timeout).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError carries the message from a success=false response body.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server: %s", e.Message)
}

// StatusError is a non-2xx response whose body carried no usable message.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d", e.StatusCode)
}

// ErrorMessage normalizes a client error into a user-facing string: server
// rejections surface the backend's own message, everything else collapses to
// the given network fallback.
func ErrorMessage(err error, networkFallback string) string {
	var srv *ServerError
	if errors.As(err, &srv) && srv.Message != "" {
		return srv.Message
	}
	var status *StatusError
	if errors.As(err, &status) {
		return fmt.Sprintf("%s (HTTP %d)", networkFallback, status.StatusCode)
	}
	return networkFallback
}
