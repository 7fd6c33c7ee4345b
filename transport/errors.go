package transport

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransport marks network failures and unusable responses.
	ErrTransport = errors.New("transport failure")
	// ErrMalformedResponse marks a response body that could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrUnauthorized matches a [RemoteError] carrying status 401.
	ErrUnauthorized = errors.New("unauthorized")
)

// TransportError is returned when a request could not be completed or its
// response could not be read. errors.Is(err, ErrTransport) is always true.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// RemoteError is a non-2xx response from the service. Message is the
// payload's "message" field when the body carried one.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("remote returned status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}
