package leakapi

import "fmt"

// TransportError reports a failure to reach the backend at all:
// connection refused, TLS failure, timeout. The operation produced no
// result and the probe should be marked failed (or inconclusive on
// timeout).
type TransportError struct {
	// Op is the logical operation that failed ("detect_ip", ...).
	Op string

	// Err is the underlying transport error.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("leakapi: %s: transport failure: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError reports that the backend answered but the body
// could not be decoded into the expected envelope.
type MalformedResponseError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("leakapi: %s: malformed response: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *MalformedResponseError) Unwrap() error { return e.Err }

// APIError reports a well-formed backend refusal: a non-2xx status or
// an envelope with success=false.
type APIError struct {
	Op string

	// StatusCode is the HTTP status, zero when the refusal came from the
	// envelope rather than the status line.
	StatusCode int

	// Message is the backend's error text when it sent one.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("leakapi: %s: backend refused: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("leakapi: %s: backend refused with status %d", e.Op, e.StatusCode)
}
