package gateway

import "fmt"

// HTTPError is a non-2xx response from the backend, carrying the
// status code and a best-effort message extracted from the body.
type HTTPError struct {
	// Status is the HTTP status code of the response.
	Status int
	// Message is the backend-provided message, or a generic
	// "HTTP error" string when the body carried none.
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// TransportError is a network-level failure: connection refused,
// timeout, DNS failure. The response never arrived.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponse is a 2xx response whose body could not be decoded.
type MalformedResponse struct {
	Err error
}

func (e *MalformedResponse) Error() string {
	return fmt.Sprintf("malformed response: %v", e.Err)
}

func (e *MalformedResponse) Unwrap() error { return e.Err }
