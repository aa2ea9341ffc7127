package pipeline

import "fmt"

// TransportError is a network-level failure (DNS, connect, timeout). These
// are retried by the pipeline up to the request's retry budget before being
// surfaced.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is an error status code no response interceptor claimed.
// The envelope is still returned alongside it so callers can inspect the
// body.
type ProtocolError struct {
	URL        string
	StatusCode int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}
