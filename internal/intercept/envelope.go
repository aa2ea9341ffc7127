package intercept

import "net/http"

// Envelope is a normalized response. Response interceptors may replace it
// wholesale, e.g. to unwrap a proxy's wrapper format.
type Envelope struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

func (e *Envelope) Header(name string) string {
	if e == nil || e.Headers == nil {
		return ""
	}
	return e.Headers.Get(name)
}
