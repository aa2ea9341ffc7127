package intercept

import (
	"net/http"
	"net/url"
	"slices"
)

// TimeoutPolicy selects the pipeline's wait behavior for one request.
type TimeoutPolicy int

const (
	// TimeoutBounded applies the pipeline's configured whole-request
	// deadline. Default, suitable for interactive use.
	TimeoutBounded TimeoutPolicy = iota
	// TimeoutUnbounded waits without an upper bound; used for slow
	// server-side data generation.
	TimeoutUnbounded
)

// DefaultRetries makes a descriptor inherit the pipeline's retry count.
const DefaultRetries = -1

// Descriptor is one outgoing request. Request interceptors mutate it in
// place before dispatch; it is discarded once the pipeline completes.
type Descriptor struct {
	Method        string
	URL           string
	Body          []byte
	Headers       http.Header
	Retries       int
	Tags          []string
	TimeoutPolicy TimeoutPolicy
}

func NewDescriptor(method, rawURL string) *Descriptor {
	return &Descriptor{
		Method:  method,
		URL:     rawURL,
		Headers: make(http.Header),
		Retries: DefaultRetries,
	}
}

func (d *Descriptor) Tag(tags ...string) *Descriptor {
	d.Tags = append(d.Tags, tags...)
	return d
}

func (d *Descriptor) HasTag(tag string) bool {
	return slices.Contains(d.Tags, tag)
}

// Hostname returns the request host (without port), or "" when the URL does
// not parse or carries none.
func (d *Descriptor) Hostname() string {
	u, err := url.Parse(d.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
