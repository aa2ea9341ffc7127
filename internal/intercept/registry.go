package intercept

import (
	"context"
	"fmt"
	"sync"
)

// RequestHandler may mutate the descriptor (inject auth, rewrite the URL) or
// return a non-nil envelope to short-circuit the transport entirely.
type RequestHandler func(ctx context.Context, d *Descriptor) (*Envelope, error)

// ResponseHandler receives the current envelope and returns the one to keep.
// Returning (nil, nil) signals "no usable response": dispatch stops and the
// caller is expected to refetch (the invalidate-stale-token pattern).
type ResponseHandler func(ctx context.Context, d *Descriptor, e *Envelope) (*Envelope, error)

type requestRule struct {
	matcher Matcher
	handler RequestHandler
}

type responseRule struct {
	matcher Matcher
	handler ResponseHandler
}

// Registry holds interceptor rules. Rules are immutable once registered and
// run in registration order. One registry is constructed per connector and
// passed into its pipeline; there is no ambient global registry.
type Registry struct {
	mu        sync.RWMutex
	requests  []requestRule
	responses []responseRule
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) RegisterRequest(m Matcher, h RequestHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, requestRule{matcher: m, handler: h})
}

func (r *Registry) RegisterResponse(m Matcher, h ResponseHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, responseRule{matcher: m, handler: h})
}

// RunRequest applies matching request interceptors in order. A non-nil
// envelope short-circuits: remaining handlers are skipped and the transport
// is never reached.
func (r *Registry) RunRequest(ctx context.Context, d *Descriptor) (*Envelope, error) {
	r.mu.RLock()
	rules := r.requests
	r.mu.RUnlock()

	for i, rule := range rules {
		if !rule.matcher.Matches(d) {
			continue
		}
		e, err := rule.handler(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("request interceptor %d: %w", i, err)
		}
		if e != nil {
			return e, nil
		}
	}
	return nil, nil
}

// RunResponse applies matching response interceptors in order, threading the
// envelope through each. A (nil, nil) handler result stops the chain and
// yields a nil envelope to the caller.
func (r *Registry) RunResponse(ctx context.Context, d *Descriptor, e *Envelope) (*Envelope, error) {
	r.mu.RLock()
	rules := r.responses
	r.mu.RUnlock()

	for i, rule := range rules {
		if !rule.matcher.Matches(d) {
			continue
		}
		next, err := rule.handler(ctx, d, e)
		if err != nil {
			return nil, fmt.Errorf("response interceptor %d: %w", i, err)
		}
		if next == nil {
			return nil, nil
		}
		e = next
	}
	return e, nil
}
