package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/openparks/gondola/config"
	"github.com/openparks/gondola/internal/intercept"
)

// Pipeline issues requests through an interceptor registry and applies the
// default status policies: transport retry, bounded 202 re-poll, manual 303
// follow. Everything beyond that is caller-extensible via response
// interceptors.
type Pipeline struct {
	cfg       *config.PipelineCfg
	logger    *slog.Logger
	registry  *intercept.Registry
	clk       clock.Clock
	transport http.RoundTripper
	counters  *counters
}

func New(cfg *config.PipelineCfg, logger *slog.Logger, registry *intercept.Registry, clk clock.Clock) (*Pipeline, error) {
	transport := cleanhttp.DefaultPooledTransport()
	proxyURL, err := cfg.Proxy()
	if err != nil {
		return nil, fmt.Errorf("pipeline proxy url: %w", err)
	}
	if proxyURL != nil {
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &Pipeline{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		clk:       clk,
		transport: transport,
		counters:  newCounters(),
	}, nil
}

func (p *Pipeline) Metrics() (requests, shortCircuits, transportErrors, processingWaits, redirects int64) {
	return p.counters.snapshot()
}

// Do dispatches the descriptor and returns the normalized response. A nil
// envelope with a nil error means a response interceptor consumed the
// response (stale-credential invalidation); the caller should refetch.
// A *ProtocolError is returned together with the envelope for error statuses
// no interceptor claimed.
func (p *Pipeline) Do(ctx context.Context, d *intercept.Descriptor) (*intercept.Envelope, error) {
	return p.do(ctx, d, 0)
}

func (p *Pipeline) do(ctx context.Context, d *intercept.Descriptor, depth int) (*intercept.Envelope, error) {
	p.counters.requests.Add(1)

	early, err := p.registry.RunRequest(ctx, d)
	if err != nil {
		return nil, err
	}
	if early != nil {
		p.counters.shortCircuits.Add(1)
		return early, nil
	}

	env, err := p.send(ctx, d)
	if err != nil {
		return nil, err
	}

	env, err = p.registry.RunResponse(ctx, d, env)
	if err != nil {
		return nil, err
	}
	if env == nil {
		return nil, nil
	}

	if env.StatusCode == http.StatusSeeOther {
		loc := env.Header("Location")
		if loc == "" {
			return env, &ProtocolError{URL: d.URL, StatusCode: env.StatusCode}
		}
		if depth >= p.cfg.MaxRedirects {
			return env, fmt.Errorf("redirect depth %d exceeded at %s", p.cfg.MaxRedirects, d.URL)
		}
		p.counters.redirects.Add(1)
		next, err := p.follow(d, loc)
		if err != nil {
			return nil, err
		}
		return p.do(ctx, next, depth+1)
	}

	if env.StatusCode >= http.StatusBadRequest {
		return env, &ProtocolError{URL: d.URL, StatusCode: env.StatusCode}
	}
	return env, nil
}

// send runs the transport with the 202 re-poll loop: a fixed delay between
// attempts, bounded by ProcessingMaxAttempts, returning the last response
// once the bound is hit.
func (p *Pipeline) send(ctx context.Context, d *intercept.Descriptor) (*intercept.Envelope, error) {
	client := p.client(d)

	for attempt := 1; ; attempt++ {
		env, err := p.roundTrip(ctx, client, d)
		if err != nil {
			return nil, err
		}
		if env.StatusCode != http.StatusAccepted || attempt >= p.cfg.ProcessingMaxAttempts {
			return env, nil
		}

		p.counters.processingWaits.Add(1)
		select {
		case <-ctx.Done():
			return nil, &TransportError{URL: d.URL, Err: ctx.Err()}
		case <-p.clk.After(p.cfg.ProcessingDelay):
		}
	}
}

func (p *Pipeline) roundTrip(ctx context.Context, client *http.Client, d *intercept.Descriptor) (*intercept.Envelope, error) {
	var body io.Reader
	if len(d.Body) > 0 {
		body = bytes.NewReader(d.Body)
	}

	req, err := http.NewRequestWithContext(ctx, d.Method, d.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", d.Method, d.URL, err)
	}
	for name, values := range d.Headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", p.cfg.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		p.counters.transportErrors.Add(1)
		return nil, &TransportError{URL: d.URL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		p.counters.transportErrors.Add(1)
		return nil, &TransportError{URL: d.URL, Err: err}
	}

	return &intercept.Envelope{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}, nil
}

// follow builds the descriptor for a 303 Location target: a fresh GET that
// inherits tags, retry budget and timeout policy from the original request.
func (p *Pipeline) follow(d *intercept.Descriptor, location string) (*intercept.Descriptor, error) {
	base, err := url.Parse(d.URL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %s: %w", d.URL, err)
	}
	ref, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("parse location %q: %w", location, err)
	}

	next := intercept.NewDescriptor(http.MethodGet, base.ResolveReference(ref).String())
	next.Tags = slices.Clone(d.Tags)
	next.Retries = d.Retries
	next.TimeoutPolicy = d.TimeoutPolicy
	return next, nil
}
