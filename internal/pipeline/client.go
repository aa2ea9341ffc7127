package pipeline

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/openparks/gondola/internal/intercept"
)

type leveledSlog struct {
	inner *slog.Logger
}

// retry intermediates are expected, keep them at WARN
func (l leveledSlog) Error(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Warn(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Info(msg string, keysAndValues ...any) {
	l.inner.Info(msg, keysAndValues...)
}

func (l leveledSlog) Debug(msg string, keysAndValues ...any) {
	l.inner.Debug(msg, keysAndValues...)
}

// transportRetryPolicy retries network failures only. Status-code handling
// (202 re-poll, 303 follow, maintenance mapping) belongs to the pipeline and
// its response interceptors, never to the transport layer.
func transportRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		// delegate error classification (permanent vs retryable)
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	return false, nil
}

// client builds a per-request client honoring the descriptor's retry count
// and timeout policy. The pooled transport is shared across clients.
func (p *Pipeline) client(d *intercept.Descriptor) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Transport = p.transport
	retryClient.Logger = retryablehttp.LeveledLogger(leveledSlog{inner: p.logger})
	retryClient.RetryWaitMin = p.cfg.RetryWaitMin
	retryClient.RetryWaitMax = p.cfg.RetryWaitMax
	retryClient.CheckRetry = transportRetryPolicy

	retries := d.Retries
	if retries == intercept.DefaultRetries {
		retries = p.cfg.Retries
	}
	retryClient.RetryMax = retries

	client := retryClient.StandardClient()
	// redirects are pipeline policy (303 handling), not transport policy
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	if d.TimeoutPolicy == intercept.TimeoutBounded {
		client.Timeout = p.cfg.Timeout
	}
	return client
}
