package pipeline

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/openparks/gondola/config"
	"github.com/openparks/gondola/internal/intercept"
	"github.com/stretchr/testify/require"
)

func testCfg() *config.PipelineCfg {
	return &config.PipelineCfg{
		Retries:               1,
		RetryWaitMin:          time.Millisecond,
		RetryWaitMax:          5 * time.Millisecond,
		Timeout:               5 * time.Second,
		ProcessingDelay:       time.Millisecond,
		ProcessingMaxAttempts: 4,
		MaxRedirects:          3,
		UserAgent:             "gondola-test/1.0",
	}
}

func newTestPipeline(t *testing.T, registry *intercept.Registry) *Pipeline {
	t.Helper()
	p, err := New(testCfg(), slog.Default(), registry, clock.New())
	require.NoError(t, err)
	return p
}

func TestDoPlainGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "gondola-test/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	p := newTestPipeline(t, intercept.NewRegistry())

	env, err := p.Do(context.Background(), intercept.NewDescriptor(http.MethodGet, srv.URL))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, env.StatusCode)
	require.Equal(t, "application/json", env.Header("Content-Type"))
	require.JSONEq(t, `{"ok":true}`, string(env.Body))
}

func TestDoRepollsAcceptedUntilReady(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		_, _ = w.Write([]byte("generated"))
	}))
	defer srv.Close()

	p := newTestPipeline(t, intercept.NewRegistry())

	env, err := p.Do(context.Background(), intercept.NewDescriptor(http.MethodGet, srv.URL))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, env.StatusCode)
	require.Equal(t, "generated", string(env.Body))
	require.Equal(t, int64(3), calls.Load())

	_, _, _, waits, _ := p.Metrics()
	require.Equal(t, int64(2), waits)
}

func TestDoAcceptedLoopIsBounded(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := newTestPipeline(t, intercept.NewRegistry())

	env, err := p.Do(context.Background(), intercept.NewDescriptor(http.MethodGet, srv.URL))
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, env.StatusCode, "last response is handed back after the bound")
	require.Equal(t, int64(4), calls.Load())
}

func TestDoFollowsSeeOther(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/export", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Location", "/export/result")
		w.WriteHeader(http.StatusSeeOther)
	})
	mux.HandleFunc("/export/result", func(w http.ResponseWriter, r *http.Request) {
		// follow-ups are GETs regardless of the original method
		require.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte("export-data"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := newTestPipeline(t, intercept.NewRegistry())

	d := intercept.NewDescriptor(http.MethodPost, srv.URL+"/export").Tag("export")
	env, err := p.Do(context.Background(), d)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, env.StatusCode)
	require.Equal(t, "export-data", string(env.Body))

	_, _, _, _, redirects := p.Metrics()
	require.Equal(t, int64(1), redirects)
}

func TestDoRedirectDepthBounded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/again")
		w.WriteHeader(http.StatusSeeOther)
	}))
	defer srv.Close()

	p := newTestPipeline(t, intercept.NewRegistry())

	_, err := p.Do(context.Background(), intercept.NewDescriptor(http.MethodGet, srv.URL))
	require.Error(t, err)
	require.Contains(t, err.Error(), "redirect depth")
}

func TestDoRequestInterceptorShortCircuit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("transport must not be reached")
	}))
	defer srv.Close()

	registry := intercept.NewRegistry()
	registry.RegisterRequest(intercept.Matcher{}, func(ctx context.Context, d *intercept.Descriptor) (*intercept.Envelope, error) {
		return &intercept.Envelope{StatusCode: http.StatusOK, Body: []byte("cached")}, nil
	})

	p := newTestPipeline(t, registry)

	env, err := p.Do(context.Background(), intercept.NewDescriptor(http.MethodGet, srv.URL))
	require.NoError(t, err)
	require.Equal(t, "cached", string(env.Body))

	_, shortCircuits, _, _, _ := p.Metrics()
	require.Equal(t, int64(1), shortCircuits)
}

func TestDoRequestInterceptorInjectsAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer t-123", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	registry := intercept.NewRegistry()
	registry.RegisterRequest(intercept.Matcher{TagsExclude: []string{"auth"}}, func(ctx context.Context, d *intercept.Descriptor) (*intercept.Envelope, error) {
		d.Headers.Set("Authorization", "Bearer t-123")
		return nil, nil
	})

	p := newTestPipeline(t, registry)

	env, err := p.Do(context.Background(), intercept.NewDescriptor(http.MethodGet, srv.URL))
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, env.StatusCode)
}

func TestDoResponseInterceptorConsumesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	invalidated := false
	registry := intercept.NewRegistry()
	registry.RegisterResponse(intercept.Matcher{}, func(ctx context.Context, d *intercept.Descriptor, e *intercept.Envelope) (*intercept.Envelope, error) {
		if e.StatusCode == http.StatusBadRequest {
			invalidated = true
			return nil, nil
		}
		return e, nil
	})

	p := newTestPipeline(t, registry)

	env, err := p.Do(context.Background(), intercept.NewDescriptor(http.MethodGet, srv.URL))
	require.NoError(t, err)
	require.Nil(t, env, "consumed response yields nil envelope, caller refetches")
	require.True(t, invalidated)
}

func TestDoErrorStatusYieldsProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := newTestPipeline(t, intercept.NewRegistry())

	env, err := p.Do(context.Background(), intercept.NewDescriptor(http.MethodGet, srv.URL))
	require.Error(t, err)

	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	require.Equal(t, http.StatusNotFound, protoErr.StatusCode)

	// envelope still available for diagnostics
	require.NotNil(t, env)
	require.Equal(t, http.StatusNotFound, env.StatusCode)
}

func TestDoTransportErrorAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening

	p := newTestPipeline(t, intercept.NewRegistry())

	d := intercept.NewDescriptor(http.MethodGet, srv.URL)
	d.Retries = 0

	env, err := p.Do(context.Background(), d)
	require.Nil(t, env)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)

	_, _, transportErrors, _, _ := p.Metrics()
	require.Equal(t, int64(1), transportErrors)
}

func TestDoZeroRetriesSingleAttempt(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		conn, _, err := w.(http.Hijacker).Hijack()
		require.NoError(t, err)
		conn.Close() // abort mid-response to provoke a transport error
	}))
	defer srv.Close()

	p := newTestPipeline(t, intercept.NewRegistry())

	d := intercept.NewDescriptor(http.MethodGet, srv.URL)
	d.Retries = 0

	_, err := p.Do(context.Background(), d)
	require.Error(t, err)
	require.Equal(t, int64(1), calls.Load())
}
