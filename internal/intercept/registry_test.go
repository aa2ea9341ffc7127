package intercept

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunRequestAppliesInRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	var order []string

	r.RegisterRequest(Matcher{}, func(ctx context.Context, d *Descriptor) (*Envelope, error) {
		order = append(order, "first")
		d.Headers.Set("Authorization", "Bearer token")
		return nil, nil
	})
	r.RegisterRequest(Matcher{}, func(ctx context.Context, d *Descriptor) (*Envelope, error) {
		order = append(order, "second")
		return nil, nil
	})

	d := NewDescriptor(http.MethodGet, "https://api.example.com/x")
	e, err := r.RunRequest(context.Background(), d)
	require.NoError(t, err)
	require.Nil(t, e)
	require.Equal(t, []string{"first", "second"}, order)
	require.Equal(t, "Bearer token", d.Headers.Get("Authorization"))
}

func TestRunRequestShortCircuits(t *testing.T) {
	r := NewRegistry()
	reached := false

	canned := &Envelope{StatusCode: http.StatusOK, Body: []byte("cached")}
	r.RegisterRequest(Matcher{}, func(ctx context.Context, d *Descriptor) (*Envelope, error) {
		return canned, nil
	})
	r.RegisterRequest(Matcher{}, func(ctx context.Context, d *Descriptor) (*Envelope, error) {
		reached = true
		return nil, nil
	})

	e, err := r.RunRequest(context.Background(), NewDescriptor(http.MethodGet, "x"))
	require.NoError(t, err)
	require.Same(t, canned, e)
	require.False(t, reached, "handlers after a short-circuit must not run")
}

func TestRunRequestSkipsNonMatching(t *testing.T) {
	r := NewRegistry()
	ran := false

	r.RegisterRequest(Matcher{Hostname: "other.example.com"}, func(ctx context.Context, d *Descriptor) (*Envelope, error) {
		ran = true
		return nil, nil
	})

	_, err := r.RunRequest(context.Background(), NewDescriptor(http.MethodGet, "https://api.example.com/x"))
	require.NoError(t, err)
	require.False(t, ran)
}

func TestRunRequestWrapsHandlerError(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	r.RegisterRequest(Matcher{}, func(ctx context.Context, d *Descriptor) (*Envelope, error) {
		return nil, boom
	})

	_, err := r.RunRequest(context.Background(), NewDescriptor(http.MethodGet, "x"))
	require.ErrorIs(t, err, boom)
}

func TestRunResponseThreadsEnvelope(t *testing.T) {
	r := NewRegistry()

	r.RegisterResponse(Matcher{}, func(ctx context.Context, d *Descriptor, e *Envelope) (*Envelope, error) {
		return &Envelope{StatusCode: e.StatusCode, Body: append(e.Body, '!')}, nil
	})
	r.RegisterResponse(Matcher{}, func(ctx context.Context, d *Descriptor, e *Envelope) (*Envelope, error) {
		return &Envelope{StatusCode: e.StatusCode, Body: append(e.Body, '?')}, nil
	})

	e, err := r.RunResponse(context.Background(),
		NewDescriptor(http.MethodGet, "x"),
		&Envelope{StatusCode: http.StatusOK, Body: []byte("ok")})
	require.NoError(t, err)
	require.Equal(t, []byte("ok!?"), e.Body)
}

func TestRunResponseNilSignalsRefetch(t *testing.T) {
	r := NewRegistry()
	reached := false

	r.RegisterResponse(Matcher{}, func(ctx context.Context, d *Descriptor, e *Envelope) (*Envelope, error) {
		if e.StatusCode == http.StatusBadRequest {
			return nil, nil // stale token, drop the response
		}
		return e, nil
	})
	r.RegisterResponse(Matcher{}, func(ctx context.Context, d *Descriptor, e *Envelope) (*Envelope, error) {
		reached = true
		return e, nil
	})

	e, err := r.RunResponse(context.Background(),
		NewDescriptor(http.MethodGet, "x"),
		&Envelope{StatusCode: http.StatusBadRequest})
	require.NoError(t, err)
	require.Nil(t, e)
	require.False(t, reached, "handlers after a nil signal must not run")
}

func TestEnvelopeHeaderNilSafe(t *testing.T) {
	var e Envelope
	require.Empty(t, e.Header("Content-Type"))

	e.Headers = http.Header{"Content-Type": []string{"application/json"}}
	require.Equal(t, "application/json", e.Header("Content-Type"))
}
