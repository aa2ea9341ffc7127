package rate

import (
	"context"

	"go.uber.org/ratelimit"
)

// Jitter adapts a leaky-bucket limiter into a channel so workers can select
// on throttle permits together with ctx cancellation.
type Jitter struct {
	ch    chan struct{}
	l     ratelimit.Limiter
	limit int
}

// NewJitter allows up to limit takes per second with a small burst buffer.
func NewJitter(ctx context.Context, limit int) *Jitter {
	burst := int(float64(limit) * 0.1)
	if burst < 1 {
		burst = 1
	}
	j := &Jitter{
		limit: limit,
		ch:    make(chan struct{}, burst),
		l:     ratelimit.New(limit),
	}
	go j.provider(ctx)
	return j
}

func (j *Jitter) provider(ctx context.Context) {
	defer close(j.ch)
	for {
		j.l.Take()
		select {
		case <-ctx.Done():
			return
		case j.ch <- struct{}{}:
		}
	}
}

// Take blocks until a permit is available or the provider shut down.
func (j *Jitter) Take() {
	<-j.ch
}

func (j *Jitter) Chan() <-chan struct{} {
	return j.ch
}
