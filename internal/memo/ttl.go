package memo

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TTL describes how long a memoized result lives: either a fixed duration
// or a function of the produced result (for server-provided expiries).
type TTL struct {
	fixed time.Duration
	fn    func(result []byte) time.Duration
}

func Fixed(d time.Duration) TTL {
	return TTL{fixed: d}
}

// FromResult computes the TTL from the serialized result after the producer
// runs. Returning <= 0 stores nothing.
func FromResult(fn func(result []byte) time.Duration) TTL {
	return TTL{fn: fn}
}

// Parse reads the compact duration grammar: a bare number is minutes,
// "Nm" minutes, "Nh" hours, "Nd" days.
func Parse(s string) (TTL, error) {
	d, err := ParseDuration(s)
	if err != nil {
		return TTL{}, err
	}
	return Fixed(d), nil
}

func MustParse(s string) TTL {
	ttl, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return ttl
}

func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty ttl")
	}

	unit := time.Minute
	num := s
	switch s[len(s)-1] {
	case 'm':
		num = s[:len(s)-1]
	case 'h':
		unit = time.Hour
		num = s[:len(s)-1]
	case 'd':
		unit = 24 * time.Hour
		num = s[:len(s)-1]
	}

	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, fmt.Errorf("parse ttl %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("parse ttl %q: negative", s)
	}
	return time.Duration(n) * unit, nil
}

func (t TTL) resolve(result []byte) time.Duration {
	if t.fn != nil {
		return t.fn(result)
	}
	return t.fixed
}
