package help

import (
	"time"

	"github.com/openparks/gondola/config"
)

// Config returns an in-memory runtime config with waits shrunk so
// integration tests finish quickly.
func Config() *config.Runtime {
	cfg := &config.Runtime{
		Store: config.StoreCfg{InMemory: true},
		Pipeline: config.PipelineCfg{
			Retries:               1,
			RetryWaitMin:          time.Millisecond,
			RetryWaitMax:          5 * time.Millisecond,
			Timeout:               5 * time.Second,
			ProcessingDelay:       time.Millisecond,
			ProcessingMaxAttempts: 5,
			MaxRedirects:          3,
		},
		Live: config.LiveCfg{
			TTL:         time.Hour,
			ErrorBuffer: 8,
		},
		Driver: config.DriverCfg{
			Concurrency:   4,
			UpdatesPerSec: 1000,
			ScheduleTTL:   time.Hour,
		},
	}
	cfg.AdjustConfig()
	return cfg
}
