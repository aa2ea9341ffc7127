package config

import "time"

type DriverCfg struct {
	// Concurrency bounds how many entity updates run at once during a
	// connector sync fan-out.
	Concurrency int `yaml:"concurrency"`

	// UpdatesPerSec throttles live-data updates across the fan-out.
	UpdatesPerSec int `yaml:"updates_per_sec"`

	// ScheduleTTL is the cache lifetime for stored schedule data.
	ScheduleTTL time.Duration `yaml:"schedule_ttl"`
}

func (cfg *DriverCfg) adjust() {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 16
	}
	if cfg.UpdatesPerSec <= 0 {
		cfg.UpdatesPerSec = 500
	}
	if cfg.ScheduleTTL <= 0 {
		cfg.ScheduleTTL = 12 * time.Hour
	}
}
