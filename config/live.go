package config

import "time"

type LiveCfg struct {
	// TTL is the lifetime of stored live-data records. Records past their
	// TTL read as absent, so the next update is always treated as a change.
	// Example: "24h".
	TTL time.Duration `yaml:"ttl"`

	// ErrorBuffer sizes the validation-error channel. When full, further
	// validation errors are counted and dropped instead of blocking updates.
	ErrorBuffer int `yaml:"error_buffer"`
}

func (cfg *LiveCfg) adjust() {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.ErrorBuffer <= 0 {
		cfg.ErrorBuffer = 64
	}
}
