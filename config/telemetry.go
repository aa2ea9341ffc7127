package config

import "time"

type TelemetryCfg struct {
	// Interval between counter snapshots in the log.
	Interval time.Duration `yaml:"interval"`
}

func (cfg *TelemetryCfg) Enabled() bool {
	return cfg != nil
}

func (cfg *TelemetryCfg) adjust() {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
}
