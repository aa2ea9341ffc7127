package config

type SweepCfg struct {
	// Rate limits sweep scans per second.
	// Example: 100.
	Rate int `yaml:"rate"`

	// BatchLimit bounds how many expired entries one scan removes.
	BatchLimit int `yaml:"batch_limit"`
}

func (cfg *SweepCfg) Enabled() bool {
	return cfg != nil
}

func (cfg *SweepCfg) adjust() {
	if cfg.Rate <= 0 {
		cfg.Rate = 10
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 256
	}
}
