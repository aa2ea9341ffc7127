package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Runtime groups configuration of all destination-runtime subsystems.
// Optional subsystems can be disabled by setting their section to nil.
type Runtime struct {
	Store StoreCfg `yaml:"store"`

	// Pipeline configures the outbound HTTP request pipeline: retry counts,
	// backoff bounds and the 202 "still processing" re-poll policy.
	Pipeline PipelineCfg `yaml:"pipeline"`

	// Live configures the live-data change-detection engine.
	Live LiveCfg `yaml:"live"`

	// Driver configures connector fan-out concurrency and throttling.
	Driver DriverCfg `yaml:"driver"`

	// Sweep configures background removal of expired cache entries.
	// If nil, expired entries are only dropped lazily on read.
	Sweep *SweepCfg `yaml:"sweep"`

	// Telemetry configures the periodic counters log.
	// If nil, no telemetry is logged.
	Telemetry *TelemetryCfg `yaml:"telemetry"`
}

func (cfg *Runtime) AdjustConfig() {
	cfg.Pipeline.adjust()
	cfg.Live.adjust()
	cfg.Driver.adjust()
	if cfg.Sweep.Enabled() {
		cfg.Sweep.adjust()
	}
	if cfg.Telemetry.Enabled() {
		cfg.Telemetry.adjust()
	}
}

func LoadConfig(path string) (*Runtime, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	var cfg *Runtime
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	cfg.AdjustConfig()

	return cfg, nil
}
