package config

import (
	"net/url"
	"time"
)

type PipelineCfg struct {
	// Retries is the default transport-level retry count for a request that
	// does not specify its own. A per-request value of 0 disables retries.
	Retries int `yaml:"retries"`

	// RetryWaitMin and RetryWaitMax bound the backoff between transport
	// retries.
	RetryWaitMin time.Duration `yaml:"retry_wait_min"`
	RetryWaitMax time.Duration `yaml:"retry_wait_max"`

	// Timeout is the whole-request deadline for the bounded timeout policy.
	// Requests with the unbounded policy ignore it.
	Timeout time.Duration `yaml:"timeout"`

	// ProcessingDelay is the fixed wait before re-polling after a
	// 202 Accepted response.
	ProcessingDelay time.Duration `yaml:"processing_delay"`

	// ProcessingMaxAttempts bounds 202 re-polls. After the bound the last
	// response is returned as-is.
	ProcessingMaxAttempts int `yaml:"processing_max_attempts"`

	// MaxRedirects bounds manual 303 Location follows.
	MaxRedirects int `yaml:"max_redirects"`

	// ProxyURL routes every request through a plain HTTP(S) forward proxy.
	// Scraping-proxy URL rewriting is an interceptor concern, not this.
	ProxyURL string `yaml:"proxy_url"`

	// UserAgent is attached to every outgoing request unless the descriptor
	// already carries one.
	UserAgent string `yaml:"user_agent"`
}

func (cfg *PipelineCfg) adjust() {
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.RetryWaitMin <= 0 {
		cfg.RetryWaitMin = time.Second
	}
	if cfg.RetryWaitMax <= 0 {
		cfg.RetryWaitMax = 10 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ProcessingDelay <= 0 {
		cfg.ProcessingDelay = 2 * time.Second
	}
	if cfg.ProcessingMaxAttempts <= 0 {
		cfg.ProcessingMaxAttempts = 10
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = 5
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "gondola/1.0"
	}
}

func (cfg *PipelineCfg) Proxy() (*url.URL, error) {
	if cfg.ProxyURL == "" {
		return nil, nil
	}
	return url.Parse(cfg.ProxyURL)
}
