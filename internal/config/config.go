// Package config handles configuration for the tracker client, including
// defaults, JSON overlay, and command-line flags.
package config

import (
	"time"

	"github.com/dmitrijs2005/modelfetch/internal/trust"
)

// Config holds runtime settings for the download session tracker.
//
// Fields:
//   - Endpoint: base URL of the backend exposing the download API.
//   - RequestTimeout: per-call timeout for transfer requests and poll queries.
//   - PollInterval: cadence of the pull adapter's per-session status queries.
//   - PollTimeout: hard wall-clock deadline per session; expiry forces TimedOut.
//   - AttachRetryInterval / AttachMaxAttempts: bounded retry policy for
//     attaching to the host's event channel.
//   - StillWaitingEvery: after this many consecutive failed poll ticks,
//     re-emit the current state so observers do not appear frozen.
//   - EvictionDelay: grace period between a terminal status and automatic
//     session removal.
//   - TrustedDomains: origin allow-list consulted before any transfer.
type Config struct {
	Endpoint            string
	RequestTimeout      time.Duration
	PollInterval        time.Duration
	PollTimeout         time.Duration
	AttachRetryInterval time.Duration
	AttachMaxAttempts   int
	StillWaitingEvery   int
	EvictionDelay       time.Duration
	TrustedDomains      []string
}

// LoadDefaults populates c with the stock settings of the original system:
// 1s polling, 30 minute deadline, ten 1s attach attempts, every 5th failed
// tick re-notified, 60s eviction grace.
func (c *Config) LoadDefaults() {
	c.Endpoint = "http://127.0.0.1:8188"
	c.RequestTimeout = 30 * time.Second
	c.PollInterval = 1 * time.Second
	c.PollTimeout = 30 * time.Minute
	c.AttachRetryInterval = 1 * time.Second
	c.AttachMaxAttempts = 10
	c.StillWaitingEvery = 5
	c.EvictionDelay = 60 * time.Second
	c.TrustedDomains = append([]string(nil), trust.DefaultDomains...)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
