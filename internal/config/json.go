package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/modelfetch/internal/flagx"
	"github.com/dmitrijs2005/modelfetch/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "3s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config (which uses time.Duration).
type JsonConfig struct {
	Endpoint            string         `json:"endpoint"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	PollInterval        timex.Duration `json:"poll_interval"`
	PollTimeout         timex.Duration `json:"poll_timeout"`
	AttachRetryInterval timex.Duration `json:"attach_retry_interval"`
	AttachMaxAttempts   *int           `json:"attach_max_attempts"`
	StillWaitingEvery   *int           `json:"still_waiting_every"`
	EvictionDelay       timex.Duration `json:"eviction_delay"`
	TrustedDomains      []string       `json:"trusted_domains"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Only fields present in the file override the config; absent durations
// (zero) and nil pointers/slices leave the defaults alone. Panics on read
// or unmarshal errors (caller should recover if desired).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.Endpoint != "" {
		cfg.Endpoint = jc.Endpoint
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.PollInterval.Duration > 0 {
		cfg.PollInterval = jc.PollInterval.Duration
	}
	if jc.PollTimeout.Duration > 0 {
		cfg.PollTimeout = jc.PollTimeout.Duration
	}
	if jc.AttachRetryInterval.Duration > 0 {
		cfg.AttachRetryInterval = jc.AttachRetryInterval.Duration
	}
	if jc.AttachMaxAttempts != nil {
		cfg.AttachMaxAttempts = *jc.AttachMaxAttempts
	}
	if jc.StillWaitingEvery != nil {
		cfg.StillWaitingEvery = *jc.StillWaitingEvery
	}
	if jc.EvictionDelay.Duration > 0 {
		cfg.EvictionDelay = jc.EvictionDelay.Duration
	}
	if jc.TrustedDomains != nil {
		cfg.TrustedDomains = jc.TrustedDomains
	}
}
