package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/modelfetch/internal/trust"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8188", c.Endpoint)
	assert.Equal(t, 1*time.Second, c.PollInterval)
	assert.Equal(t, 30*time.Minute, c.PollTimeout)
	assert.Equal(t, 1*time.Second, c.AttachRetryInterval)
	assert.Equal(t, 10, c.AttachMaxAttempts)
	assert.Equal(t, 5, c.StillWaitingEvery)
	assert.Equal(t, 60*time.Second, c.EvictionDelay)
	assert.Equal(t, trust.DefaultDomains, c.TrustedDomains)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://127.0.0.1:8188", cfg.Endpoint)
	assert.Equal(t, 1*time.Second, cfg.PollInterval)
}

func TestLoadDefaults_CopiesDomainList(t *testing.T) {
	var c Config
	c.LoadDefaults()

	c.TrustedDomains[0] = "tampered.example"
	assert.Equal(t, "huggingface.co", trust.DefaultDomains[0],
		"mutating a config must not touch the package default list")
}
