package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := defaults()
	cfg.PagerDuty.APIKey = "test-key"
	cfg.Logstash.Host = "logstash.internal"
	cfg.Logstash.Port = 9700
	cfg.applyWindowDefaults(time.Date(2023, 6, 5, 15, 0, 0, 0, time.UTC))
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	t.Run("ValidDefaults", func(t *testing.T) {
		assert.NoError(t, validConfig().validate())
	})

	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"MissingAPIKey", func(c *Config) { c.PagerDuty.APIKey = "" }},
		{"MissingHost", func(c *Config) { c.Logstash.Host = "" }},
		{"PortOutOfRange", func(c *Config) { c.Logstash.Port = 70000 }},
		{"PageSizeZero", func(c *Config) { c.PagerDuty.PageSize = 0 }},
		{"PageSizeTooLarge", func(c *Config) { c.PagerDuty.PageSize = 101 }},
		{"NegativeSendDelay", func(c *Config) { c.Logstash.SendDelayMs = -1 }},
		{"BadSinceTimestamp", func(c *Config) { c.PagerDuty.Since = "yesterday" }},
		{"InvertedWindow", func(c *Config) {
			c.PagerDuty.Since = "2023-06-05T16:00:00Z"
			c.PagerDuty.Until = "2023-06-05T14:00:00Z"
		}},
		{"UnknownFormat", func(c *Config) { c.Logstash.Format = "xml" }},
		{"BadLogLevel", func(c *Config) { c.Logging.Level = "verbose" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.validate())
		})
	}
}

func TestConfig_WindowDefaults(t *testing.T) {
	now := time.Date(2023, 6, 5, 15, 0, 0, 0, time.UTC)

	cfg := defaults()
	cfg.applyWindowDefaults(now)

	since, until, err := cfg.Window()
	require.NoError(t, err)
	assert.Equal(t, now.Add(-time.Hour), since)
	assert.Equal(t, now, until)

	// Explicit values are left alone
	cfg = defaults()
	cfg.PagerDuty.Since = "2023-06-01T00:00:00Z"
	cfg.applyWindowDefaults(now)
	since, until, err = cfg.Window()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), since)
	assert.Equal(t, now, until)
}

func TestConfig_Overrides(t *testing.T) {
	cfg := validConfig()
	cfg.applyOverrides(&Overrides{
		APIKey:   "flag-key",
		Host:     "other.internal",
		Port:     9999,
		Since:    "2023-06-05T10:00:00Z",
		LogLevel: "debug",
	})

	assert.Equal(t, "flag-key", cfg.PagerDuty.APIKey)
	assert.Equal(t, "other.internal", cfg.Logstash.Host)
	assert.Equal(t, 9999, cfg.Logstash.Port)
	assert.Equal(t, "2023-06-05T10:00:00Z", cfg.PagerDuty.Since)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.NoError(t, cfg.validate())
}

func TestConfig_Address(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "logstash.internal:9700", cfg.Address())
}
