package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	lconfig "github.com/lixenwraith/config"
)

type Config struct {
	PagerDuty PagerDutyConfig `toml:"pagerduty"`
	Logstash  LogstashConfig  `toml:"logstash"`
	Logging   *LogConfig      `toml:"logging"`
	Quiet     bool            `toml:"quiet"`
}

type PagerDutyConfig struct {
	APIURL string `toml:"api_url"`
	APIKey string `toml:"api_key"`

	// RFC 3339 window bounds; empty values default to now-1h / now at load
	Since string `toml:"since"`
	Until string `toml:"until"`

	PageSize       int `toml:"page_size"`
	TimeoutSeconds int `toml:"timeout_seconds"`
}

type LogstashConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`

	// Pause between consecutive datagram sends
	SendDelayMs int `toml:"send_delay_ms"`

	DialTimeoutSeconds  int    `toml:"dial_timeout_seconds"`
	WriteTimeoutSeconds int    `toml:"write_timeout_seconds"`
	Format              string `toml:"format"`
}

// Overrides carries CLI flag values that take precedence over file and
// environment configuration.
type Overrides struct {
	APIKey    string
	Since     string
	Until     string
	Host      string
	Port      int
	Quiet     bool
	LogOutput string
	LogLevel  string
}

func defaults() *Config {
	return &Config{
		PagerDuty: PagerDutyConfig{
			APIURL:         "https://api.pagerduty.com",
			PageSize:       25,
			TimeoutSeconds: 30,
		},
		Logstash: LogstashConfig{
			SendDelayMs:         500,
			DialTimeoutSeconds:  10,
			WriteTimeoutSeconds: 30,
			Format:              "json",
		},
		Logging: DefaultLogConfig(),
	}
}

func LoadWithCLI(cliArgs []string, overrides *Overrides) (*Config, error) {
	configPath := GetConfigPath()

	cfg, err := lconfig.NewBuilder().
		WithDefaults(defaults()).
		WithEnvPrefix("PDRELAY_").
		WithFile(configPath).
		WithArgs(cliArgs).
		WithEnvTransform(customEnvTransform).
		WithSources(
			lconfig.SourceCLI,
			lconfig.SourceEnv,
			lconfig.SourceFile,
			lconfig.SourceDefault,
		).
		Build()

	if err != nil {
		if !strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	finalConfig := &Config{}
	if err := cfg.Scan(finalConfig); err != nil {
		return nil, fmt.Errorf("failed to scan config: %w", err)
	}

	finalConfig.applyOverrides(overrides)
	finalConfig.applyWindowDefaults(time.Now().UTC())

	return finalConfig, finalConfig.validate()
}

func customEnvTransform(path string) string {
	env := strings.ReplaceAll(path, ".", "_")
	env = strings.ToUpper(env)
	env = "PDRELAY_" + env
	return env
}

func GetConfigPath() string {
	if configFile := os.Getenv("PDRELAY_CONFIG_FILE"); configFile != "" {
		if filepath.IsAbs(configFile) {
			return configFile
		}
		if configDir := os.Getenv("PDRELAY_CONFIG_DIR"); configDir != "" {
			return filepath.Join(configDir, configFile)
		}
		return configFile
	}

	if configDir := os.Getenv("PDRELAY_CONFIG_DIR"); configDir != "" {
		return filepath.Join(configDir, "pdrelay.toml")
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", "pdrelay.toml")
	}

	return "pdrelay.toml"
}

func (c *Config) applyOverrides(o *Overrides) {
	if o == nil {
		return
	}
	if o.APIKey != "" {
		c.PagerDuty.APIKey = o.APIKey
	}
	if o.Since != "" {
		c.PagerDuty.Since = o.Since
	}
	if o.Until != "" {
		c.PagerDuty.Until = o.Until
	}
	if o.Host != "" {
		c.Logstash.Host = o.Host
	}
	if o.Port != 0 {
		c.Logstash.Port = o.Port
	}
	if o.Quiet {
		c.Quiet = true
	}
	if c.Logging == nil {
		c.Logging = DefaultLogConfig()
	}
	if o.LogOutput != "" {
		c.Logging.Output = o.LogOutput
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
}

// applyWindowDefaults fills an unset time range with the last hour.
func (c *Config) applyWindowDefaults(now time.Time) {
	if c.PagerDuty.Since == "" {
		c.PagerDuty.Since = now.Add(-time.Hour).Format(time.RFC3339)
	}
	if c.PagerDuty.Until == "" {
		c.PagerDuty.Until = now.Format(time.RFC3339)
	}
}

// Window returns the parsed time range.
func (c *Config) Window() (since, until time.Time, err error) {
	since, err = time.Parse(time.RFC3339, c.PagerDuty.Since)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid since time %q: %w", c.PagerDuty.Since, err)
	}
	until, err = time.Parse(time.RFC3339, c.PagerDuty.Until)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid until time %q: %w", c.PagerDuty.Until, err)
	}
	return since, until, nil
}

// Address returns the collector destination as host:port.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Logstash.Host, strconv.Itoa(c.Logstash.Port))
}

func (c *Config) validate() error {
	if c.PagerDuty.APIKey == "" {
		return fmt.Errorf("pagerduty.api_key is required")
	}
	if c.PagerDuty.APIURL == "" {
		return fmt.Errorf("pagerduty.api_url must not be empty")
	}
	if c.PagerDuty.PageSize < 1 || c.PagerDuty.PageSize > 100 {
		return fmt.Errorf("invalid page size: %d (valid: 1-100)", c.PagerDuty.PageSize)
	}
	if c.PagerDuty.TimeoutSeconds < 1 {
		return fmt.Errorf("pagerduty timeout must be positive: %d", c.PagerDuty.TimeoutSeconds)
	}

	since, until, err := c.Window()
	if err != nil {
		return err
	}
	if until.Before(since) {
		return fmt.Errorf("time range end %s precedes start %s", c.PagerDuty.Until, c.PagerDuty.Since)
	}

	if c.Logstash.Host == "" {
		return fmt.Errorf("logstash.host is required")
	}
	if c.Logstash.Port < 1 || c.Logstash.Port > 65535 {
		return fmt.Errorf("invalid logstash port: %d", c.Logstash.Port)
	}
	if c.Logstash.SendDelayMs < 0 {
		return fmt.Errorf("send delay must not be negative: %d", c.Logstash.SendDelayMs)
	}
	if c.Logstash.Format != "" && c.Logstash.Format != "json" {
		return fmt.Errorf("invalid logstash format: %s", c.Logstash.Format)
	}

	if c.Logging != nil {
		if err := validateLogConfig(c.Logging); err != nil {
			return err
		}
	}

	return nil
}
