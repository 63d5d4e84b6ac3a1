package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMissingBotToken is returned when no Slack credential is configured.
var ErrMissingBotToken = errors.New("SLACK_BOT_TOKEN is not set. Please set it in your environment or .env file.")

// Config represents the slack-mcp configuration
type Config struct {
	// Slack Web API
	Slack SlackConfig `json:"slack" mapstructure:"slack"`

	// Tool exposure
	Tools ToolsConfig `json:"tools" mapstructure:"tools"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Prometheus metrics
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// OpenTelemetry tracing
	Tracing TracingConfig `json:"tracing" mapstructure:"tracing"`

	// Audit trail of Slack writes
	Audit AuditConfig `json:"audit" mapstructure:"audit"`
}

// SlackConfig holds the Slack Web API settings
type SlackConfig struct {
	BotToken string        `json:"bot_token" mapstructure:"bot_token"`
	APIURL   string        `json:"api_url" mapstructure:"api_url"` // empty means slack-go's default
	Timeout  time.Duration `json:"timeout" mapstructure:"timeout"`
}

// ToolsConfig limits which tools are exposed. Entries are names or globs.
type ToolsConfig struct {
	Allow []string `json:"allow" mapstructure:"allow"` // empty means all
	Deny  []string `json:"deny" mapstructure:"deny"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
}

// MetricsConfig holds the metrics listener configuration
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled     bool    `json:"enabled" mapstructure:"enabled"`
	ServiceName string  `json:"service_name" mapstructure:"service_name"`
	SampleRatio float64 `json:"sample_ratio" mapstructure:"sample_ratio"`
}

// AuditConfig holds the audit log settings
type AuditConfig struct {
	File string `json:"file" mapstructure:"file"` // empty disables auditing
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Slack: SlackConfig{
			Timeout: 30 * time.Second,
		},
		Tools: ToolsConfig{
			Allow: []string{},
			Deny:  []string{},
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
			Pretty:    true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "slack-mcp-server",
			SampleRatio: 1.0,
		},
	}
}

// String returns a JSON representation of the config with the token masked
func (c *Config) String() string {
	masked := *c
	if masked.Slack.BotToken != "" {
		masked.Slack.BotToken = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(masked, "", "  ")
	return string(data)
}

// RequireBotToken fails when no Slack credential is configured.
func (c *Config) RequireBotToken() error {
	if c.Slack.BotToken == "" {
		return ErrMissingBotToken
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Slack.Timeout <= 0 {
		return fmt.Errorf("slack timeout must be positive, got %s", c.Slack.Timeout)
	}

	if err := NewValidator().ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if c.Logging.File != "" && c.Logging.MaxSize <= 0 {
		return fmt.Errorf("logging max_size must be positive when a log file is set")
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics addr is required when metrics are enabled")
	}

	if c.Tracing.Enabled {
		if c.Tracing.ServiceName == "" {
			return fmt.Errorf("tracing service_name is required when tracing is enabled")
		}
		if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
			return fmt.Errorf("tracing sample_ratio must be between 0 and 1, got %v", c.Tracing.SampleRatio)
		}
	}

	return nil
}
