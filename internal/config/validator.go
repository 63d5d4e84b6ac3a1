package config

import (
	"fmt"
	"regexp"
	"strings"
)

var botTokenPattern = regexp.MustCompile(`^xox[abpe]-[A-Za-z0-9-]+$`)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateBotToken checks the token's shape only; Slack decides whether it
// is actually valid.
func (v *Validator) ValidateBotToken(token string) error {
	if token == "" {
		return fmt.Errorf("slack bot token cannot be empty")
	}
	if !botTokenPattern.MatchString(token) {
		return fmt.Errorf("invalid Slack token format (should start with xoxb- or xoxp-)")
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"trace", "debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateAPIURL requires an absolute http(s) URL ending in a slash, which
// is what slack-go appends method names to.
func (v *Validator) ValidateAPIURL(url string) error {
	if url == "" {
		return nil // slack-go default
	}
	if !strings.HasPrefix(url, "https://") && !strings.HasPrefix(url, "http://") {
		return fmt.Errorf("invalid slack api_url %q (must be http or https)", url)
	}
	if !strings.HasSuffix(url, "/") {
		return fmt.Errorf("invalid slack api_url %q (must end with /)", url)
	}
	return nil
}

// ValidateConfig performs comprehensive validation and reports every problem
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if cfg.Slack.BotToken != "" {
		if err := v.ValidateBotToken(cfg.Slack.BotToken); err != nil {
			errors = append(errors, err)
		}
	}
	if err := v.ValidateAPIURL(cfg.Slack.APIURL); err != nil {
		errors = append(errors, err)
	}
	if cfg.Slack.Timeout <= 0 {
		errors = append(errors, fmt.Errorf("slack.timeout must be positive"))
	}

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}
	if cfg.Logging.MaxSize < 0 {
		errors = append(errors, fmt.Errorf("logging.max_size must be >= 0"))
	}
	if cfg.Logging.MaxAge < 0 {
		errors = append(errors, fmt.Errorf("logging.max_age must be >= 0"))
	}

	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errors = append(errors, fmt.Errorf("tracing.sample_ratio must be between 0 and 1"))
	}

	return errors
}
