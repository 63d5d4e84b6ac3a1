package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix namespaces every config key in the environment.
	EnvPrefix = "SLACK_MCP"

	// BotTokenEnv is the conventional credential variable.
	BotTokenEnv = "SLACK_BOT_TOKEN"

	defaultEnvFile = ".env"
)

// Loader handles configuration loading
type Loader struct {
	configPath string
	envFile    string
}

// NewLoader creates a new config loader. An empty envFile means ".env" in
// the working directory, which may be absent.
func NewLoader(configPath, envFile string) *Loader {
	return &Loader{
		configPath: configPath,
		envFile:    envFile,
	}
}

// Load merges defaults, the optional config file, the .env file and the
// process environment, in increasing precedence.
func (l *Loader) Load() (*Config, error) {
	if err := l.loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("slack.bot_token", EnvPrefix+"_SLACK_BOT_TOKEN", BotTokenEnv); err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", BotTokenEnv, err)
	}

	if l.configPath != "" {
		if _, err := os.Stat(l.configPath); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		v.SetConfigFile(l.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Slack.BotToken = strings.TrimSpace(cfg.Slack.BotToken)

	return cfg, nil
}

// GetConfigPath returns the config file path, empty when none was given
func (l *Loader) GetConfigPath() string {
	return l.configPath
}

// loadEnvFile applies the .env file without overriding variables that are
// already set. A missing default file is not an error; a missing explicit
// one is.
func (l *Loader) loadEnvFile() error {
	path := l.envFile
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to read env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("slack.bot_token", cfg.Slack.BotToken)
	v.SetDefault("slack.api_url", cfg.Slack.APIURL)
	v.SetDefault("slack.timeout", cfg.Slack.Timeout.String())

	v.SetDefault("tools.allow", cfg.Tools.Allow)
	v.SetDefault("tools.deny", cfg.Tools.Deny)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.max_size", cfg.Logging.MaxSize)
	v.SetDefault("logging.max_age", cfg.Logging.MaxAge)
	v.SetDefault("logging.compress", cfg.Logging.Compress)
	v.SetDefault("logging.redaction", cfg.Logging.Redaction)
	v.SetDefault("logging.pretty", cfg.Logging.Pretty)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.addr", cfg.Metrics.Addr)

	v.SetDefault("tracing.enabled", cfg.Tracing.Enabled)
	v.SetDefault("tracing.service_name", cfg.Tracing.ServiceName)
	v.SetDefault("tracing.sample_ratio", cfg.Tracing.SampleRatio)

	v.SetDefault("audit.file", cfg.Audit.File)
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath, envFile string) (*Config, error) {
	return NewLoader(configPath, envFile).Load()
}
