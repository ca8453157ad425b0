package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. CLAUDE_SESSION_MODEL
const EnvPrefix = "CLAUDE_SESSION"

// APIKeyEnv holds the Anthropic API key
const APIKeyEnv = "ANTHROPIC_API_KEY"

// Config holds the runtime settings
type Config struct {
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Locale    string        `mapstructure:"locale"`
	DataDir   string        `mapstructure:"data_dir"`
	APIKey    string        `mapstructure:"api_key"`
	API       APIConfig     `mapstructure:"api"`
	Logging   LoggingConfig `mapstructure:"logging"`
}

// APIConfig configures the Messages API client
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Version string        `mapstructure:"version"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultDataDir returns ~/.claude-session
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".claude-session"
	}
	return filepath.Join(home, ".claude-session")
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("model", DefaultModel)
	v.SetDefault("max_tokens", DefaultMaxTokens)
	v.SetDefault("locale", "ja")
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("api.base_url", "https://api.anthropic.com")
	v.SetDefault("api.version", "2023-06-01")
	v.SetDefault("api.timeout", "2m")
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")
}

// NewViper builds a viper instance with defaults, the optional config file
// and environment overrides applied. A .env file in the working directory
// is loaded first.
func NewViper(configPath string) (*viper.Viper, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api_key", APIKeyEnv); err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", APIKeyEnv, err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultDataDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return v, nil
}

// LoadConfig reads the configuration
func LoadConfig(configPath string) (*Config, error) {
	v, err := NewViper(configPath)
	if err != nil {
		return nil, err
	}
	return ConfigFromViper(v)
}

// ConfigFromViper decodes and validates the settings held by v
func ConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings for obvious mistakes
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	switch c.Locale {
	case "ja", "en":
	default:
		return fmt.Errorf("unsupported locale: %s (supported: ja, en)", c.Locale)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	return nil
}

// StorePath returns the session database location
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "session.db")
}

// ModelCachePath returns the model list cache location
func (c *Config) ModelCachePath() string {
	return filepath.Join(c.DataDir, "models.yaml")
}
