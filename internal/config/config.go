// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (DATABASE_URL, OPENAI_API_KEY, PORT, ...)
//  2. Config file (./config.yaml or ~/.chatdesk/config.yaml)
//  3. Default values
//
// The database connection is required: Load fails fast when neither
// DATABASE_URL nor explicit postgres settings are present. The OpenAI API key
// is optional; its absence selects the generation adapter's degraded mode.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Sentinel errors for configuration validation.
var (
	// ErrMissingDatabase indicates no database connection is configured.
	ErrMissingDatabase = errors.New("missing database configuration")

	// ErrInvalidPort indicates the listen port is out of range.
	ErrInvalidPort = errors.New("invalid port")

	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidMaxReplyTokens indicates the reply token ceiling is out of range.
	ErrInvalidMaxReplyTokens = errors.New("invalid max reply tokens")

	// ErrInvalidRequestTimeout indicates the generation timeout is out of range.
	ErrInvalidRequestTimeout = errors.New("invalid request timeout")
)

// Defaults mirroring the presentation client's expectations.
const (
	// DefaultPort is the HTTP listen port.
	DefaultPort = 3001

	// DefaultModelName is the chat completion model.
	DefaultModelName = "gpt-4o-mini"

	// DefaultMaxReplyTokens is the response-length ceiling for live generation.
	DefaultMaxReplyTokens = 300

	// DefaultRequestTimeoutSeconds bounds a single generation call.
	DefaultRequestTimeoutSeconds = 30
)

// Config stores application configuration.
// SECURITY: Sensitive fields are masked in MarshalJSON.
type Config struct {
	// HTTP surface
	Port        int      `mapstructure:"port" json:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`

	// Generation provider
	OpenAIAPIKey          string `mapstructure:"openai_api_key" json:"openai_api_key"` // SENSITIVE: masked in MarshalJSON
	ModelName             string `mapstructure:"model_name" json:"model_name"`
	MaxReplyTokens        int    `mapstructure:"max_reply_tokens" json:"max_reply_tokens"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" json:"request_timeout_seconds"`

	// Storage (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Logging
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`

	// set by parseDatabaseURL when DATABASE_URL was provided
	databaseConfigured bool
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".chatdesk"))
	}

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults and env apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL has highest priority for PostgreSQL settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("port", DefaultPort)
	v.SetDefault("cors_origins", []string{"*"})

	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("max_reply_tokens", DefaultMaxReplyTokens)
	v.SetDefault("request_timeout_seconds", DefaultRequestTimeoutSeconds)

	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_ssl_mode", "disable")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// bindEnvVariables binds environment variables explicitly.
// DATABASE_URL is handled separately in parseDatabaseURL.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug, not a
	// runtime condition.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("openai_api_key", "OPENAI_API_KEY")
	mustBind("port", "PORT")
	mustBind("cors_origins", "CHATDESK_CORS_ORIGINS")
	mustBind("model_name", "CHATDESK_MODEL_NAME")
	mustBind("log_level", "CHATDESK_LOG_LEVEL")
	mustBind("log_json", "CHATDESK_LOG_JSON")
}

// Validate checks the configuration, failing fast on startup misconfiguration.
func (c *Config) Validate() error {
	if !c.databaseConfigured && (c.PostgresHost == "" || c.PostgresUser == "" || c.PostgresDBName == "") {
		return fmt.Errorf("%w: set DATABASE_URL or postgres_* settings", ErrMissingDatabase)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}
	if c.ModelName == "" {
		return ErrInvalidModelName
	}
	if c.MaxReplyTokens < 1 || c.MaxReplyTokens > 32768 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxReplyTokens, c.MaxReplyTokens)
	}
	if c.RequestTimeoutSeconds < 1 || c.RequestTimeoutSeconds > 600 {
		return fmt.Errorf("%w: %ds", ErrInvalidRequestTimeout, c.RequestTimeoutSeconds)
	}
	return nil
}

// ListenAddr returns the HTTP listen address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret for safe logging. Short secrets are fully masked;
// longer secrets keep the first and last two characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	a.OpenAIAPIKey = maskSecret(a.OpenAIAPIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
