package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/phishguard/")
	v.AddConfigPath("$HOME/.phishguard")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("PHISHGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Backend defaults
	v.SetDefault("backend.url", "http://localhost:5000")
	v.SetDefault("backend.timeout", "15s")

	// Classifier defaults
	v.SetDefault("classifier.provider", "backend")

	// OpenAI defaults (direct classifier mode)
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.top_p", 0.9)

	// Scanner defaults
	v.SetDefault("scanner.safe_domains", []string{})
	v.SetDefault("scanner.max_links", 50)
	v.SetDefault("scanner.max_body_size", 10000)
	v.SetDefault("scanner.max_link_text", 100)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.max_entries", 512)
	v.SetDefault("cache.cleanup_frequency", "1m")
	v.SetDefault("cache.sqlite_path", "/data/phishguard_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/phishguard")

	// History defaults
	v.SetDefault("history.type", "badger")
	v.SetDefault("history.path", "/data/phishguard_history")
	v.SetDefault("history.max_entries", 20)
	v.SetDefault("history.last_result_window", "30s")

	// Fetch defaults
	v.SetDefault("fetch.mode", "http")
	v.SetDefault("fetch.timeout", "20s")

	// Notification and monitoring defaults
	v.SetDefault("notifications.enabled", true)
	v.SetDefault("monitoring.passive", false)

	// SMTP frontend defaults
	v.SetDefault("smtp.listen_address", "0.0.0.0:10035")
	v.SetDefault("smtp.block_malicious", false)
	v.SetDefault("smtp.headers.status", "X-Phish-Status")
	v.SetDefault("smtp.headers.score", "X-Phish-Score")
	v.SetDefault("smtp.headers.reason", "X-Phish-Reason")
	v.SetDefault("smtp.relay_address", "127.0.0.1")
	v.SetDefault("smtp.relay_port", 10036)
	v.SetDefault("smtp.relay_enabled", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
