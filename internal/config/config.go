package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Env                string                   `mapstructure:"env"`
	Server             ServerConfig             `mapstructure:"server"`
	Auth               AuthConfig               `mapstructure:"auth"`
	CORS               CORSConfig               `mapstructure:"cors"`
	RateLimit          RateLimitConfig          `mapstructure:"rate_limit"`
	Store              StoreConfig              `mapstructure:"store"`
	Supabase           SupabaseConfig           `mapstructure:"supabase"`
	Redis              RedisConfig              `mapstructure:"redis"`
	Telegram           TelegramConfig           `mapstructure:"telegram"`
	Notify             NotifyConfig             `mapstructure:"notify"`
	RecipientRateLimit RecipientRateLimitConfig `mapstructure:"recipient_rate_limit"`
	Queue              QueueConfig              `mapstructure:"queue"`
	Reminder           ReminderConfig           `mapstructure:"reminder"`
	Log                LogConfig                `mapstructure:"log"`
	Rollbar            RollbarConfig            `mapstructure:"rollbar"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// AuthConfig holds token settings.
type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	TokenTTLHours int    `mapstructure:"token_ttl_hours"`
	CookieSecure  bool   `mapstructure:"cookie_secure"`
}

// TokenTTL returns the access token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

// CORSConfig holds CORS policy settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// StoreConfig selects the persistence backend.
// Driver is one of "sqlite", "postgres" or "supabase".
type StoreConfig struct {
	Driver      string `mapstructure:"driver"`
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// SupabaseConfig holds Supabase project settings.
type SupabaseConfig struct {
	URL        string `mapstructure:"url"`
	ServiceKey string `mapstructure:"service_key"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TelegramConfig holds Bot API settings.
type TelegramConfig struct {
	BotToken          string  `mapstructure:"bot_token"`
	APIURL            string  `mapstructure:"api_url"`
	MessagesPerSecond float64 `mapstructure:"messages_per_second"`
}

// NotifyConfig holds fan-out settings. Transport is "telegram" or "console".
type NotifyConfig struct {
	Transport         string `mapstructure:"transport"`
	Concurrency       int    `mapstructure:"concurrency"`
	AttemptTimeoutSec int    `mapstructure:"attempt_timeout_sec"`
	Timezone          string `mapstructure:"timezone"`
}

// AttemptTimeout returns the per-recipient delivery timeout.
func (n NotifyConfig) AttemptTimeout() time.Duration {
	return time.Duration(n.AttemptTimeoutSec) * time.Second
}

// RecipientRateLimitConfig holds per-recipient rate limiting settings.
// Zero disables the limiter.
type RecipientRateLimitConfig struct {
	MaxPerHour int `mapstructure:"max_per_hour"`
}

// QueueConfig holds async queue settings.
type QueueConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// ReminderConfig holds reminder sweep settings.
type ReminderConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Schedule    string `mapstructure:"schedule"`
	LeadTimeMin int    `mapstructure:"lead_time_min"`
	BatchSize   int    `mapstructure:"batch_size"`
}

// LeadTime returns how long before a session its reminder goes out.
func (r ReminderConfig) LeadTime() time.Duration {
	return time.Duration(r.LeadTimeMin) * time.Minute
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// RollbarConfig holds error reporting settings. An empty token disables it.
type RollbarConfig struct {
	Token       string `mapstructure:"token"`
	CodeVersion string `mapstructure:"code_version"`
}

// Load reads configuration from config.yaml and environment variables.
// Environment variables use the CLASSPING_ prefix and underscore separators.
// Example: CLASSPING_SERVER_PORT overrides server.port in config.yaml.
func Load() (*Config, error) {
	v := viper.New()

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Load .env file if it exists
	_ = godotenv.Load()

	// Environment variable settings
	v.SetEnvPrefix("CLASSPING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional, env vars can provide everything)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Handle comma-separated origins from env var
	if origins := v.GetString("cors.allowed_origins"); origins != "" && len(cfg.CORS.AllowedOrigins) <= 1 {
		cfg.CORS.AllowedOrigins = splitList(origins)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Every key needs a default, even an empty one, so that AutomaticEnv
// overrides are seen by Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl_hours", 24*7)
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"})
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "file:classping.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite")
	v.SetDefault("store.auto_migrate", true)
	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.service_key", "")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.api_url", "https://api.telegram.org")
	v.SetDefault("telegram.messages_per_second", 25)
	v.SetDefault("notify.transport", "telegram")
	v.SetDefault("notify.concurrency", 16)
	v.SetDefault("notify.attempt_timeout_sec", 10)
	v.SetDefault("notify.timezone", "UTC")
	v.SetDefault("recipient_rate_limit.max_per_hour", 0)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("reminder.enabled", true)
	v.SetDefault("reminder.schedule", "@every 1m")
	v.SetDefault("reminder.lead_time_min", 60)
	v.SetDefault("reminder.batch_size", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("rollbar.token", "")
	v.SetDefault("rollbar.code_version", "")
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for driver %q", c.Store.Driver)
		}
	case "supabase":
		if c.Supabase.URL == "" || c.Supabase.ServiceKey == "" {
			return fmt.Errorf("supabase.url and supabase.service_key are required for driver %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unsupported store.driver %q", c.Store.Driver)
	}

	switch c.Notify.Transport {
	case "telegram":
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when notify.transport is telegram")
		}
	case "console":
	default:
		return fmt.Errorf("unsupported notify.transport %q", c.Notify.Transport)
	}

	if _, err := time.LoadLocation(c.Notify.Timezone); err != nil {
		return fmt.Errorf("notify.timezone: %w", err)
	}

	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
