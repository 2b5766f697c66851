package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Addr          string        `mapstructure:"addr"`
	APIKey        string        `mapstructure:"api_key"`
	WebhookSecret string        `mapstructure:"webhook_secret"`
	VerifyMode    string        `mapstructure:"verify_mode"`
	Tolerance     time.Duration `mapstructure:"tolerance"`
	LastEventFile string        `mapstructure:"last_event_file"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	TLS       TLSConfig       `mapstructure:"tls"`
}

type RateLimitConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	WebhookPerMinute int  `mapstructure:"webhook_per_min"`
	ReadPerMinute    int  `mapstructure:"read_per_min"`
}

type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

const (
	VerifyModeStrict     = "strict"
	VerifyModePermissive = "permissive-test"
)

func LoadFromEnv() Config {
	v := viper.New()
	v.SetEnvPrefix("PAYHOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", ":4242")
	v.SetDefault("verify_mode", VerifyModeStrict)
	v.SetDefault("tolerance", 5*time.Minute)
	v.SetDefault("last_event_file", "./var/last_event.json")
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.webhook_per_min", 240)
	v.SetDefault("rate_limit.read_per_min", 600)
	v.SetDefault("tls.enabled", false)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/payhook/")

	_ = v.ReadInConfig() // ignore if not found

	// Explicit binds so nested keys map from flat env vars.
	_ = v.BindEnv("api_key", "PAYHOOK_API_KEY")
	_ = v.BindEnv("webhook_secret", "PAYHOOK_WEBHOOK_SECRET")
	_ = v.BindEnv("verify_mode", "PAYHOOK_VERIFY_MODE")
	_ = v.BindEnv("tolerance", "PAYHOOK_TOLERANCE")
	_ = v.BindEnv("last_event_file", "PAYHOOK_LAST_EVENT_FILE")
	_ = v.BindEnv("rate_limit.enabled", "PAYHOOK_RATE_LIMIT_ENABLED")
	_ = v.BindEnv("rate_limit.webhook_per_min", "PAYHOOK_RATE_LIMIT_WEBHOOK_PER_MIN")
	_ = v.BindEnv("rate_limit.read_per_min", "PAYHOOK_RATE_LIMIT_READ_PER_MIN")
	_ = v.BindEnv("tls.enabled", "PAYHOOK_TLS_ENABLED")
	_ = v.BindEnv("tls.cert_file", "PAYHOOK_TLS_CERT_FILE")
	_ = v.BindEnv("tls.key_file", "PAYHOOK_TLS_KEY_FILE")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		fmt.Printf("Warning: failed to unmarshal config: %v\n", err)
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 5 * time.Minute
	}
	return cfg
}

func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "PAYHOOK_ADDR must not be empty")
	}
	mode := strings.TrimSpace(c.VerifyMode)
	if mode != VerifyModeStrict && mode != VerifyModePermissive {
		problems = append(problems, fmt.Sprintf("PAYHOOK_VERIFY_MODE must be %q or %q", VerifyModeStrict, VerifyModePermissive))
	}
	if mode == VerifyModeStrict && strings.TrimSpace(c.WebhookSecret) == "" {
		problems = append(problems, "webhook secret is not configured; set PAYHOOK_WEBHOOK_SECRET, or explicitly set PAYHOOK_VERIFY_MODE=permissive-test for local development only")
	}
	if mode == VerifyModePermissive && strings.TrimSpace(c.WebhookSecret) != "" {
		problems = append(problems, "PAYHOOK_VERIFY_MODE=permissive-test is incompatible with a configured PAYHOOK_WEBHOOK_SECRET; pick one")
	}
	if c.Tolerance <= 0 {
		problems = append(problems, "PAYHOOK_TOLERANCE must be a positive duration")
	}
	if c.TLS.Enabled && strings.TrimSpace(c.TLS.CertFile) == "" {
		problems = append(problems, "PAYHOOK_TLS_CERT_FILE is required when PAYHOOK_TLS_ENABLED=true")
	}
	if c.TLS.Enabled && strings.TrimSpace(c.TLS.KeyFile) == "" {
		problems = append(problems, "PAYHOOK_TLS_KEY_FILE is required when PAYHOOK_TLS_ENABLED=true")
	}
	if len(problems) == 0 {
		return nil
	}
	return errors.New(strings.Join(problems, "; "))
}

type StartupSummary struct {
	Addr             string
	VerifyMode       string
	SecretConfigured bool
	APIKeyConfigured bool
	Tolerance        time.Duration
	LastEventFile    string
	SlotMode         string
	RateLimit        bool
	TLSEnabled       bool
}

func (c Config) Summary() StartupSummary {
	slotMode := "file"
	if strings.TrimSpace(c.LastEventFile) == "" {
		slotMode = "memory"
	}
	return StartupSummary{
		Addr:             c.Addr,
		VerifyMode:       c.VerifyMode,
		SecretConfigured: strings.TrimSpace(c.WebhookSecret) != "",
		APIKeyConfigured: strings.TrimSpace(c.APIKey) != "",
		Tolerance:        c.Tolerance,
		LastEventFile:    c.LastEventFile,
		SlotMode:         slotMode,
		RateLimit:        c.RateLimit.Enabled,
		TLSEnabled:       c.TLS.Enabled,
	}
}
