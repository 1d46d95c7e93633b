package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`

	// Identity provider (GoTrue-style auth API).
	SupabaseURL          string `mapstructure:"SUPABASE_URL"`
	SupabaseAnonKey      string `mapstructure:"SUPABASE_ANON_KEY"`
	SupabaseRefreshToken string `mapstructure:"SUPABASE_REFRESH_TOKEN"`

	// Billing endpoints (edge functions under the provider project).
	BillingFunctionsURL string `mapstructure:"BILLING_FUNCTIONS_URL"`

	ClientURL  string `mapstructure:"CLIENT_URL"`
	RoutesFile string `mapstructure:"ROUTES_FILE"`

	// Subscription cache.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Auth event publishing.
	AMQPURL   string `mapstructure:"AMQP_URL"`
	AMQPQueue string `mapstructure:"AMQP_QUEUE"`

	// Audit log storage (Firestore). Optional; audit is disabled when
	// FirebaseProjectID is empty.
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`

	// Outgoing mail (welcome notices). Optional; disabled when SMTPHost is empty.
	SMTPHost string `mapstructure:"SMTP_HOST"`
	SMTPPort string `mapstructure:"SMTP_PORT"`
	SMTPUser string `mapstructure:"SMTP_USER"`
	SMTPPass string `mapstructure:"SMTP_PASS"`
	SMTPFrom string `mapstructure:"SMTP_FROM"`
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("AMQP_QUEUE", "carebridge.auth-events")
	viper.SetDefault("ROUTES_FILE", "configs/routes.yaml")
	viper.SetDefault("SMTP_PORT", "2525")

	// Bind environment variables
	for _, key := range []string{
		"PORT", "GIN_MODE",
		"SUPABASE_URL", "SUPABASE_ANON_KEY", "SUPABASE_REFRESH_TOKEN",
		"BILLING_FUNCTIONS_URL",
		"CLIENT_URL", "ROUTES_FILE",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"AMQP_URL", "AMQP_QUEUE",
		"FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "SMTP_FROM",
	} {
		viper.BindEnv(key)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	// Validate required fields
	if cfg.SupabaseURL == "" {
		return nil, errors.New("SUPABASE_URL is required")
	}
	if cfg.SupabaseAnonKey == "" {
		return nil, errors.New("SUPABASE_ANON_KEY is required")
	}
	if cfg.FirebaseProjectID != "" &&
		cfg.GoogleApplicationCredentials == "" && cfg.FirebaseServiceAccountJSONBase64 == "" {
		return nil, errors.New("audit storage is enabled: either GOOGLE_APPLICATION_CREDENTIALS or FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is required")
	}

	if cfg.BillingFunctionsURL == "" {
		cfg.BillingFunctionsURL = strings.TrimSuffix(cfg.SupabaseURL, "/") + "/functions/v1"
	}

	return &cfg, nil
}

// AuthBaseURL returns the identity provider API root.
func (c *Config) AuthBaseURL() string {
	return strings.TrimSuffix(c.SupabaseURL, "/") + "/auth/v1"
}
