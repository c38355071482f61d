// Package config provides application configuration loading and management.
package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	Port           string `mapstructure:"PORT"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	Env            string `mapstructure:"APP_ENV"`

	// Freemium policy. The quota is enforced server-side per user per UTC day.
	FreeDailyLikes int `mapstructure:"FREE_DAILY_LIKES"`

	// Feature rollout flags as a comma-separated key=value list,
	// e.g. "superlike=on,rewind=25%".
	FeatureFlags string `mapstructure:"FEATURE_FLAGS"`

	// Shared secret for verifying payment provider webhook signatures.
	// Empty disables verification (local development only).
	WebhookSecret string `mapstructure:"WEBHOOK_SECRET"`

	// Media storage for chat images and profile photos.
	MediaDir         string `mapstructure:"MEDIA_DIR"`
	MediaMaxUploadMB int    `mapstructure:"MEDIA_MAX_UPLOAD_MB"`

	// Development-only bootstrap of an admin account at startup.
	// Ignored outside the development profile.
	DevBootstrapAdmin        bool   `mapstructure:"DEV_BOOTSTRAP_ADMIN"`
	DevAdminEmail            string `mapstructure:"DEV_ADMIN_EMAIL"`
	DevAdminPassword         string `mapstructure:"DEV_ADMIN_PASSWORD"`
	DevAdminForceCredentials bool   `mapstructure:"DEV_ADMIN_FORCE_CREDENTIALS"`

	// Tracing.
	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler  float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// Initial read to get APP_ENV if set in base config.
	// The config file may legitimately not exist yet.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	// Set default values for development
	viper.SetDefault("PORT", "8480")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "mix")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("FREE_DAILY_LIKES", 10)
	viper.SetDefault("FEATURE_FLAGS", "superlike=on,rewind=on")
	viper.SetDefault("WEBHOOK_SECRET", "")
	viper.SetDefault("MEDIA_DIR", "/tmp/mix/media")
	viper.SetDefault("MEDIA_MAX_UPLOAD_MB", 5)
	viper.SetDefault("DEV_BOOTSTRAP_ADMIN", false)
	viper.SetDefault("DEV_ADMIN_EMAIL", "")
	viper.SetDefault("DEV_ADMIN_PASSWORD", "")
	viper.SetDefault("DEV_ADMIN_FORCE_CREDENTIALS", false)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 0.1)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// IsProduction reports whether the app runs with the production profile.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.FreeDailyLikes <= 0 {
		return fmt.Errorf("FREE_DAILY_LIKES must be positive, got %d", c.FreeDailyLikes)
	}
	if c.MediaMaxUploadMB <= 0 {
		return fmt.Errorf("MEDIA_MAX_UPLOAD_MB must be positive, got %d", c.MediaMaxUploadMB)
	}
	if c.IsProduction() && c.JWTSecret == "your-secret-key-change-in-production" {
		return fmt.Errorf("JWT_SECRET must be set to a real secret in production")
	}
	return nil
}
