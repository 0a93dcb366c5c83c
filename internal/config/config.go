// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageDriverLocal    = "local"
	StorageDriverFirebase = "firebase"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"-"` // SERVER_TIMEOUT_SECONDS

	// Database Configuration
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"-"` // DB_CONN_MAX_LIFETIME_MINUTES
	DBAutoMigrate     bool          `mapstructure:"DB_AUTO_MIGRATE"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// JWT
	JWTSecretKey          string        `mapstructure:"JWT_SECRET_KEY"`
	JWTAccessTokenExpiry  time.Duration `mapstructure:"-"` // JWT_ACCESS_TOKEN_EXPIRY_HOURS
	JWTRefreshTokenExpiry time.Duration `mapstructure:"-"` // JWT_REFRESH_TOKEN_EXPIRY_DAYS

	// Admin bootstrap
	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	// Uploads
	StorageDriver   string `mapstructure:"STORAGE_DRIVER"`
	UploadDir       string `mapstructure:"UPLOAD_DIR"`
	PublicBaseURL   string `mapstructure:"PUBLIC_BASE_URL"`
	MaxUploadImages int    `mapstructure:"MAX_UPLOAD_IMAGES"`
	MaxImageSizeMB  int    `mapstructure:"MAX_IMAGE_SIZE_MB"`

	// Firebase Configuration
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	FirebaseProjectID             string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseStorageBucket         string `mapstructure:"FIREBASE_STORAGE_BUCKET"`

	// AI matching
	OpenAIAPIKey              string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel               string        `mapstructure:"OPENAI_MODEL"`
	OpenAIBaseURL             string        `mapstructure:"OPENAI_BASE_URL"`
	AIMatchTimeout            time.Duration `mapstructure:"-"` // AI_MATCH_TIMEOUT_SECONDS
	AIMatchRateLimitPerMinute int           `mapstructure:"AI_MATCH_RATE_LIMIT_PER_MINUTE"`

	// Redis
	RedisURL string `mapstructure:"REDIS_URL"`

	// RabbitMQ
	AMQPURL   string `mapstructure:"AMQP_URL"`
	AMQPQueue string `mapstructure:"AMQP_QUEUE"`

	// Elasticsearch Configuration
	ElasticsearchURL string `mapstructure:"ELASTICSEARCH_URL"`

	// Cron Jobs
	SearchReindexJobSchedule string `mapstructure:"SEARCH_REINDEX_JOB_SCHEDULE"`

	// Metrics
	MetricsEnabled bool `mapstructure:"METRICS_ENABLED"`
}

// MaxImageSizeBytes is the per-file upload limit.
func (c *Config) MaxImageSizeBytes() int64 {
	return int64(c.MaxImageSizeMB) << 20
}

// DSN returns the GORM postgres DSN built from the individual DB_* settings.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode, c.DBTimezone)
}

// MigrationURL returns the postgres URL form used by golang-migrate.
func (c *Config) MigrationURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Duration fields are read as integers; viper's duration hook would reject unit-less env values.
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.JWTAccessTokenExpiry = time.Duration(v.GetInt("JWT_ACCESS_TOKEN_EXPIRY_HOURS")) * time.Hour
	cfg.JWTRefreshTokenExpiry = time.Duration(v.GetInt("JWT_REFRESH_TOKEN_EXPIRY_DAYS")) * 24 * time.Hour
	cfg.AIMatchTimeout = time.Duration(v.GetInt("AI_MATCH_TIMEOUT_SECONDS")) * time.Second

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "wecaredb")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("JWT_SECRET_KEY", "")
	v.SetDefault("JWT_ACCESS_TOKEN_EXPIRY_HOURS", 24*7)
	v.SetDefault("JWT_REFRESH_TOKEN_EXPIRY_DAYS", 30)

	v.SetDefault("ADMIN_EMAIL", "admin@wecaredonations.com")
	v.SetDefault("ADMIN_PASSWORD", "")

	v.SetDefault("STORAGE_DRIVER", StorageDriverLocal)
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("PUBLIC_BASE_URL", "")
	v.SetDefault("MAX_UPLOAD_IMAGES", 5)
	v.SetDefault("MAX_IMAGE_SIZE_MB", 5)

	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "")
	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_STORAGE_BUCKET", "")

	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_MODEL", "gpt-4")
	v.SetDefault("OPENAI_BASE_URL", "")
	v.SetDefault("AI_MATCH_TIMEOUT_SECONDS", 30)
	v.SetDefault("AI_MATCH_RATE_LIMIT_PER_MINUTE", 10)

	v.SetDefault("REDIS_URL", "")

	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_QUEUE", "donation_events")

	v.SetDefault("ELASTICSEARCH_URL", "")
	v.SetDefault("SEARCH_REINDEX_JOB_SCHEDULE", "@hourly")

	v.SetDefault("METRICS_ENABLED", true)
}

// validate checks settings whose absence would only surface deep inside a request.
func (c *Config) validate() error {
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return fmt.Errorf("JWT_SECRET_KEY is not set")
	}
	switch c.StorageDriver {
	case StorageDriverLocal:
		if strings.TrimSpace(c.UploadDir) == "" {
			return fmt.Errorf("UPLOAD_DIR is required for the local storage driver")
		}
	case StorageDriverFirebase:
		if c.FirebaseStorageBucket == "" {
			return fmt.Errorf("FIREBASE_STORAGE_BUCKET is required for the firebase storage driver")
		}
		if c.FirebaseServiceAccountKeyPath != "" {
			if _, err := os.Stat(c.FirebaseServiceAccountKeyPath); os.IsNotExist(err) {
				return fmt.Errorf("firebase service account key file %s not found", c.FirebaseServiceAccountKeyPath)
			}
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.MaxUploadImages <= 0 || c.MaxImageSizeMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_IMAGES and MAX_IMAGE_SIZE_MB must be positive")
	}
	if c.AIMatchTimeout <= 0 {
		return fmt.Errorf("AI_MATCH_TIMEOUT_SECONDS must be positive")
	}
	return nil
}
