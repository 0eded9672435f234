package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Import pipeline configuration
	Import ImportConfig

	// Remote contacts/campaign store configuration
	Stores StoresConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"300s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host           string        `env:"DB_HOST" envDefault:"localhost"`
	Port           string        `env:"DB_PORT" envDefault:"5432"`
	User           string        `env:"DB_USER" envDefault:"postgres"`
	Password       string        `env:"DB_PASSWORD" envDefault:"postgres"`
	Name           string        `env:"DB_NAME" envDefault:"lead_import"`
	SSLMode        string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns   int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns   int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	MaxLifetime    time.Duration `env:"DB_MAX_LIFETIME" envDefault:"5m"`
	MigrationsPath string        `env:"MIGRATIONS_PATH" envDefault:"./migrations"`
}

// ImportConfig holds import pipeline settings
type ImportConfig struct {
	BatchSize     int           `env:"IMPORT_BATCH_SIZE" envDefault:"1000"`
	MaxUploadSize int64         `env:"MAX_UPLOAD_SIZE" envDefault:"52428800"` // 50MB
	UploadDir     string        `env:"UPLOAD_DIR" envDefault:"./data/uploads"`
	SourceTag     string        `env:"IMPORT_SOURCE_TAG" envDefault:"campaign_import"`
	Workers       int           `env:"IMPORT_WORKERS" envDefault:"4"`
	PollInterval  time.Duration `env:"IMPORT_POLL_INTERVAL" envDefault:"2s"`
	DraftTTL      time.Duration `env:"DRAFT_TTL" envDefault:"2h"`
}

// StoresConfig points the pipeline at remote contacts and campaign stores.
// An empty RemoteURL keeps both stores in-process.
type StoresConfig struct {
	RemoteURL string        `env:"STORES_REMOTE_URL"`
	Timeout   time.Duration `env:"STORES_TIMEOUT" envDefault:"30s"`
	APIKey    string        `env:"STORES_API_KEY"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // "json" or "pretty"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Import.BatchSize <= 0 {
		return fmt.Errorf("IMPORT_BATCH_SIZE must be positive")
	}
	if c.Import.Workers <= 0 {
		return fmt.Errorf("IMPORT_WORKERS must be positive")
	}
	if c.Import.SourceTag == "" {
		return fmt.Errorf("IMPORT_SOURCE_TAG is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "pretty" {
		return fmt.Errorf("LOG_FORMAT must be json or pretty, got %q", c.Log.Format)
	}
	return nil
}

// UseRemoteStores reports whether the pipeline should call remote stores
func (c *Config) UseRemoteStores() bool {
	return c.Stores.RemoteURL != ""
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
