package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`

	ServerPort int `env:"PORT" envDefault:"8080"`

	// Ingestion tuning.
	BatchSize        int           `env:"INGEST_BATCH_SIZE" envDefault:"2000"`
	StoreTimeout     time.Duration `env:"STORE_TIMEOUT" envDefault:"30s"`
	NumIngestWorkers int           `env:"NUM_INGEST_WORKERS" envDefault:"4"`
	MaxUploadSize    int64         `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"`

	// Input validation allow-lists.
	AllowedExtensions []string `env:"ALLOWED_EXTENSIONS" envSeparator:"," envDefault:".xlsx,.xls,.csv"`
	FilenamePattern   string   `env:"FILENAME_PATTERN" envDefault:"^[A-Za-z0-9][A-Za-z0-9 ._()-]*$"`

	// Optional JSON file overriding the built-in schema definitions.
	SchemaConfigPath string `env:"SCHEMA_CONFIG_PATH"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// New loads configuration from the environment, reading .env first when
// present.
func New() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("INGEST_BATCH_SIZE must be positive, got %d", cfg.BatchSize)
	}
	if cfg.NumIngestWorkers <= 0 {
		return nil, fmt.Errorf("NUM_INGEST_WORKERS must be positive, got %d", cfg.NumIngestWorkers)
	}

	return cfg, nil
}

func (c *Config) LogrusLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

// Logger builds the process-wide structured logger.
func (c *Config) Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogrusLevel())
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}
