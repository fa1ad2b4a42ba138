package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type AIOptions struct {
	Provider string        `env:"AI_PROVIDER"`
	APIKey   string        `env:"AI_API_KEY"`
	Model    string        `env:"AI_MODEL"`
	BaseURL  string        `env:"AI_BASE_URL"`
	Timeout  time.Duration `env:"AI_TIMEOUT" envDefault:"20s"`
}

type ImportOptions struct {
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"uploads"`
	MaxUploadMB   int64  `env:"IMPORT_MAX_UPLOAD_MB" envDefault:"50"`
	Workers       int    `env:"IMPORT_WORKERS" envDefault:"4"`
	QueueSize     int    `env:"IMPORT_QUEUE_SIZE" envDefault:"64"`
	DefaultStatus string `env:"IMPORT_DEFAULT_STATUS" envDefault:"active"`
}

type RedisOptions struct {
	URL            string        `env:"REDIS_URL"`
	SuggestionTTL  time.Duration `env:"SUGGESTION_CACHE_TTL" envDefault:"24h"`
	SuggestionsKey string        `env:"SUGGESTION_CACHE_PREFIX" envDefault:"import:suggest:"`
}

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	Port        string `env:"PORT" envDefault:"8080"`
	LogMode     string `env:"LOG_MODE" envDefault:"development"`
	MetricsPath string `env:"METRICS_PATH" envDefault:"/metrics"`

	Import ImportOptions
	AI     AIOptions
	Redis  RedisOptions
}

// Load reads optional .env files and then the process environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env", ".env.local"}
	}

	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return Config{}, fmt.Errorf("load env files: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Import.MaxUploadMB <= 0 {
		return errors.New("IMPORT_MAX_UPLOAD_MB must be positive")
	}
	if c.Import.Workers <= 0 {
		c.Import.Workers = 4
	}
	if c.Import.Workers > 10 {
		c.Import.Workers = 10
	}
	if c.Import.QueueSize <= 0 {
		c.Import.QueueSize = 64
	}
	return nil
}
