package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultListenAddress = ":8080"

const DefaultWebhookWorkersCount = 5

const DefaultWebhookTimeout = 5 * time.Second

type Config struct {
	ListenAddress  string        `yaml:"listen_address"`
	DatabasePath   string        `yaml:"database_path"`
	WebhookWorkers int           `yaml:"webhook_workers"`
	WebhookTimeout time.Duration `yaml:"webhook_timeout"`
	LogLevel       string        `yaml:"log_level"`
}

var ConfigError = errors.New("invalid configuration")

func DefaultConfig() *Config {
	return &Config{
		ListenAddress:  DefaultListenAddress,
		WebhookWorkers: DefaultWebhookWorkersCount,
		WebhookTimeout: DefaultWebhookTimeout,
		LogLevel:       "info",
	}
}

// LoadConfig applies defaults, then the YAML file at `path` (when given), then the environment
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ConfigError, err)
		}
		if err = yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ConfigError, path, err)
		}
	}

	if databasePath, ok := os.LookupEnv("DATABASE_FILEPATH"); ok {
		config.DatabasePath = databasePath
	}
	if listenAddress, ok := os.LookupEnv("SPREADSHEET_LISTEN"); ok {
		config.ListenAddress = listenAddress
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database path is required (set DATABASE_FILEPATH or --database)", ConfigError)
	}
	if c.WebhookWorkers < 1 {
		return fmt.Errorf("%w: webhook_workers should be positive, got %d", ConfigError, c.WebhookWorkers)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return level, fmt.Errorf("%w: log_level: %w", ConfigError, err)
	}
	return level, nil
}

func NewLogger(config *Config, output io.Writer) *slog.Logger {
	level, err := config.Level()
	if err != nil {
		level = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level}))
}
