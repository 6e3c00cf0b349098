package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	NewsAPIKey            string        `mapstructure:"newsapi_key"`
	NewsAPIBaseURL        string        `mapstructure:"newsapi_base_url"`
	NewsAPITimeoutSeconds int64         `mapstructure:"newsapi_timeout_seconds"`
	NewsAPITimeout        time.Duration `mapstructure:"-"`

	QueriesFile         string        `mapstructure:"queries_file"`
	PublishersFile      string        `mapstructure:"publishers_file"`
	PollIntervalSeconds int64         `mapstructure:"poll_interval"`
	PollInterval        time.Duration `mapstructure:"-"`
	RequestsPerSecond   float64       `mapstructure:"requests_per_second"`
	RequestBurst        int           `mapstructure:"request_burst"`
	ScrapeEnabled       bool          `mapstructure:"scrape_enabled"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`

	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "newsapi-harvester")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("newsapi_key", "")
	v.SetDefault("newsapi_base_url", "https://newsapi.org/v2/")
	v.SetDefault("newsapi_timeout_seconds", 15)
	v.SetDefault("queries_file", "./configs/queries.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("poll_interval", 900) // seconds
	v.SetDefault("requests_per_second", 1.0)
	v.SetDefault("request_burst", 1)
	v.SetDefault("scrape_enabled", false)
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/seen.db")
	v.SetDefault("storage_ttl_seconds", int64((5*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
	v.SetDefault("metrics_addr", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) finalize() error {
	cfg.NewsAPIKey = strings.TrimSpace(cfg.NewsAPIKey)
	if cfg.NewsAPIKey == "" {
		return fmt.Errorf("newsapi_key is required")
	}

	if cfg.NewsAPITimeoutSeconds <= 0 {
		return fmt.Errorf("invalid newsapi_timeout_seconds (must be positive seconds)")
	}
	cfg.NewsAPITimeout = time.Duration(cfg.NewsAPITimeoutSeconds) * time.Second

	if cfg.PollIntervalSeconds <= 0 {
		return fmt.Errorf("invalid poll_interval (must be positive seconds)")
	}
	cfg.PollInterval = time.Duration(cfg.PollIntervalSeconds) * time.Second

	if cfg.RequestsPerSecond <= 0 {
		return fmt.Errorf("invalid requests_per_second (must be positive)")
	}
	if cfg.RequestBurst <= 0 {
		cfg.RequestBurst = 1
	}

	if cfg.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return nil
}
