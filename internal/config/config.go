package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Logging   LoggingConfig    `mapstructure:"logging"`
	Queue     QueueConfig      `mapstructure:"queue"`
	RateLimit RateLimitConfig  `mapstructure:"rate_limit"`
	Providers []ProviderConfig `mapstructure:"providers"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port" envconfig:"PORT"`
	TimeoutSeconds int `mapstructure:"timeout_seconds" envconfig:"TIMEOUT_SECONDS"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" envconfig:"LOG_LEVEL"`
	Pretty bool   `mapstructure:"pretty" envconfig:"LOG_PRETTY"`
}

type QueueConfig struct {
	RefreshIntervalSeconds int     `mapstructure:"refresh_interval_seconds" envconfig:"REFRESH_INTERVAL_SECONDS"`
	ETAJitterMinutes       float64 `mapstructure:"eta_jitter_minutes" envconfig:"ETA_JITTER_MINUTES"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" envconfig:"RATE_LIMIT_RPS"`
	Burst             int     `mapstructure:"burst" envconfig:"RATE_LIMIT_BURST"`
}

type ProviderConfig struct {
	ID                string `mapstructure:"id"`
	Name              string `mapstructure:"name"`
	Specialization    string `mapstructure:"specialization"`
	AvgServiceMinutes int    `mapstructure:"avg_service_minutes"`
}

func (c QueueConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

// LoadConfig reads config.yaml via viper, then applies OPDQ_* environment
// overrides on top.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeout_seconds", 10)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.pretty", true)
	viper.SetDefault("queue.refresh_interval_seconds", 30)
	viper.SetDefault("queue.eta_jitter_minutes", 5)
	viper.SetDefault("rate_limit.requests_per_second", 50)
	viper.SetDefault("rate_limit.burst", 100)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for _, section := range []interface{}{
		&config.Server, &config.Logging, &config.Queue, &config.RateLimit,
	} {
		if err := envconfig.Process("OPDQ", section); err != nil {
			return nil, fmt.Errorf("failed to apply env overrides: %w", err)
		}
	}

	if len(config.Providers) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}
	for _, p := range config.Providers {
		if p.ID == "" || p.AvgServiceMinutes <= 0 {
			return nil, fmt.Errorf("invalid provider config: id=%q avg_service_minutes=%d", p.ID, p.AvgServiceMinutes)
		}
	}

	return &config, nil
}
