// Package config loads collector configuration from file and environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dexrelay-systems/dexrelay/internal/backoff"
	"github.com/dexrelay-systems/dexrelay/internal/publish"
)

type Config struct {
	Sources   SourcesConfig   `mapstructure:"sources"`
	Publisher PublisherConfig `mapstructure:"publisher"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type SourcesConfig struct {
	V2 SourceConfig `mapstructure:"v2"`
	V3 SourceConfig `mapstructure:"v3"`
}

type SourceConfig struct {
	URL          string        `mapstructure:"url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type PublisherConfig struct {
	Backend string      `mapstructure:"backend"`
	NATS    NATSConfig  `mapstructure:"nats"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
	PoolSize int    `mapstructure:"pool_size"`
}

type RetryConfig struct {
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	Multiplier   float64       `mapstructure:"multiplier"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

type ServerConfig struct {
	ListenAddr   string        `mapstructure:"listen_addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("sources.v2.url", "https://api.thegraph.com/subgraphs/name/uniswap/uniswap-v2")
	v.SetDefault("sources.v2.poll_interval", "30s")
	v.SetDefault("sources.v2.batch_size", 100)
	v.SetDefault("sources.v2.timeout", "10s")
	v.SetDefault("sources.v3.url", "https://api.thegraph.com/subgraphs/name/uniswap/uniswap-v3")
	v.SetDefault("sources.v3.poll_interval", "30s")
	v.SetDefault("sources.v3.batch_size", 100)
	v.SetDefault("sources.v3.timeout", "10s")
	v.SetDefault("publisher.backend", "nats")
	v.SetDefault("publisher.nats.url", "nats://localhost:4222")
	v.SetDefault("publisher.nats.subject", "dexrelay.swaps")
	v.SetDefault("publisher.redis.addr", "localhost:6379")
	v.SetDefault("publisher.redis.db", 0)
	v.SetDefault("publisher.redis.channel", "dexrelay:swaps")
	v.SetDefault("publisher.redis.pool_size", 10)
	v.SetDefault("retry.initial_delay", "1s")
	v.SetDefault("retry.max_delay", "30s")
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.max_attempts", 5)
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/dexrelay")
	}

	// Environment variables override
	v.SetEnvPrefix("DEXRELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	for name, src := range map[string]SourceConfig{"v2": c.Sources.V2, "v3": c.Sources.V3} {
		if src.URL == "" {
			return fmt.Errorf("sources.%s.url must not be empty", name)
		}
		if src.BatchSize < 1 || src.BatchSize > 1000 {
			return fmt.Errorf("sources.%s.batch_size must be between 1 and 1000", name)
		}
		if src.PollInterval < time.Second {
			return fmt.Errorf("sources.%s.poll_interval must be at least 1s", name)
		}
	}

	switch c.Publisher.Backend {
	case publish.BackendNATS, publish.BackendRedis:
	default:
		return fmt.Errorf("publisher.backend must be %q or %q", publish.BackendNATS, publish.BackendRedis)
	}

	if c.Retry.Multiplier <= 1.0 {
		return fmt.Errorf("retry.multiplier must be greater than 1.0")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	if c.Retry.InitialDelay <= 0 || c.Retry.MaxDelay < c.Retry.InitialDelay {
		return fmt.Errorf("retry delays must satisfy 0 < initial_delay <= max_delay")
	}
	return nil
}

// BackoffConfig converts the retry section to the policy config.
func (c *Config) BackoffConfig() backoff.Config {
	return backoff.Config{
		InitialDelay: c.Retry.InitialDelay,
		MaxDelay:     c.Retry.MaxDelay,
		Multiplier:   c.Retry.Multiplier,
		MaxAttempts:  c.Retry.MaxAttempts,
	}
}

// NATSPublisherConfig merges the NATS section over the publisher defaults.
func (c *Config) NATSPublisherConfig() publish.NATSConfig {
	cfg := publish.DefaultNATSConfig()
	cfg.URL = c.Publisher.NATS.URL
	cfg.Subject = c.Publisher.NATS.Subject
	return cfg
}

// RedisPublisherConfig merges the Redis section over the publisher defaults.
func (c *Config) RedisPublisherConfig() publish.RedisConfig {
	return publish.RedisConfig{
		Addr:     c.Publisher.Redis.Addr,
		Password: c.Publisher.Redis.Password,
		DB:       c.Publisher.Redis.DB,
		Channel:  c.Publisher.Redis.Channel,
		PoolSize: c.Publisher.Redis.PoolSize,
	}
}
