package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverTimescaleDB = "timescaledb"
	DriverMemory      = "memory"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Cache      CacheConfig
	Analytics  AnalyticsConfig
	Breaker    BreakerConfig
	Kafka      KafkaConfig
	GraphQL    GraphQLConfig
	Monitoring MonitoringConfig
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	// Driver selects the measurement store: timescaledb or memory
	Driver         string         `mapstructure:"driver"`
	TimescaleDB    PostgresConfig `mapstructure:"timescaledb"`
	ConnectRetries uint64         `mapstructure:"connect_retries"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
}

type AnalyticsConfig struct {
	BaseTemperature        float64       `mapstructure:"base_temperature"`
	LatestWindow           time.Duration `mapstructure:"latest_window"`
	DefaultWindow          time.Duration `mapstructure:"default_window"`
	MultiReportConcurrency int           `mapstructure:"multi_report_concurrency"`
}

type BreakerConfig struct {
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type GraphQLConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type MonitoringConfig struct {
	LogLevel            string `mapstructure:"log_level"`
	HealthProbeSchedule string `mapstructure:"health_probe_schedule"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	return load(viper.New(), "./config")
}

func load(v *viper.Viper, configPaths ...string) (*Config, error) {
	v.SetEnvPrefix("W4B")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	setDefaults(v)

	// Load config file if exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.driver", DriverTimescaleDB)
	v.SetDefault("database.timescaledb.port", 5432)
	v.SetDefault("database.timescaledb.sslmode", "disable")
	v.SetDefault("database.connect_retries", 5)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.default_ttl", "15m")

	// Analytics defaults
	v.SetDefault("analytics.base_temperature", 10.0)
	v.SetDefault("analytics.latest_window", "10m")
	v.SetDefault("analytics.default_window", "720h")
	v.SetDefault("analytics.multi_report_concurrency", 8)

	// Breaker defaults
	v.SetDefault("breaker.max_requests", 3)
	v.SetDefault("breaker.interval", "60s")
	v.SetDefault("breaker.timeout", "30s")
	v.SetDefault("breaker.failure_threshold", 5)

	// Kafka defaults
	v.SetDefault("kafka.topic", "agricultural-measurements")
	v.SetDefault("kafka.group_id", "w4b-analytics")

	v.SetDefault("graphql.enabled", true)

	// Monitoring defaults
	v.SetDefault("monitoring.log_level", "info")
	v.SetDefault("monitoring.health_probe_schedule", "@every 30s")
}

func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case DriverTimescaleDB:
		if config.Database.TimescaleDB.Host == "" {
			return fmt.Errorf("timescaledb host is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", config.Database.Driver)
	}
	if config.Redis.Enabled && config.Redis.Host == "" {
		return fmt.Errorf("redis host is required when redis is enabled")
	}
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port must be positive")
	}
	if config.Analytics.MultiReportConcurrency <= 0 {
		return fmt.Errorf("analytics multi_report_concurrency must be positive")
	}
	return nil
}
