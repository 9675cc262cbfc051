// Package config loads and validates the evaluation configuration from a YAML
// file with environment-variable overrides. It provides typed structs for the
// collection, the evaluation run, and every optional backend (Redis cache,
// PostgreSQL and Kafka export sinks, Prometheus metrics).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/weighting"
	apperrors "github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/errors"
)

// Config is the top-level application configuration.
type Config struct {
	Collection CollectionConfig `yaml:"collection"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Cache      CacheConfig      `yaml:"cache"`
	Redis      RedisConfig      `yaml:"redis"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Export     ExportConfig     `yaml:"export"`
}

// CollectionConfig names the test collection and where its files live.
type CollectionConfig struct {
	Name         string `envconfig:"SMARTEVAL_COLLECTION" yaml:"name"`
	Dir          string `envconfig:"SMARTEVAL_COLLECTION_DIR" yaml:"dir"`
	Stem         bool   `envconfig:"SMARTEVAL_STEM" yaml:"stem"`
	IncludeTitle bool   `envconfig:"SMARTEVAL_INCLUDE_TITLE" yaml:"includeTitle"`
}

// EvaluationConfig holds the weighting schemes and run limits.
type EvaluationConfig struct {
	DocWeighting     string `envconfig:"SMARTEVAL_DOC_WEIGHTING" yaml:"docWeighting"`
	QueryWeighting   string `envconfig:"SMARTEVAL_QUERY_WEIGHTING" yaml:"queryWeighting"`
	RankLimit        int    `envconfig:"SMARTEVAL_RANK_LIMIT" yaml:"rankLimit"`
	Workers          int    `envconfig:"SMARTEVAL_WORKERS" yaml:"workers"`
	DegeneratePolicy string `envconfig:"SMARTEVAL_DEGENERATE_POLICY" yaml:"degeneratePolicy"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `envconfig:"SMARTEVAL_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"SMARTEVAL_LOG_FORMAT" yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `envconfig:"SMARTEVAL_METRICS_ENABLED" yaml:"enabled"`
	Port    int  `envconfig:"SMARTEVAL_METRICS_PORT" yaml:"port"`
}

// CacheConfig selects the sweep result cache backend.
type CacheConfig struct {
	Type string        `envconfig:"SMARTEVAL_CACHE_TYPE" yaml:"type"`
	TTL  time.Duration `envconfig:"SMARTEVAL_CACHE_TTL" yaml:"ttl"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr     string `envconfig:"SMARTEVAL_REDIS_ADDR" yaml:"addr"`
	Password string `envconfig:"SMARTEVAL_REDIS_PASSWORD" yaml:"password"`
	DB       int    `envconfig:"SMARTEVAL_REDIS_DB" yaml:"db"`
	PoolSize int    `envconfig:"SMARTEVAL_REDIS_POOL_SIZE" yaml:"poolSize"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `envconfig:"SMARTEVAL_POSTGRES_HOST" yaml:"host"`
	Port            int           `envconfig:"SMARTEVAL_POSTGRES_PORT" yaml:"port"`
	Database        string        `envconfig:"SMARTEVAL_POSTGRES_DATABASE" yaml:"database"`
	User            string        `envconfig:"SMARTEVAL_POSTGRES_USER" yaml:"user"`
	Password        string        `envconfig:"SMARTEVAL_POSTGRES_PASSWORD" yaml:"password"`
	SSLMode         string        `envconfig:"SMARTEVAL_POSTGRES_SSLMODE" yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers []string `envconfig:"SMARTEVAL_KAFKA_BROKERS" yaml:"brokers"`
	Topic   string   `envconfig:"SMARTEVAL_KAFKA_TOPIC" yaml:"topic"`
}

// ExportConfig lists the result sinks a sweep writes to.
type ExportConfig struct {
	Sinks         []string      `envconfig:"SMARTEVAL_EXPORT_SINKS" yaml:"sinks"`
	CSVPath       string        `envconfig:"SMARTEVAL_EXPORT_CSV" yaml:"csvPath"`
	PostgresTable string        `envconfig:"SMARTEVAL_EXPORT_TABLE" yaml:"postgresTable"`
	Timeout       time.Duration `envconfig:"SMARTEVAL_EXPORT_TIMEOUT" yaml:"timeout"`
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in defaults without reading files or the
// environment.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Collection: CollectionConfig{
			Name: "adi",
			Dir:  "data/adi",
		},
		Evaluation: EvaluationConfig{
			DocWeighting:     "ltc",
			QueryWeighting:   "ltc",
			RankLimit:        15,
			Workers:          4,
			DegeneratePolicy: "exclude",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
		Cache: CacheConfig{
			Type: "memory",
			TTL:  24 * time.Hour,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "smarteval",
			User:            "smarteval",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "evaluation-results",
		},
		Export: ExportConfig{
			CSVPath:       "results.csv",
			PostgresTable: "evaluation_results",
			Timeout:       30 * time.Second,
		},
	}
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []string

	if _, err := weighting.Parse(c.Evaluation.DocWeighting); err != nil {
		errs = append(errs, fmt.Sprintf("doc weighting: %v", err))
	}
	if _, err := weighting.Parse(c.Evaluation.QueryWeighting); err != nil {
		errs = append(errs, fmt.Sprintf("query weighting: %v", err))
	}
	if c.Evaluation.RankLimit < 1 {
		errs = append(errs, "rank limit must be positive")
	}
	if c.Evaluation.Workers < 1 {
		errs = append(errs, "workers must be positive")
	}
	validPolicies := map[string]bool{"exclude": true, "zero": true}
	if !validPolicies[c.Evaluation.DegeneratePolicy] {
		errs = append(errs, fmt.Sprintf("invalid degenerate policy: %s (must be exclude or zero)", c.Evaluation.DegeneratePolicy))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Logging.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Logging.Format))
	}

	validCacheTypes := map[string]bool{"none": true, "memory": true, "redis": true}
	if !validCacheTypes[c.Cache.Type] {
		errs = append(errs, fmt.Sprintf("invalid cache type: %s (must be none, memory, or redis)", c.Cache.Type))
	}

	validSinks := map[string]bool{"csv": true, "postgres": true, "kafka": true}
	for _, sink := range c.Export.Sinks {
		if !validSinks[sink] {
			errs = append(errs, fmt.Sprintf("invalid export sink: %s (must be csv, postgres, or kafka)", sink))
		}
	}

	if c.Export.Timeout < 0 {
		errs = append(errs, "export timeout must not be negative")
	}

	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		errs = append(errs, "metrics port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return apperrors.Newf(apperrors.ErrInvalidConfig, "config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
