package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	StoreDriverMongo    = "mongo"
	StoreDriverPostgres = "postgres"
	StoreDriverRedis    = "redis"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Environment string `toml:"-"`

	Host string
	Port int
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// document store
	StoreDriver     string `toml:"store_driver"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDB         string `toml:"mongo_db"`
	MongoCollection string `toml:"mongo_collection"`
	PostgresHost    string `toml:"postgres_host"`
	PostgresPort    string `toml:"postgres_port"`
	PostgresDBName  string `toml:"postgres_db_name"`
	// redis
	RedisHost      string `toml:"redis_host"`
	RedisPort      string `toml:"redis_port"`
	RedisKeyPrefix string `toml:"redis_key_prefix"`
	// tracker
	WriteRateLimitPerMin int      `toml:"write_rate_limit_per_min"`
	CatalogPath          string   `toml:"catalog_path"`
	RestDays             []string `toml:"rest_days"`
	AllowedOrigins       []string `toml:"allowed_origins"`
	// audio
	AudioDir             string `toml:"audio_dir"`
	AudioCacheTTLSeconds int    `toml:"audio_cache_ttl_seconds"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path and returns the config of env.
// FITTRACK_MONGO_URI, if set, overrides mongo_uri.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	cfg.Environment = strings.ToLower(env)

	if mongoURI := os.Getenv("FITTRACK_MONGO_URI"); mongoURI != "" {
		cfg.MongoURI = mongoURI
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", env, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "":
		c.StoreDriver = StoreDriverMongo
	case StoreDriverMongo, StoreDriverPostgres, StoreDriverRedis, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown store driver: %s", c.StoreDriver)
	}

	if c.Port <= 0 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.StoreDriver == StoreDriverMongo && c.MongoURI == "" {
		return fmt.Errorf("mongo_uri not set")
	}
	if c.MongoDB == "" {
		c.MongoDB = "fittrack"
	}
	if c.MongoCollection == "" {
		c.MongoCollection = "state"
	}
	if c.AudioCacheTTLSeconds < 0 {
		return fmt.Errorf("invalid audio cache ttl: %d", c.AudioCacheTTLSeconds)
	}
	return nil
}
