// Package config loads runtime settings from defaults, an optional YAML file,
// a .env file and NAGAR_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // Timezone must load on hosts without a zoneinfo database

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const envPrefix = "NAGAR"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	ListenAddr     string        `yaml:"listenAddr"     split_words:"true"`
	DBDriver       string        `yaml:"dbDriver"       envconfig:"DB_DRIVER"`
	DatabaseDSN    string        `yaml:"databaseDsn"    envconfig:"DATABASE_DSN"`
	RedisAddr      string        `yaml:"redisAddr"      split_words:"true"`
	RedisPassword  string        `yaml:"redisPassword"  split_words:"true"`
	RedisDB        int           `yaml:"redisDb"        envconfig:"REDIS_DB"`
	JWTSecret      string        `yaml:"jwtSecret"      envconfig:"JWT_SECRET"`
	TokenTTL       time.Duration `yaml:"tokenTtl"       envconfig:"TOKEN_TTL"`
	LogMode        string        `yaml:"logMode"        split_words:"true"`
	Timezone       string        `yaml:"timezone"`
	CacheTTL       time.Duration `yaml:"cacheTtl"       envconfig:"CACHE_TTL"`
	AllowedOrigins []string      `yaml:"allowedOrigins" split_words:"true"`
	SeedSampleData bool          `yaml:"seedSampleData" split_words:"true"`
}

func Default() *Config {
	return &Config{
		ListenAddr:     ":8080",
		DBDriver:       DriverPostgres,
		DatabaseDSN:    "host=localhost user=user password=password dbname=nagarneuron port=5432 sslmode=disable",
		RedisAddr:      "",
		JWTSecret:      "dev-secret-change-me",
		TokenTTL:       72 * time.Hour,
		LogMode:        "dev",
		Timezone:       "Asia/Kolkata",
		CacheTTL:       DefaultCacheTTL,
		AllowedOrigins: []string{"*"},
	}
}

// Load builds the config. configFile may be empty.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported db driver %q", c.DBDriver)
	}
	if c.DatabaseDSN == "" {
		return errors.New("database dsn is required")
	}
	if c.IsProd() && (c.JWTSecret == "" || c.JWTSecret == Default().JWTSecret) {
		return errors.New("a non-default jwt secret is required in prod mode")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.CacheTTL < 0 {
		return errors.New("cache ttl must not be negative")
	}
	return nil
}

func (c *Config) IsProd() bool {
	m := strings.ToLower(c.LogMode)
	return m == "prod" || m == "production"
}

// Location returns the configured timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
