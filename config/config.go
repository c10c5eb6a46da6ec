// Package config loads the server and migrator settings from the
// environment and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// EnvDevelopment disables the cookie domain and enables the dev-login route.
const EnvDevelopment = "development"

// Storage drivers.
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Mode selects which settings are mandatory.
type Mode int

const (
	// ModeServer requires the signing secret.
	ModeServer Mode = iota

	// ModeMigration only needs the database; the secret may be absent.
	ModeMigration
)

var (
	// ErrSecretMissing is returned when SECRET_KEY is empty outside
	// migration mode.
	ErrSecretMissing = errors.New("secret key is missing")

	// ErrInvalidConfig is returned for inconsistent settings.
	ErrInvalidConfig = errors.New("invalid config")
)

type Config struct {
	Env       string `yaml:"env" env:"APP_ENV" env-default:"production"`
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	HTTP    HTTPConfig    `yaml:"http"`
	Session SessionConfig `yaml:"session"`
	Storage StorageConfig `yaml:"storage"`
}

type HTTPConfig struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":4000"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

type SessionConfig struct {
	Issuer            string        `yaml:"issuer" env:"TOKEN_ISSUER" env-default:".epiclo.io"`
	RotationThreshold time.Duration `yaml:"rotation_threshold" env:"ROTATION_THRESHOLD" env-default:"30m"`
}

type StorageConfig struct {
	Driver      string `yaml:"driver" env:"STORAGE" env-default:"memory"`
	RedisURL    string `yaml:"redis_url" env:"REDIS_URL"`
	RedisPrefix string `yaml:"redis_prefix" env:"REDIS_PREFIX" env-default:"session"`
	DatabaseDSN string `yaml:"database_dsn" env:"DATABASE_DSN"`
}

// Development reports whether the server runs in development mode.
func (c *Config) Development() bool {
	return c.Env == EnvDevelopment
}

// Load reads the YAML file named by CONFIG_PATH, when set, and the
// environment, which takes precedence.
func Load(mode Mode) (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.validate(mode); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad(mode Mode) *Config {
	cfg, err := Load(mode)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	return cfg
}

func (c *Config) validate(mode Mode) error {
	if mode == ModeMigration {
		if c.Storage.DatabaseDSN == "" {
			return fmt.Errorf("%w: DATABASE_DSN is required for migrations", ErrInvalidConfig)
		}
		return nil
	}

	if c.SecretKey == "" {
		return ErrSecretMissing
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StorageRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("%w: REDIS_URL is required for the redis storage", ErrInvalidConfig)
		}
	case StoragePostgres:
		if c.Storage.DatabaseDSN == "" {
			return fmt.Errorf("%w: DATABASE_DSN is required for the postgres storage", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}

	if c.Session.RotationThreshold < 0 {
		return fmt.Errorf("%w: rotation threshold cannot be negative", ErrInvalidConfig)
	}

	return nil
}
