// Package config loads the server configuration from a YAML file, an
// optional .env file and DONACIJE_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full server configuration. It is built once in main and
// passed down explicitly.
type Config struct {
	DB     DBConfig     `yaml:"db"`
	Server ServerConfig `yaml:"server"`
	Auth   AuthConfig   `yaml:"auth"`
	Log    LogConfig    `yaml:"log"`
	Photos PhotoConfig  `yaml:"photos"`
}

// DBConfig configures the SQLite store and its connection pool.
type DBConfig struct {
	Path           string        `yaml:"path" env:"DONACIJE_DB_PATH"`
	MaxConns       int           `yaml:"max_conns" env:"DONACIJE_DB_MAX_CONNS"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout" env:"DONACIJE_DB_ACQUIRE_TIMEOUT"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr           string        `yaml:"addr" env:"DONACIJE_ADDR"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"DONACIJE_REQUEST_TIMEOUT"`
	LoginRate      float64       `yaml:"login_rate" env:"DONACIJE_LOGIN_RATE"`
	LoginBurst     int           `yaml:"login_burst" env:"DONACIJE_LOGIN_BURST"`
}

// AuthConfig configures token issuance. An empty secret means the secret
// stored in the database is used.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"DONACIJE_JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"DONACIJE_TOKEN_TTL"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Path string `yaml:"path" env:"DONACIJE_LOG_PATH"`
}

// PhotoConfig bounds uploaded item photos.
type PhotoConfig struct {
	MaxDimension int   `yaml:"max_dimension" env:"DONACIJE_PHOTO_MAX_DIMENSION"`
	Quality      int   `yaml:"quality" env:"DONACIJE_PHOTO_QUALITY"`
	MaxBytes     int64 `yaml:"max_bytes" env:"DONACIJE_PHOTO_MAX_BYTES"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		DB: DBConfig{
			Path:           "donacije.sqlite3",
			MaxConns:       20,
			AcquireTimeout: 5 * time.Second,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 30 * time.Second,
			LoginRate:      5,
			LoginBurst:     10,
		},
		Auth: AuthConfig{
			TokenTTL: 30 * time.Minute,
		},
		Photos: PhotoConfig{
			MaxDimension: 1024,
			Quality:      85,
			MaxBytes:     10 << 20,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), a .env file in the working directory if present, and the
// environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.DB.Path == "" {
		return fmt.Errorf("db.path is required")
	}
	if c.DB.MaxConns <= 0 {
		return fmt.Errorf("db.max_conns must be positive, got %d", c.DB.MaxConns)
	}
	if c.DB.AcquireTimeout <= 0 {
		return fmt.Errorf("db.acquire_timeout must be positive")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}
	if c.Server.LoginRate <= 0 || c.Server.LoginBurst <= 0 {
		return fmt.Errorf("server.login_rate and server.login_burst must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.Photos.MaxDimension <= 0 || c.Photos.MaxBytes <= 0 {
		return fmt.Errorf("photos.max_dimension and photos.max_bytes must be positive")
	}
	if c.Photos.Quality < 1 || c.Photos.Quality > 100 {
		return fmt.Errorf("photos.quality must be between 1 and 100, got %d", c.Photos.Quality)
	}
	return nil
}
