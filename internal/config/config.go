package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds homes-service configuration.
type Config struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`
	PublicDir   string `yaml:"public_dir"`
	JWTSecret   string `yaml:"jwt_secret"`

	Mongo   MongoConfig   `yaml:"mongo"`
	Data    DataConfig    `yaml:"data"`
	Logging LoggingConfig `yaml:"logging"`
}

// MongoConfig configures GridFS photo storage. Empty URI disables photos.
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// DataConfig configures the upstream data fetch.
type DataConfig struct {
	Endpoint string `yaml:"endpoint"`
	Timeout  string `yaml:"timeout"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Port:      "3000",
		PublicDir: "public",
		Mongo:     MongoConfig{Database: "homes"},
		Data:      DataConfig{Timeout: "10s"},
		Logging:   LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads .env (if any), then the YAML file at path (if given), then
// environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	override(&c.Port, "PORT")
	override(&c.DatabaseURL, "DATABASE_URL")
	override(&c.PublicDir, "PUBLIC_DIR")
	override(&c.JWTSecret, "JWT_SECRET")
	override(&c.Mongo.URI, "MONGO_URI")
	override(&c.Mongo.Database, "MONGO_DB")
	override(&c.Data.Endpoint, "DATA_ENDPOINT")
	override(&c.Data.Timeout, "FETCH_TIMEOUT")
	override(&c.Logging.Level, "LOG_LEVEL")
	override(&c.Logging.Format, "LOG_FORMAT")
}

// Validate reports configuration the service cannot start with.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL is required")
	}
	if c.Port == "" {
		return errors.New("config: port is required")
	}
	if _, err := time.ParseDuration(c.Data.Timeout); err != nil {
		return fmt.Errorf("config: data timeout %q: %w", c.Data.Timeout, err)
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// FetchTimeout is the upstream data fetch timeout, 10s if unparsable.
func (c *Config) FetchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Data.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
