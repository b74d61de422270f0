package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	Type            string        `mapstructure:"type"`
	Path            string        `mapstructure:"path"`
	URL             string        `mapstructure:"url"`
	MaxRetries      int           `mapstructure:"maxRetries"`
	RetryDelay      time.Duration `mapstructure:"retryDelay"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

type AuthConfig struct {
	BcryptCost int `mapstructure:"bcryptCost"`
}

type SessionConfig struct {
	// TTL of zero keeps sessions valid until the next login rotates them.
	TTL time.Duration `mapstructure:"ttl"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ExportConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	Bucket          string        `mapstructure:"bucket"`
	AccessKeyID     string        `mapstructure:"accessKeyID"`
	SecretAccessKey string        `mapstructure:"secretAccessKey"`
	PresignTTL      time.Duration `mapstructure:"presignTTL"`
}

// Enabled reports whether wallet snapshots can be exported.
func (e ExportConfig) Enabled() bool {
	return e.Bucket != ""
}

type Config struct {
	APIPort  int            `mapstructure:"apiPort"`
	Timezone string         `mapstructure:"timezone"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Session  SessionConfig  `mapstructure:"session"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`
	Export   ExportConfig   `mapstructure:"export"`
}

// Location resolves the configured timezone used to stamp ledger entries.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("apiPort", 5000)
	v.SetDefault("timezone", "Local")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "data/mywallet.db")
	v.SetDefault("database.url", "")
	v.SetDefault("database.maxRetries", 5)
	v.SetDefault("database.retryDelay", "2s")
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", "1h")

	v.SetDefault("auth.bcryptCost", 10)
	v.SetDefault("session.ttl", "0s")
	v.SetDefault("cors.allowedOrigins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("export.endpoint", "")
	v.SetDefault("export.region", "us-east-1")
	v.SetDefault("export.bucket", "")
	v.SetDefault("export.accessKeyID", "")
	v.SetDefault("export.secretAccessKey", "")
	v.SetDefault("export.presignTTL", "15m")
}

// LoadConfig loads the configuration from file and environment variables.
// Environment variables use the upper-cased key with dots replaced by
// underscores, e.g. DATABASE_URL or SESSION_TTL.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		log.Printf("Warning: could not read config file %s, using defaults and environment", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	if c.APIPort <= 0 {
		log.Printf("apiPort %d is not usable, using default 5000", c.APIPort)
		c.APIPort = 5000
	}

	c.Database.Type = strings.ToLower(strings.TrimSpace(c.Database.Type))
	switch c.Database.Type {
	case "", "sqlite", "sqlite3":
		c.Database.Type = "sqlite"
	case "postgres", "postgresql":
		c.Database.Type = "postgres"
		if c.Database.URL == "" {
			return errors.New("database.url is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if c.Database.MaxRetries < 1 {
		c.Database.MaxRetries = 1
	}

	// bcrypt rejects costs outside [4, 31]
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		log.Printf("auth.bcryptCost %d out of range, using 10", c.Auth.BcryptCost)
		c.Auth.BcryptCost = 10
	}

	if c.Session.TTL < 0 {
		c.Session.TTL = 0
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}
