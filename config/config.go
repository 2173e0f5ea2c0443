// Package config loads the server configuration from a YAML file.
//
// An optional .env file next to the working directory is loaded first and
// ${VAR} references in the YAML are expanded from the environment, so
// secrets can stay out of the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Remote   RemoteConfig   `yaml:"remote"`
	Cache    CacheConfig    `yaml:"cache"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Payment  PaymentConfig  `yaml:"payment"`
	Board    BoardConfig    `yaml:"board"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RemoteConfig selects the shared data store. Driver "" means no
// credentials: the service runs on the local cache only.
type RemoteConfig struct {
	Driver  string `yaml:"driver"` // postgres | memory | ""
	DSN     string `yaml:"dsn"`
	Migrate bool   `yaml:"migrate"`

	// ProbeInterval re-runs the connectivity probes; zero disables them.
	ProbeInterval time.Duration `yaml:"probe_interval"`
}

type CacheConfig struct {
	Driver string      `yaml:"driver"` // sqlite | redis | memory
	Path   string      `yaml:"path"`
	Redis  RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Prefix   string `yaml:"prefix"`
}

// RabbitMQConfig enables kitchen events when Host is set.
type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
	TLS      bool   `yaml:"tls"`
	Exchange string `yaml:"exchange"`
}

type PaymentConfig struct {
	Provider          string `yaml:"provider"` // stripe | midtrans | ""
	StripeSecretKey   string `yaml:"stripe_secret_key"`
	MidtransServerKey string `yaml:"midtrans_server_key"`
	Production        bool   `yaml:"production"`
	Currency          string `yaml:"currency"` // midtrans requires idr
}

type BoardConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// Default is the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"}},
		Remote: RemoteConfig{ProbeInterval: time.Minute},
		Cache:  CacheConfig{Driver: "sqlite", Path: "fuego_cache.db"},
		Payment: PaymentConfig{
			Provider: "stripe",
			Currency: "brl",
		},
		Board: BoardConfig{RefreshInterval: 15 * time.Second},
	}
}

// Load reads path over the defaults. A missing .env is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.Remote.Driver {
	case "", "memory":
	case "postgres":
		if c.Remote.DSN == "" {
			return errors.New("remote.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown remote driver %q", c.Remote.Driver)
	}

	switch c.Cache.Driver {
	case "memory":
	case "sqlite":
		if c.Cache.Path == "" {
			return errors.New("cache.path is required for the sqlite driver")
		}
	case "redis":
		if c.Cache.Redis.Address == "" {
			return errors.New("cache.redis.address is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}

	switch c.Payment.Provider {
	case "", "stripe":
	case "midtrans":
		if !strings.EqualFold(c.Payment.Currency, "idr") {
			return errors.New("payment.currency must be idr for the midtrans provider")
		}
	default:
		return fmt.Errorf("unknown payment provider %q", c.Payment.Provider)
	}

	if c.Board.RefreshInterval <= 0 {
		return errors.New("board.refresh_interval must be positive")
	}
	return nil
}
