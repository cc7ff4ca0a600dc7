package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Driver names a document store backend.
type Driver string

const (
	DriverMongo  Driver = "mongo"
	DriverRedis  Driver = "redis"
	DriverSQLite Driver = "sqlite"
)

// UnmarshalText implements encoding.TextUnmarshaler for Driver.
func (d *Driver) UnmarshalText(text []byte) error {
	v := Driver(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case DriverMongo, DriverRedis, DriverSQLite:
		*d = v
		return nil
	default:
		return fmt.Errorf("invalid document store driver %q (valid options: mongo, redis, sqlite)", text)
	}
}

type MongoConfig struct {
	URI        string `env:"URI"        envDefault:"mongodb://localhost:27017"`
	Database   string `env:"DATABASE"   envDefault:"jobmanager"`
	Collection string `env:"COLLECTION" envDefault:"jobs"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
	Prefix   string `env:"PREFIX"   envDefault:"jobmanager:"`
}

type LogConfig struct {
	Level  string `env:"LEVEL"  envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

type Config struct {
	Port string `env:"PORT" envDefault:"5001"`

	// DocumentStore is the single backend toggle: false keeps jobs in memory.
	DocumentStore bool `env:"DOCUMENT_STORE" envDefault:"false"`
	// Driver picks the document store used when DocumentStore is true.
	Driver Driver `env:"DOCUMENT_STORE_DRIVER" envDefault:"mongo"`

	Mongo      MongoConfig `envPrefix:"MONGO_"`
	Redis      RedisConfig `envPrefix:"REDIS_"`
	SQLitePath string      `env:"SQLITE_PATH" envDefault:"jobs.db"`

	// MaxConcurrent bounds running work functions; 0 means unbounded.
	MaxConcurrent int `env:"EXECUTOR_MAX_CONCURRENT" envDefault:"0"`

	Job1Delay time.Duration `env:"JOB1_DELAY" envDefault:"10s"`
	Job2Delay time.Duration `env:"JOB2_DELAY" envDefault:"5s"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	Log LogConfig `envPrefix:"LOG_"`
}

// Load reads a .env file when present, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}

// Sanitize clamps values that would make no sense at runtime.
func (c *Config) Sanitize() {
	if c.MaxConcurrent < 0 {
		c.MaxConcurrent = 0
	}
	if c.Job1Delay < 0 {
		c.Job1Delay = 0
	}
	if c.Job2Delay < 0 {
		c.Job2Delay = 0
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
}
