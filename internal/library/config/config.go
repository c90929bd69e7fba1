package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Supported storage drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Driver          string
	DSN             string
	MongoURI        string
	DBName          string
	BooksCollection string
	Timeout         time.Duration
	SlowThreshold   time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
	LogFormat       string
}

func LoadConfig() (*Config, error) {
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads the configuration without validating it, so callers can
// apply overrides first.
func FromEnv() *Config {
	return &Config{
		Driver:          getEnv("DB_DRIVER", DriverSQLite),
		DSN:             getEnv("DB_DSN", "file:library.db"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:          getEnv("DB_NAME", "library"),
		BooksCollection: getEnv("COLLECTION_BOOKS", "books"),
		Timeout:         getEnvDuration("DB_TIMEOUT", 10*time.Second),
		SlowThreshold:   getEnvDuration("DB_SLOW_THRESHOLD", 200*time.Millisecond),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
	}
}

func (c *Config) Validate() error {
	switch c.Driver {
	case DriverSQLite, DriverPostgres:
		if c.DSN == "" {
			return fmt.Errorf("DB_DSN is required for driver %s", c.Driver)
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for driver %s", c.Driver)
		}
		if c.DBName == "" || c.BooksCollection == "" {
			return fmt.Errorf("DB_NAME and COLLECTION_BOOKS are required for driver %s", c.Driver)
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want sqlite, postgres or mongo)", c.Driver)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("DB_TIMEOUT must be positive")
	}
	return nil
}

// IsSQL reports whether the configured driver goes through the ORM.
func (c *Config) IsSQL() bool {
	return c.Driver == DriverSQLite || c.Driver == DriverPostgres
}

// Dialect returns the SQL dialect name used to pick embedded migrations.
func (c *Config) Dialect() string {
	if c.Driver == DriverPostgres {
		return "postgres"
	}
	return "sqlite"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return fallback
	}
	return val
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		// Try parsing as duration string, e.g. "10s"
		d, err := time.ParseDuration(valStr)
		if err == nil {
			return d
		}
		return fallback
	}
	return time.Duration(val) * time.Second
}
