// Package config resolves the server's runtime configuration.
//
// Values are resolved in priority order: defaults, then the YAML file named by
// CONFIG_FILE (when set), then environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

var validBackends = []string{BackendSQLite, BackendPostgres, BackendMemory}

type Config struct {
	AppEnv string

	// HTTP server
	Port            string
	ShutdownTimeout time.Duration

	// Storage
	DataBackend string
	DBPath      string
	DatabaseURL string
	DBMaxConns  int

	// Optional infrastructure. Empty URLs disable the feature.
	RedisURL     string
	AMQPURL      string
	AMQPExchange string

	// Auth. An empty secret disables bearer authentication.
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	IdempotencyTTL time.Duration

	LogLevel  string
	LogFormat string

	// problems found while reading values; reported by Validate
	parseErrs []string
}

// fileConfig mirrors the YAML schema. Zero values leave the default in place.
type fileConfig struct {
	App struct {
		Env             string `yaml:"env"`
		Port            string `yaml:"port"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"app"`
	Storage struct {
		Backend     string `yaml:"backend"`
		Path        string `yaml:"path"`
		DatabaseURL string `yaml:"database_url"`
		MaxConns    int    `yaml:"max_conns"`
	} `yaml:"storage"`
	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`
	AMQP struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"amqp"`
	Auth struct {
		Secret   string `yaml:"secret"`
		Issuer   string `yaml:"issuer"`
		TokenTTL string `yaml:"token_ttl"`
	} `yaml:"auth"`
	Idempotency struct {
		TTL string `yaml:"ttl"`
	} `yaml:"idempotency"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func defaults() *Config {
	return &Config{
		AppEnv:          "development",
		Port:            "8080",
		ShutdownTimeout: 10 * time.Second,
		DataBackend:     BackendSQLite,
		DBPath:          "./data/splitledger.db",
		DBMaxConns:      10,
		AMQPExchange:    "splitledger",
		JWTIssuer:       "splitledger",
		TokenTTL:        24 * time.Hour,
		IdempotencyTTL:  24 * time.Hour,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load builds the configuration. It fails only when CONFIG_FILE names a file
// that cannot be read or parsed; bad individual values surface in Validate.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		var f fileConfig
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
		cfg.applyFile(&f)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(f *fileConfig) {
	setString(&c.AppEnv, f.App.Env)
	setString(&c.Port, f.App.Port)
	c.setDuration(&c.ShutdownTimeout, "app.shutdown_timeout", f.App.ShutdownTimeout)

	setString(&c.DataBackend, f.Storage.Backend)
	setString(&c.DBPath, f.Storage.Path)
	setString(&c.DatabaseURL, f.Storage.DatabaseURL)
	if f.Storage.MaxConns != 0 {
		c.DBMaxConns = f.Storage.MaxConns
	}

	setString(&c.RedisURL, f.Redis.URL)
	setString(&c.AMQPURL, f.AMQP.URL)
	setString(&c.AMQPExchange, f.AMQP.Exchange)

	setString(&c.JWTSecret, f.Auth.Secret)
	setString(&c.JWTIssuer, f.Auth.Issuer)
	c.setDuration(&c.TokenTTL, "auth.token_ttl", f.Auth.TokenTTL)

	c.setDuration(&c.IdempotencyTTL, "idempotency.ttl", f.Idempotency.TTL)

	setString(&c.LogLevel, f.Log.Level)
	setString(&c.LogFormat, f.Log.Format)
}

func (c *Config) applyEnv() {
	setString(&c.AppEnv, os.Getenv("APP_ENV"))
	setString(&c.Port, os.Getenv("PORT"))
	c.setDuration(&c.ShutdownTimeout, "SHUTDOWN_TIMEOUT", os.Getenv("SHUTDOWN_TIMEOUT"))

	setString(&c.DataBackend, os.Getenv("DATA_BACKEND"))
	setString(&c.DBPath, os.Getenv("DB_PATH"))
	setString(&c.DatabaseURL, os.Getenv("DATABASE_URL"))
	if raw := os.Getenv("DB_MAX_CONNS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.parseErrs = append(c.parseErrs, fmt.Sprintf("invalid DB_MAX_CONNS '%s': must be a number", raw))
		} else {
			c.DBMaxConns = n
		}
	}

	setString(&c.RedisURL, os.Getenv("REDIS_URL"))
	setString(&c.AMQPURL, os.Getenv("AMQP_URL"))
	setString(&c.AMQPExchange, os.Getenv("AMQP_EXCHANGE"))

	setString(&c.JWTSecret, os.Getenv("JWT_SECRET"))
	setString(&c.JWTIssuer, os.Getenv("JWT_ISSUER"))
	c.setDuration(&c.TokenTTL, "TOKEN_TTL", os.Getenv("TOKEN_TTL"))

	c.setDuration(&c.IdempotencyTTL, "IDEMPOTENCY_TTL", os.Getenv("IDEMPOTENCY_TTL"))

	setString(&c.LogLevel, strings.ToLower(os.Getenv("LOG_LEVEL")))
	setString(&c.LogFormat, strings.ToLower(os.Getenv("LOG_FORMAT")))
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	errs := slices.Clone(c.parseErrs)

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendSQLite:
		if c.DBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.DBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required when using postgres backend")
		}
		if c.DBMaxConns < 1 {
			errs = append(errs, fmt.Sprintf("invalid DB_MAX_CONNS %d: must be at least 1", c.DBMaxConns))
		}
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.JWTSecret != "" && len(c.JWTSecret) < 16 {
		errs = append(errs, "JWT secret must be at least 16 characters")
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Sprintf("invalid token TTL %v: must be positive", c.TokenTTL))
	}
	if c.IdempotencyTTL < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid idempotency TTL %v: must be at least 1 minute", c.IdempotencyTTL))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("invalid shutdown timeout %v: must be positive", c.ShutdownTimeout))
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.LogLevel) {
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// AuthEnabled reports whether bearer tokens are required.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *Config) setDuration(dst *time.Duration, name, raw string) {
	if raw == "" {
		return
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Sprintf("invalid %s '%s': %v", name, raw, err))
		return
	}
	*dst = d
}
