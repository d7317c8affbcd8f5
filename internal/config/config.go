package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
)

type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"8080"`

	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string        `env:"GOOGLE_REDIRECT_URL"`
	GoogleIssuer       string        `env:"GOOGLE_ISSUER" envDefault:"https://accounts.google.com"`
	GoogleUserInfoURL  string        `env:"GOOGLE_USERINFO_URL" envDefault:"https://openidconnect.googleapis.com/v1/userinfo"`
	ProviderTimeout    time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`

	DirectoryDriver string `env:"DIRECTORY_DRIVER" envDefault:"postgres"`
	DatabaseDSN     string `env:"DATABASE_DSN"`
	SQLitePath      string `env:"SQLITE_PATH" envDefault:"campus-auth.db"`
	RedisAddr       string `env:"REDIS_ADDR"`
	RedisPassword   string `env:"REDIS_PASSWORD"`

	AllowedDomains        []string `env:"POLICY_ALLOWED_DOMAINS" envSeparator:"," envDefault:"fpt.edu.vn,fe.edu.vn"`
	StudentDigitThreshold int      `env:"POLICY_STUDENT_DIGIT_THRESHOLD" envDefault:"4"`
	FoldDomainCase        bool     `env:"POLICY_FOLD_DOMAIN_CASE" envDefault:"false"`

	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.AllowedDomains = trimCSV(cfg.AllowedDomains)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// OAuthEnabled reports whether the browser redirect flow is configured.
func (c Config) OAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

func (c Config) Validate() error {
	var errs []error

	if c.AppPort == "" {
		errs = append(errs, errors.New("APP_PORT is required"))
	}
	if c.GoogleUserInfoURL == "" {
		errs = append(errs, errors.New("GOOGLE_USERINFO_URL is required"))
	}
	if c.ProviderTimeout <= 0 {
		errs = append(errs, errors.New("PROVIDER_TIMEOUT must be positive"))
	}

	// partial OAuth settings are almost always a deployment mistake
	set := 0
	for _, v := range []string{c.GoogleClientID, c.GoogleClientSecret, c.GoogleRedirectURL} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URL must be set together"))
	}

	switch c.DirectoryDriver {
	case DriverPostgres:
		if c.DatabaseDSN == "" {
			errs = append(errs, errors.New("DATABASE_DSN is required for the postgres directory"))
		}
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite directory"))
		}
	case DriverRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis directory"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DIRECTORY_DRIVER %q", c.DirectoryDriver))
	}

	if len(c.AllowedDomains) == 0 {
		errs = append(errs, errors.New("POLICY_ALLOWED_DOMAINS must list at least one domain"))
	}
	if c.StudentDigitThreshold < 1 {
		errs = append(errs, errors.New("POLICY_STUDENT_DIGIT_THRESHOLD must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func trimCSV(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
