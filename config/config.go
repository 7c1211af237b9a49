/*
Package config loads the server configuration from the environment.

PURPOSE:
  A .env file, when present, is loaded first; real environment variables
  win over it. Every setting has a typed fallback so a bare checkout runs
  against a local SQLite file.

SEE ALSO:
  - cmd/server/main.go: Flag overrides and wiring
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Payroll   PayrollConfig
	Scheduler SchedulerConfig
	Export    ExportConfig
}

type AppConfig struct {
	Environment        string
	LogLevel           string
	Port               string
	RateLimitPerMinute int
}

type DatabaseConfig struct {
	Driver string
	Path   string // sqlite
	URL    string // postgres
}

type PayrollConfig struct {
	EmployerNumber string
	RulesFile      string
}

type SchedulerConfig struct {
	Enabled  bool
	Interval time.Duration
	RunDay   int
}

type ExportConfig struct {
	Dir         string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

// UseS3 reports whether exports are archived to object storage.
func (c ExportConfig) UseS3() bool { return c.S3Bucket != "" }

// Load reads .env (if any) and the environment. It does not validate.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() (*Config, error) {
	var errs []error
	cfg := &Config{
		App: AppConfig{
			Environment:        getEnv("APP_ENV", EnvDevelopment),
			LogLevel:           getEnv("LOG_LEVEL", "info"),
			Port:               getEnv("PORT", "8080"),
			RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120, &errs),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
			Path:   getEnv("DB_PATH", "payroll.db"),
			URL:    getEnv("DATABASE_URL", ""),
		},
		Payroll: PayrollConfig{
			EmployerNumber: getEnv("EMPLOYER_NUMBER", ""),
			RulesFile:      getEnv("RULES_FILE", ""),
		},
		Scheduler: SchedulerConfig{
			Enabled:  getEnvBool("SCHEDULER_ENABLED", false, &errs),
			Interval: getEnvDuration("SCHEDULER_INTERVAL", time.Hour, &errs),
			RunDay:   getEnvInt("SCHEDULER_RUN_DAY", 25, &errs),
		},
		Export: ExportConfig{
			Dir:         getEnv("EXPORT_DIR", "exports"),
			S3Bucket:    getEnv("S3_BUCKET", ""),
			S3Region:    getEnv("S3_REGION", ""),
			S3Endpoint:  getEnv("S3_ENDPOINT", ""),
			S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		},
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool { return c.App.Environment == EnvProduction }

// Validate rejects inconsistent settings.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("DB_PATH is required for sqlite"))
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q: must be %s or %s", c.Database.Driver, DriverSQLite, DriverPostgres))
	}
	if c.App.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.App.RateLimitPerMinute <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be positive"))
	}
	if c.IsProduction() && c.Payroll.EmployerNumber == "" {
		errs = append(errs, errors.New("EMPLOYER_NUMBER is required in production"))
	}
	if c.Scheduler.Enabled {
		if c.Scheduler.Interval <= 0 {
			errs = append(errs, errors.New("SCHEDULER_INTERVAL must be positive"))
		}
		if c.Scheduler.RunDay < 1 || c.Scheduler.RunDay > 28 {
			errs = append(errs, errors.New("SCHEDULER_RUN_DAY must be between 1 and 28"))
		}
	}
	if c.Export.UseS3() && (c.Export.S3AccessKey == "") != (c.Export.S3SecretKey == "") {
		errs = append(errs, errors.New("S3_ACCESS_KEY and S3_SECRET_KEY must be set together"))
	}
	return errors.Join(errs...)
}

// =============================================================================
// ENV HELPERS
// =============================================================================

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not an integer", key, value))
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool, errs *[]error) bool {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not a boolean", key, value))
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not a duration", key, value))
		return fallback
	}
	return d
}
