package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

const defaultMaxUploadBytes = 50 * 1024 * 1024

// Config is read once from the environment at startup. cmd binaries load a
// .env file first, so values there apply unless already set.
type Config struct {
	Server   ServerConfig
	Dataset  DatasetConfig
	Logger   LoggerConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatasetConfig controls how uploaded CSV files are turned into a session.
type DatasetConfig struct {
	SeedCSV         string
	SeedTimeout     time.Duration
	MaxUploadBytes  int64
	StrictColumns   bool
	IngestWorkers   int
	IngestBatchSize int
}

type LoggerConfig struct {
	Level  string
	Format string
	Output string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Dataset: DatasetConfig{
			SeedCSV:         getEnvString("SEED_CSV", ""),
			SeedTimeout:     getEnvDuration("SEED_TIMEOUT", 30*time.Second),
			MaxUploadBytes:  getEnvInt64("UPLOAD_MAX_BYTES", defaultMaxUploadBytes),
			StrictColumns:   getEnvBool("STRICT_COLUMNS", true),
			IngestWorkers:   getEnvInt("INGEST_WORKERS", 4),
			IngestBatchSize: getEnvInt("INGEST_BATCH_SIZE", 5000),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
			Output: getEnvString("LOG_OUTPUT", "stdout"),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", 10),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}),
			TrustedProxies:  getEnvStringSlice("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"json", "text"}
	validLogOutputs = []string{"stdout", "stderr"}
)

// validate reports every invalid setting at once rather than stopping at the
// first.
func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Server.Port >= 1 && c.Server.Port <= 65535, "server port must be between 1 and 65535, got %d", c.Server.Port)
	check(c.Server.ReadTimeout > 0, "server read timeout must be positive")
	check(c.Server.WriteTimeout > 0, "server write timeout must be positive")

	check(c.Dataset.MaxUploadBytes > 0, "upload size limit must be positive")
	check(c.Dataset.IngestWorkers > 0, "ingest workers must be positive")
	check(c.Dataset.IngestBatchSize > 0, "ingest batch size must be positive")
	check(c.Dataset.SeedTimeout > 0, "seed timeout must be positive")
	if c.Dataset.SeedCSV != "" {
		check(strings.EqualFold(filepath.Ext(c.Dataset.SeedCSV), ".csv"), "seed file %q must have a .csv extension", c.Dataset.SeedCSV)
	}

	check(slices.Contains(validLogLevels, c.Logger.Level), "invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	check(slices.Contains(validLogFormats, c.Logger.Format), "invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	check(slices.Contains(validLogOutputs, c.Logger.Output), "invalid log output %q, must be one of: %s", c.Logger.Output, strings.Join(validLogOutputs, ", "))

	check(c.Security.RateLimitRPS > 0, "rate limit RPS must be positive")
	check(c.Security.RateLimitBurst > 0, "rate limit burst must be positive")

	return errors.Join(errs...)
}

// lookup parses key with parse, falling back to def when the variable is
// unset or unparseable.
func lookup[T any](key string, def T, parse func(string) (T, error)) T {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return def
	}
	v, err := parse(value)
	if err != nil {
		return def
	}
	return v
}

func getEnvString(key, defaultValue string) string {
	return lookup(key, defaultValue, func(s string) (string, error) { return s, nil })
}

func getEnvInt(key string, defaultValue int) int {
	return lookup(key, defaultValue, strconv.Atoi)
}

func getEnvInt64(key string, defaultValue int64) int64 {
	return lookup(key, defaultValue, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
}

func getEnvBool(key string, defaultValue bool) bool {
	return lookup(key, defaultValue, strconv.ParseBool)
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return lookup(key, defaultValue, time.ParseDuration)
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	return lookup(key, defaultValue, func(s string) ([]string, error) {
		var parts []string
		for part := range strings.SplitSeq(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				parts = append(parts, part)
			}
		}
		return parts, nil
	})
}

// UploadLimitMB is the upload cap in whole megabytes, for messages.
func (d DatasetConfig) UploadLimitMB() int64 {
	return d.MaxUploadBytes >> 20
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
