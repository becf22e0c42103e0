// Package config provides configuration loading and validation for the API server.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database. Empty means the server runs on in-memory repositories,
	// which is only useful for local development and tests.
	DatabaseURL string `koanf:"database_url"`

	// Redis, used for distributed rate limiting. Empty disables it and the
	// rate limiter falls back to its in-process store.
	RedisURL string `koanf:"redis_url"`

	// JWT Authentication. Empty disables bearer-token verification.
	JWTSecret         string `koanf:"jwt_secret"`
	JWTSecretPrevious string `koanf:"jwt_secret_previous"`

	// Scoring calibration file (JSON). Empty uses built-in weights.
	CalibrationPath string `koanf:"calibration_path"`

	// Rate limiting
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`

	// Browser origins allowed to call the API. Empty disables CORS handling,
	// which suits server-to-server deployments.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// Tracing
	TracingEnabled    bool    `koanf:"tracing_enabled"`
	OTLPEndpoint      string  `koanf:"otlp_endpoint"`
	OTLPProtocol      string  `koanf:"otlp_protocol"` // "grpc" or "http"
	TracingSampleRate float64 `koanf:"tracing_sample_rate"`
}

// Configuration validation errors.
var (
	ErrInvalidPort         = errors.New("PORT must be a valid integer")
	ErrInvalidEnv          = errors.New("ENV must be one of development, staging, production")
	ErrInvalidOTLPProtocol = errors.New("OTLP_PROTOCOL must be grpc or http")
	ErrInvalidSampleRate   = errors.New("TRACING_SAMPLE_RATE must be between 0 and 1")
	ErrInvalidRateLimit    = errors.New("RATE_LIMIT_PER_MINUTE must be positive")
)

// Default values for non-secret configuration.
const (
	DefaultPort               = 8080
	DefaultEnv                = "development"
	DefaultOTLPProtocol       = "grpc"
	DefaultTracingSampleRate  = 1.0
	DefaultRateLimitPerMinute = 120
)

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	// Parse port from env, collecting error if invalid
	// Try QUESTBOARD_PORT first, then PORT for backward compatibility
	port, portErr := getEnvIntOrDefaultMulti([]string{"QUESTBOARD_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	rateLimit, rateLimitErr := getEnvIntOrDefault("RATE_LIMIT_PER_MINUTE", k.Int("rate_limit_per_minute"), DefaultRateLimitPerMinute)
	if rateLimitErr != nil {
		loadErrs = append(loadErrs, rateLimitErr)
	}

	sampleRate, sampleRateErr := getEnvFloatOrDefault("TRACING_SAMPLE_RATE", k.Float64("tracing_sample_rate"), DefaultTracingSampleRate)
	if sampleRateErr != nil {
		loadErrs = append(loadErrs, sampleRateErr)
	}

	tracingEnabled := k.Bool("tracing_enabled")
	if val := os.Getenv("TRACING_ENABLED"); val != "" {
		// Env var takes precedence over file config
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			tracingEnabled = true
		case "false", "0", "no", "off":
			tracingEnabled = false
		}
	}

	// Build config struct, with env vars taking precedence over file values
	cfg := &Config{
		Port:               port,
		Env:                getEnvOrDefaultMulti([]string{"QUESTBOARD_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		DatabaseURL:        getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		RedisURL:           getEnvOrKoanf("REDIS_URL", k, "redis_url"),
		JWTSecret:          getEnvOrKoanf("JWT_SECRET", k, "jwt_secret"),
		JWTSecretPrevious:  getEnvOrKoanf("JWT_SECRET_PREVIOUS", k, "jwt_secret_previous"),
		CalibrationPath:    getEnvOrKoanf("CALIBRATION_PATH", k, "calibration_path"),
		RateLimitPerMinute: rateLimit,
		CORSAllowedOrigins: getEnvListOrKoanf("CORS_ALLOWED_ORIGINS", k, "cors_allowed_origins"),
		TracingEnabled:     tracingEnabled,
		OTLPEndpoint:       getEnvOrKoanf("OTLP_ENDPOINT", k, "otlp_endpoint"),
		OTLPProtocol:       getEnvOrDefault("OTLP_PROTOCOL", k.String("otlp_protocol"), DefaultOTLPProtocol),
		TracingSampleRate:  sampleRate,
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvListOrKoanf returns the environment variable split on commas if set,
// otherwise the koanf list value.
func getEnvListOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) []string {
	if val := os.Getenv(envKey); val != "" {
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return k.Strings(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set, otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or default.
// Returns an error if any environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvFloatOrDefault returns the environment variable as float64 if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as a float.
func getEnvFloatOrDefault(envKey string, koanfVal float64, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid float: %w", envKey, err)
		}
		return f, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks configuration values for consistency.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, ErrInvalidPort)
	}

	switch c.Env {
	case "development", "staging", "production":
	default:
		errs = append(errs, ErrInvalidEnv)
	}

	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, ErrInvalidRateLimit)
	}

	if c.TracingEnabled {
		switch c.OTLPProtocol {
		case "grpc", "http":
		default:
			errs = append(errs, ErrInvalidOTLPProtocol)
		}
	}
	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		errs = append(errs, ErrInvalidSampleRate)
	}

	return errs
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LogSummary returns a summary of the configuration suitable for logging.
// All secrets are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                  fmt.Sprintf("%d", c.Port),
		"env":                   c.Env,
		"database_url":          maskDatabaseURL(c.DatabaseURL),
		"redis_url":             maskDatabaseURL(c.RedisURL),
		"jwt_secret":            maskSecret(c.JWTSecret),
		"jwt_secret_previous":   maskSecret(c.JWTSecretPrevious),
		"calibration_path":      orNotSet(c.CalibrationPath),
		"rate_limit_per_minute": fmt.Sprintf("%d", c.RateLimitPerMinute),
		"cors_allowed_origins":  orNotSet(strings.Join(c.CORSAllowedOrigins, ",")),
		"tracing_enabled":       fmt.Sprintf("%t", c.TracingEnabled),
		"otlp_endpoint":         orNotSet(c.OTLPEndpoint),
		"otlp_protocol":         c.OTLPProtocol,
		"tracing_sample_rate":   fmt.Sprintf("%g", c.TracingSampleRate),
	}
}

func orNotSet(s string) string {
	if s == "" {
		return "<not set>"
	}
	return s
}

// maskSecret masks a secret value, showing only the first 4 characters followed by ****
// If the secret is shorter than 8 characters, it's fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskDatabaseURL masks the password in a database URL.
// Supports postgres://, postgresql://, and redis:// schemes.
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	// Look for password pattern: user:password@host
	// Simple approach: find :// and then mask between : and @
	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	// Reconstruct URL with masked password
	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
