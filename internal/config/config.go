package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort  string
	LogLevel string

	// BackendURL is the origin of the mentoring backend that acts as the
	// session authority.
	BackendURL    string
	VerifyPath    string
	VerifyTimeout time.Duration

	// BypassSessionCheck skips the verification round trip and trusts a
	// non-empty local claim. Only for constrained test deployments.
	BypassSessionCheck bool

	RedisAddr     string
	RedisPassword string

	LoginPath    string
	LandingPath  string
	CookieSecure bool
}

// Load reads configuration from a .env file when present, then from the
// process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppPort:  getEnv("APP_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BackendURL:    strings.TrimRight(os.Getenv("BACKEND_URL"), "/"),
		VerifyPath:    getEnv("VERIFY_PATH", "/api/verify-session"),
		VerifyTimeout: getEnvAsDuration("VERIFY_TIMEOUT", 10*time.Second),

		BypassSessionCheck: getEnvAsBool("BYPASS_SESSION_CHECK", false),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		LoginPath:    getEnv("LOGIN_PATH", "/login"),
		LandingPath:  getEnv("LANDING_PATH", "/"),
		CookieSecure: getEnvAsBool("COOKIE_SECURE", true),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present.
func (c Config) Validate() error {
	if c.BackendURL == "" && !c.BypassSessionCheck {
		return fmt.Errorf("BACKEND_URL is required unless BYPASS_SESSION_CHECK is set")
	}
	if !strings.HasPrefix(c.VerifyPath, "/") {
		return fmt.Errorf("VERIFY_PATH must start with /")
	}
	if c.VerifyTimeout < 0 {
		return fmt.Errorf("VERIFY_TIMEOUT must not be negative")
	}
	if err := validatePagePath("LOGIN_PATH", c.LoginPath); err != nil {
		return err
	}
	if err := validatePagePath("LANDING_PATH", c.LandingPath); err != nil {
		return err
	}
	return nil
}

// ReservedPaths are served by the portal itself; LOGIN_PATH and LANDING_PATH
// may not take them over.
var ReservedPaths = []string{
	"/health",
	"/metrics",
	"/session",
	"/dashboard",
	"/mentordashboard",
	"/menteedashboard",
	"/choice",
	"/admin/matching",
}

func validatePagePath(key, path string) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%s must be a path starting with /", key)
	}
	if strings.ContainsAny(path, ":*") {
		return fmt.Errorf("%s must not contain route wildcards", key)
	}
	if path == "/auth" || strings.HasPrefix(path, "/auth/") {
		return fmt.Errorf("%s must not be under /auth", key)
	}
	if slices.Contains(ReservedPaths, path) {
		return fmt.Errorf("%s %q is reserved", key, path)
	}
	return nil
}

// VerifyURL is the absolute URL of the session authority endpoint.
func (c Config) VerifyURL() string {
	return c.BackendURL + c.VerifyPath
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool accepts the strconv.ParseBool spellings; anything unparsable
// yields the default.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
