package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"
)

const (
	defaultAPIKey      = "bitrix-oauth-default-key"
	defaultRedirectURI = "http://localhost:3000/install"
	defaultMongoDB     = "bitrix-oauth"
)

// Config is the resolved process configuration.
type Config struct {
	Env      string
	Addr     string
	LogLevel string

	ClientID     string
	ClientSecret string
	RedirectURI  string
	APIKey       string

	Store         string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	RedisURL      string
	AutoMigrate   bool

	RemoteTimeout time.Duration
	RemoteScheme  string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads the .env file specified by CRMGATE_ENV (or .env by default),
// then loads the corresponding .secret file if it exists, and resolves the
// configuration from the environment.
func Load() (*Config, error) {
	envFile := os.Getenv("CRMGATE_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine; the environment alone may be enough.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return FromEnv()
}

// FromEnv resolves the configuration from already-set environment variables.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Env:            AppEnv(),
		Addr:           ServerAddr(),
		LogLevel:       LogLevel(),
		ClientID:       os.Getenv("CLIENT_ID"),
		ClientSecret:   os.Getenv("CLIENT_SECRET"),
		RedirectURI:    getenv("REDIRECT_URI", defaultRedirectURI),
		APIKey:         getenv("API_KEY", defaultAPIKey),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MongoURI:       os.Getenv("MONGODB_URI"),
		MongoDatabase:  getenv("MONGODB_DATABASE", defaultMongoDB),
		RedisURL:       os.Getenv("REDIS_URL"),
		AutoMigrate:    getenv("AUTO_MIGRATE", "true") == "true",
		RemoteScheme:   getenv("REMOTE_SCHEME", "https"),
		RateLimitRPS:   RateLimitRPS(),
		RateLimitBurst: RateLimitBurst(),
	}

	timeout, err := RemoteTimeout()
	if err != nil {
		return nil, err
	}
	cfg.RemoteTimeout = timeout

	cfg.Store, err = resolveStore(os.Getenv("CREDENTIAL_STORE"), cfg.DatabaseURL, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	if cfg.RemoteScheme != "https" && cfg.RemoteScheme != "http" {
		return nil, fmt.Errorf("REMOTE_SCHEME must be http or https, got %q", cfg.RemoteScheme)
	}
	return cfg, nil
}

// Warnings lists non-fatal problems worth logging at startup.
func (c *Config) Warnings() []string {
	var warnings []string
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "CLIENT_ID")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "CLIENT_SECRET")
	}
	if len(missing) > 0 {
		warnings = append(warnings, "missing OAuth settings: "+strings.Join(missing, ", ")+"; install and refresh will fail")
	}
	if c.APIKey == defaultAPIKey {
		warnings = append(warnings, "API_KEY not set; using the built-in default key")
	}
	if c.Store == StoreMemory {
		warnings = append(warnings, "credentials are kept in memory and lost on restart")
	}
	return warnings
}

func (c *Config) Development() bool {
	return c.Env == "development"
}

func resolveStore(explicit, databaseURL, mongoURI string) (string, error) {
	switch strings.ToLower(explicit) {
	case StorePostgres:
		if databaseURL == "" {
			return "", fmt.Errorf("CREDENTIAL_STORE=postgres requires DATABASE_URL")
		}
		return StorePostgres, nil
	case StoreMongo, "mongodb":
		if mongoURI == "" {
			return "", fmt.Errorf("CREDENTIAL_STORE=mongo requires MONGODB_URI")
		}
		return StoreMongo, nil
	case StoreMemory:
		return StoreMemory, nil
	case "":
	default:
		return "", fmt.Errorf("unknown CREDENTIAL_STORE %q", explicit)
	}

	switch {
	case databaseURL != "":
		return StorePostgres, nil
	case mongoURI != "":
		return StoreMongo, nil
	default:
		return StoreMemory, nil
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func AppEnv() string {
	return getenv("APP_ENV", "production")
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// RemoteTimeout bounds outbound calls. Defaults to 30s.
func RemoteTimeout() (time.Duration, error) {
	raw := os.Getenv("REMOTE_TIMEOUT")
	if raw == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid REMOTE_TIMEOUT %q", raw)
	}
	return d, nil
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	return getenv("LOG_LEVEL", "info")
}
