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

// Throttle backends.
const (
	ThrottleBackendMemory = "memory"
	ThrottleBackendRedis  = "redis"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Seed     SeedConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret            string
	TokenTTLHours        int
	BcryptCost           int
	LoginMaxAttempts     int
	LoginWindowMinutes   int
	ThrottleBackend      string
	ThrottleSweepSeconds int
}

// SeedConfig describes the bootstrap accounts created on an empty store.
type SeedConfig struct {
	Enabled          bool
	AdminEmail       string
	AdminPassword    string
	ResidentEmail    string
	ResidentPassword string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "homemanager-auth"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "5000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret:            os.Getenv("AUTH_JWT_SECRET"),
			TokenTTLHours:        getEnvAsInt("AUTH_TOKEN_TTL_HOURS", 7*24),
			BcryptCost:           getEnvAsInt("AUTH_BCRYPT_COST", 10),
			LoginMaxAttempts:     getEnvAsInt("AUTH_LOGIN_MAX_ATTEMPTS", 5),
			LoginWindowMinutes:   getEnvAsInt("AUTH_LOGIN_WINDOW_MINUTES", 15),
			ThrottleBackend:      strings.ToLower(getEnv("AUTH_THROTTLE_BACKEND", ThrottleBackendMemory)),
			ThrottleSweepSeconds: getEnvAsInt("AUTH_THROTTLE_SWEEP_SECONDS", 60),
		},
		Seed: SeedConfig{
			Enabled:          getEnvAsBool("SEED_ENABLED", true),
			AdminEmail:       getEnv("SEED_ADMIN_EMAIL", "admin@homemanager.com"),
			AdminPassword:    getEnv("SEED_ADMIN_PASSWORD", "admin123"),
			ResidentEmail:    getEnv("SEED_RESIDENT_EMAIL", "janis@example.com"),
			ResidentPassword: getEnv("SEED_RESIDENT_PASSWORD", "resident123"),
		},
	}

	if cfg.Auth.JWTSecret == "" && cfg.App.IsDevelopment() {
		cfg.Auth.JWTSecret = "dev-secret"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no safe default.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required outside development")
	}
	switch c.Auth.ThrottleBackend {
	case ThrottleBackendMemory, ThrottleBackendRedis:
	default:
		return fmt.Errorf("invalid AUTH_THROTTLE_BACKEND %q", c.Auth.ThrottleBackend)
	}
	if c.Auth.LoginMaxAttempts <= 0 {
		return fmt.Errorf("invalid AUTH_LOGIN_MAX_ATTEMPTS %d", c.Auth.LoginMaxAttempts)
	}
	if c.Auth.LoginWindowMinutes <= 0 {
		return fmt.Errorf("invalid AUTH_LOGIN_WINDOW_MINUTES %d", c.Auth.LoginWindowMinutes)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsDevelopment reports whether the service runs in a development environment.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development" || a.Env == "dev" || a.Env == "test"
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns the bearer token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

// LoginWindow returns the throttle window.
func (a AuthConfig) LoginWindow() time.Duration {
	return time.Duration(a.LoginWindowMinutes) * time.Minute
}

// ThrottleSweepInterval returns how often idle throttle entries are pruned.
func (a AuthConfig) ThrottleSweepInterval() time.Duration {
	if a.ThrottleSweepSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(a.ThrottleSweepSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
