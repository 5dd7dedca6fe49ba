package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Server       ServerConfig
	Slack        SlackConfig
	Notification NotificationConfig
	Store        StoreConfig
	Correction   CorrectionConfig
	RateLimit    RateLimitConfig
	Log          LogConfig
	SelfHosted   bool
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings. An empty Addr disables the
// search index and the live record feed.
type RedisConfig struct {
	Addr        string
	Password    string //nolint:gosec // G117: Redis connection config
	DB          int
	DocumentTTL time.Duration
}

// JWTConfig holds the secret used to verify actor tokens.
type JWTConfig struct {
	Secret string //nolint:gosec // G117: JWT signing secret config
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// SlackConfig holds Slack integration settings.
type SlackConfig struct {
	BotToken string
}

// NotificationConfig holds the generic webhook channel settings.
type NotificationConfig struct {
	WebhookURL     string
	WebhookToken   string //nolint:gosec // G117: webhook bearer token config
	WebhookTimeout time.Duration
}

type StoreConfig struct {
	Driver string
}

// CorrectionConfig bounds how often a transition is rebuilt after losing a
// concurrent write.
type CorrectionConfig struct {
	MaxAttempts int
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type LogConfig struct {
	Level  zerolog.Level
	Format string
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("CRVS_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("CRVS_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("CRVS_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	documentTTL, err := getEnvDuration("CRVS_REDIS_DOCUMENT_TTL", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("CRVS_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("CRVS_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	webhookTimeout, err := getEnvDuration("CRVS_WEBHOOK_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	maxAttempts, err := getEnvInt("CRVS_CORRECTION_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rps, err := getEnvFloat("CRVS_RATE_LIMIT_RPS", 20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	burst, err := getEnvInt("CRVS_RATE_LIMIT_BURST", 40)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	selfHosted, err := getEnvBool("CRVS_SELF_HOSTED", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	level, err := zerolog.ParseLevel(getEnv("CRVS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("config.Load: parsing CRVS_LOG_LEVEL: %w", err)
	}

	corsOrigins := getEnvList("CRVS_CORS_ORIGINS", []string{"http://localhost:3000"})

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("CRVS_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("CRVS_DB_USER", "crvs"),
			Password: getEnv("CRVS_DB_PASSWORD", ""),
			DBName:   getEnv("CRVS_DB_NAME", "crvs_dev"),
			SSLMode:  getEnv("CRVS_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:        os.Getenv("CRVS_REDIS_ADDR"),
			Password:    getEnv("CRVS_REDIS_PASSWORD", ""),
			DB:          redisDB,
			DocumentTTL: documentTTL,
		},
		JWT: JWTConfig{
			Secret: getEnv("CRVS_JWT_SECRET", ""),
		},
		Server: ServerConfig{
			Addr:         getEnv("CRVS_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
		},
		Slack: SlackConfig{
			BotToken: getEnv("CRVS_SLACK_BOT_TOKEN", ""),
		},
		Notification: NotificationConfig{
			WebhookURL:     getEnv("CRVS_WEBHOOK_URL", ""),
			WebhookToken:   getEnv("CRVS_WEBHOOK_TOKEN", ""),
			WebhookTimeout: webhookTimeout,
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("CRVS_STORE", StoreDriverPostgres)),
		},
		Correction: CorrectionConfig{
			MaxAttempts: maxAttempts,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: rps,
			Burst:             burst,
		},
		Log: LogConfig{
			Level:  level,
			Format: strings.ToLower(getEnv("CRVS_LOG_FORMAT", "json")),
		},
		SelfHosted: selfHosted,
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return errors.New("CRVS_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("CRVS_JWT_SECRET must be at least 32 characters")
	}

	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Database.SSLMode == "disable" && !c.SelfHosted {
			log.Warn().Msg("CRVS_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("CRVS_STORE must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.Store.Driver)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("CRVS_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("CRVS_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Redis.DocumentTTL < 0 {
		return fmt.Errorf("CRVS_REDIS_DOCUMENT_TTL must not be negative, got %s", c.Redis.DocumentTTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("CRVS_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("CRVS_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Notification.WebhookTimeout <= 0 {
		return fmt.Errorf("CRVS_WEBHOOK_TIMEOUT must be positive, got %s", c.Notification.WebhookTimeout)
	}
	if c.Correction.MaxAttempts < 1 {
		return fmt.Errorf("CRVS_CORRECTION_MAX_ATTEMPTS must be >= 1, got %d", c.Correction.MaxAttempts)
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("CRVS_RATE_LIMIT_RPS must be positive, got %g", c.RateLimit.RequestsPerSecond)
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("CRVS_RATE_LIMIT_BURST must be >= 1, got %d", c.RateLimit.Burst)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("CRVS_LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
