// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for links in outgoing mail.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// Database holds MySQL connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Auth holds token and password-hashing settings.
	Auth AuthConfig

	// Mail holds SMTP settings for verification-code delivery.
	Mail MailConfig

	// Static holds static file storage settings.
	Static StaticConfig

	// RateLimit holds request throttling settings for auth endpoints.
	RateLimit RateLimitConfig
}

// DatabaseConfig holds MySQL connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars so container
// orchestrators can manage each independently. If DATABASE_URL is set, it
// takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MySQL address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MySQL username (default: "magictales").
	User string

	// Password is the MySQL password (default: "magictales").
	Password string

	// Name is the database name (default: "magictales").
	Name string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// Host/User/Password/Name fields using the driver's Config.FormatDSN()
// to safely handle special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	// Migration files contain several statements each.
	cfg.MultiStatements = true
	// Repositories read RowsAffected to detect missing rows; count matched
	// rows so a no-op update is not mistaken for one.
	cfg.ClientFoundRows = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
// Allows users to set DB_HOST=mydb (gets :3306) or DB_HOST=mydb:3307 (as-is).
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// AuthConfig holds token signing and password hashing settings.
type AuthConfig struct {
	// SecretKey signs and verifies access tokens (JWT_SECRET_KEY).
	SecretKey string

	// Algorithm is the JWT signing algorithm (JWT_ALGORITHM). Only HMAC
	// variants are accepted: HS256, HS384, HS512.
	Algorithm string

	// TokenTTL is the access token lifetime, read from
	// JWT_EXP_TIME_IN_MINUTES as a whole number of minutes.
	TokenTTL time.Duration

	// HashWorkers is the number of goroutines dedicated to password
	// hashing (HASH_WORKERS). Hashing cost itself is fixed in code.
	HashWorkers int
}

// MailConfig holds SMTP settings. If Host or FromAddress is empty the
// application runs without outgoing mail and logs codes instead.
type MailConfig struct {
	// Host is the SMTP server hostname (MAIL_HOST).
	Host string

	// Port is the SMTP server port (MAIL_PORT, default: 587).
	Port int

	// Username authenticates against the SMTP server (MAIL_USERNAME).
	Username string

	// Password authenticates against the SMTP server (MAIL_PASSWORD).
	Password string

	// FromName is the display name on outgoing mail (MAIL_FROM_NAME).
	FromName string

	// FromAddress is the envelope sender (MAIL_FROM_ADDRESS).
	FromAddress string

	// Encryption selects the transport: "starttls", "ssl" or "none"
	// (MAIL_ENCRYPTION, default: "starttls").
	Encryption string
}

// Configured reports whether enough settings are present to send mail.
func (m MailConfig) Configured() bool {
	return m.Host != "" && m.FromAddress != ""
}

// StaticConfig holds static file storage settings.
type StaticConfig struct {
	// Folder is the root directory for profile images, plan images and
	// generated story files (STATIC_FOLDER).
	Folder string

	// MaxUploadSize is the maximum upload file size in bytes.
	MaxUploadSize int64
}

// RateLimitConfig holds throttling settings applied to login, registration
// and password-recovery endpoints.
type RateLimitConfig struct {
	// PerMinute is the number of requests allowed per client IP per minute.
	PerMinute int
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "magictales"),
			Password:        getEnv("DB_PASSWORD", "magictales"),
			Name:            getEnv("DB_NAME", "magictales"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Auth: AuthConfig{
			SecretKey:   getEnv("JWT_SECRET_KEY", ""),
			Algorithm:   getEnv("JWT_ALGORITHM", "HS256"),
			TokenTTL:    time.Duration(getEnvInt("JWT_EXP_TIME_IN_MINUTES", 30)) * time.Minute,
			HashWorkers: getEnvInt("HASH_WORKERS", 4),
		},

		Mail: MailConfig{
			Host:        getEnv("MAIL_HOST", ""),
			Port:        getEnvInt("MAIL_PORT", 587),
			Username:    getEnv("MAIL_USERNAME", ""),
			Password:    getEnv("MAIL_PASSWORD", ""),
			FromName:    getEnv("MAIL_FROM_NAME", "Magic Tales"),
			FromAddress: getEnv("MAIL_FROM_ADDRESS", ""),
			Encryption:  getEnv("MAIL_ENCRYPTION", "starttls"),
		},

		Static: StaticConfig{
			Folder:        getEnv("STATIC_FOLDER", "./static"),
			MaxUploadSize: getEnvInt64("MAX_UPLOAD_SIZE", 10*1024*1024), // 10MB
		},

		RateLimit: RateLimitConfig{
			PerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 10),
		},
	}

	switch cfg.Auth.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return nil, fmt.Errorf("unsupported JWT_ALGORITHM %q", cfg.Auth.Algorithm)
	}

	// Validate required fields in production. Case-insensitive check catches
	// common variants like "Production", "prod", etc.
	envLower := strings.ToLower(cfg.Env)
	if envLower == "production" || envLower == "prod" {
		if cfg.Auth.SecretKey == "" {
			return nil, fmt.Errorf("JWT_SECRET_KEY is required in production")
		}
		if len(cfg.Auth.SecretKey) < 32 {
			return nil, fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters in production")
		}
	}

	// Provide a dev-only default secret so local dev works without .env.
	if cfg.Auth.SecretKey == "" {
		cfg.Auth.SecretKey = "dev-secret-key-do-not-use-in-production!!"
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvInt64 reads an int64 env var or returns the default.
func getEnvInt64(key string, defaultVal int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "5m") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
