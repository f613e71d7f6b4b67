package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Attachments AttachmentConfig
	Roles       RoleCacheConfig
	Lifecycle   LifecycleConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// RedisConfig holds configuration for the realtime notification channel.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Enabled turns realtime publishing on. Notifications are still
	// persisted when disabled.
	Enabled bool
}

type AuthConfig struct {
	JWTSecret string
	// TokenTTL is the lifetime of issued access tokens
	TokenTTL time.Duration
	// BcryptCost for password hashing (min 4, max 31)
	BcryptCost int
}

// AttachmentConfig holds configuration for the external attachment store.
type AttachmentConfig struct {
	// BaseURL of the upload endpoint
	BaseURL string
	// UploadTimeout bounds a single upload round trip
	UploadTimeout time.Duration
	// MaxSizeBytes rejects oversized uploads before delegation
	MaxSizeBytes int64
}

// RoleCacheConfig controls the in-process role registry cache.
type RoleCacheConfig struct {
	TTL time.Duration
}

// LifecycleConfig holds complaint lifecycle policy switches.
type LifecycleConfig struct {
	// AllowReassignAfterReject permits assigning a rejected complaint to a
	// new employee. When false a rejected complaint stays terminal for
	// assignment.
	AllowReassignAfterReject bool
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "complaints"),
			Password: getEnv("DB_PASSWORD", "complaints"),
			Database: getEnv("DB_NAME", "complaints"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Enabled:  getEnvBool("REDIS_ENABLED", true),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
			TokenTTL:   getEnvDuration("JWT_TTL", 24*time.Hour),
			BcryptCost: getEnvInt("BCRYPT_COST", 10),
		},
		Attachments: AttachmentConfig{
			BaseURL:       getEnv("ATTACHMENT_BASE_URL", "http://localhost:9000/upload"),
			UploadTimeout: getEnvDuration("ATTACHMENT_UPLOAD_TIMEOUT", 30*time.Second),
			MaxSizeBytes:  int64(getEnvInt("ATTACHMENT_MAX_SIZE_BYTES", 10<<20)),
		},
		Roles: RoleCacheConfig{
			TTL: getEnvDuration("ROLE_CACHE_TTL", 5*time.Minute),
		},
		Lifecycle: LifecycleConfig{
			AllowReassignAfterReject: getEnvBool("ALLOW_REASSIGN_AFTER_REJECT", false),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
