package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host             string
	Port             string
	User             string
	Password         string
	Name             string
	SSLMode          string
	ApplicationName  string
	StatementTimeout time.Duration
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	// TxIsolation is one of "read committed", "repeatable read" or "serializable".
	TxIsolation string
	AutoMigrate bool
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ArchiveConfig controls the audit log export. A zero Interval disables the
// scheduled export in the server.
type ArchiveConfig struct {
	Prefix        string
	PresignExpiry time.Duration
	Interval      time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Env      string
	LogLevel string
	Port     string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Archive  ArchiveConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		Env:      getEnv("APP_ENV", "production"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnv("PORT", "8080"),
		Database: DatabaseConfig{
			Host:             getEnv("DB_HOST", ""),
			Port:             getEnv("DB_PORT", "5432"),
			User:             getEnv("DB_USER", ""),
			Password:         getEnv("DB_PASSWORD", ""),
			Name:             getEnv("DB_NAME", ""),
			SSLMode:          getEnv("DB_SSLMODE", "disable"),
			ApplicationName:  getEnv("DB_APPLICATION_NAME", "clinicapi"),
			StatementTimeout: getEnvDuration("DB_STATEMENT_TIMEOUT", 30*time.Second),
			MaxOpenConns:     getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:     getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			TxIsolation:      getEnv("DB_TX_ISOLATION", "read committed"),
			AutoMigrate:      getEnvBool("DB_AUTO_MIGRATE", true),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Archive: ArchiveConfig{
			Prefix:        getEnv("ARCHIVE_PREFIX", "audit"),
			PresignExpiry: getEnvDuration("ARCHIVE_PRESIGN_EXPIRY", 15*time.Minute),
			Interval:      getEnvDuration("ARCHIVE_INTERVAL", 0),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
