package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for cached invoice archives.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AnafConfig holds settings for the external e-invoicing provider API.
// Download calls get a materially longer timeout than listing calls.
type AnafConfig struct {
	BaseURL            string
	AccessToken        string
	ListTimeoutSec     int
	DownloadTimeoutSec int
	MaxPages           int
}

// SyncConfig controls lookback window sizing and scheduler cadence.
type SyncConfig struct {
	DefaultWindowDays  int
	MaxWindowDays      int
	IntervalMinutes    int
	ReparseIntervalMin int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Anaf     AnafConfig
	Sync     SyncConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "invoices"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Anaf: AnafConfig{
			BaseURL:            getEnv("ANAF_API_BASE_URL", "https://webservicesp.anaf.ro"),
			AccessToken:        getEnv("ANAF_ACCESS_TOKEN", ""), // sensitive, no default
			ListTimeoutSec:     getEnvInt("ANAF_LIST_TIMEOUT_SEC", 30),
			DownloadTimeoutSec: getEnvInt("ANAF_DOWNLOAD_TIMEOUT_SEC", 120),
			MaxPages:           getEnvInt("ANAF_MAX_PAGES", 100),
		},
		Sync: SyncConfig{
			DefaultWindowDays:  getEnvInt("SYNC_DEFAULT_WINDOW_DAYS", 60),
			MaxWindowDays:      getEnvInt("SYNC_MAX_WINDOW_DAYS", 60),
			IntervalMinutes:    getEnvInt("SYNC_INTERVAL_MINUTES", 60),
			ReparseIntervalMin: getEnvInt("REPARSE_INTERVAL_MINUTES", 1440),
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
