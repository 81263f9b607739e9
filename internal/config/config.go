package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	// Engine bounds.
	MaxStoredNotifications int
	RetentionDays          int
	QueueCapacity          int
	QueueMaxRetries        int
	DeliveryLogMaxEntries  int

	// Persistence.
	SnapshotPath     string
	SnapshotInterval time.Duration
	CleanupInterval  time.Duration

	// Optional S3 snapshot archival (disabled when bucket is empty).
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	S3BucketName   string
	S3SnapshotKey  string

	// Auth (upstream-issued tokens; optional with graceful fallback).
	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	// Email side channel.
	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	// SMS side channel.
	SNSRegion string

	AllowedOrigins []string // CORS allowed origins
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		MaxStoredNotifications: getEnvInt("MAX_STORED_NOTIFICATIONS", 10000),
		RetentionDays:          getEnvInt("RETENTION_DAYS", 30),
		QueueCapacity:          getEnvInt("QUEUE_CAPACITY", 5000),
		QueueMaxRetries:        getEnvInt("QUEUE_MAX_RETRIES", 3),
		DeliveryLogMaxEntries:  getEnvInt("DELIVERY_LOG_MAX_ENTRIES", 50000),

		SnapshotPath:     getEnv("SNAPSHOT_PATH", "./data/notifications.json"),
		SnapshotInterval: time.Duration(getEnvInt("SNAPSHOT_INTERVAL_SECONDS", 300)) * time.Second,
		CleanupInterval:  time.Duration(getEnvInt("CLEANUP_INTERVAL_SECONDS", 3600)) * time.Second,

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3BucketName:   getEnv("S3_SNAPSHOT_BUCKET", ""),
		S3SnapshotKey:  getEnv("S3_SNAPSHOT_KEY", "snapshots/notifications.json"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
