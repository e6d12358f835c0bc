package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	MongoURI    string
	MongoDBName string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDBName   string
	MigrationsPath   string

	KafkaBrokers []string

	AuthBaseURL string
	AuthAPIKey  string

	JWTSecret     string
	SessionTTL    time.Duration
	SecureCookies bool

	AdminEmail string

	SMTPHost string
	SMTPPort string
	SMTPFrom string
}

func Load() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "babyshop"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getInt("POSTGRES_PORT", 5432),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDBName:   getEnv("POSTGRES_DB", "babyshop"),
		MigrationsPath:   getEnv("MIGRATIONS_PATH", "./migrations"),

		KafkaBrokers: []string{getEnv("KAFKA_BROKER", "localhost:9092")},

		AuthBaseURL: getEnv("AUTH_BASE_URL", "https://identitytoolkit.googleapis.com/v1"),
		AuthAPIKey:  getEnv("AUTH_API_KEY", ""),

		JWTSecret:     getEnv("JWT_SECRET", "dev-secret"),
		SessionTTL:    getDuration("SESSION_TTL", 7*24*time.Hour),
		SecureCookies: getBool("SECURE_COOKIES", false),

		AdminEmail: getEnv("ADMIN_EMAIL", "admin@admin.com"),

		SMTPHost: getEnv("SMTP_HOST", "localhost"),
		SMTPPort: getEnv("SMTP_PORT", "1025"),
		SMTPFrom: getEnv("SMTP_FROM", "orders@babyshop.local"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
