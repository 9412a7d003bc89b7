package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerHost           string
	BookingServicePort   string
	DirectoryServicePort string
	ReportingServicePort string
	ReadTimeout          time.Duration
	WriteTimeout         time.Duration

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers []string
	KafkaGroupID string

	// Session tokens
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWTTTL      time.Duration

	// OIDC staff single sign-on (optional)
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string

	// Clinic catalog
	CatalogPath string

	// Bootstrap admin, created only when the user table is empty
	AdminUsername string
	AdminPassword string
	AdminName     string

	// Booking
	CheckDoctorAvailability bool

	// Caching
	DashboardCacheTTL time.Duration
	RevenueCacheTTL   time.Duration
}

func Load() *Config {
	return &Config{
		ServerHost:           getEnv("SERVER_HOST", "0.0.0.0"),
		BookingServicePort:   getEnv("BOOKING_SERVICE_PORT", "8081"),
		DirectoryServicePort: getEnv("DIRECTORY_SERVICE_PORT", "8082"),
		ReportingServicePort: getEnv("REPORTING_SERVICE_PORT", "8083"),
		ReadTimeout:          getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:         getDuration("WRITE_TIMEOUT", 30*time.Second),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "caresuite"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "caresuite123"),
		PostgresDB:       getEnv("POSTGRES_DB", "caresuite"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers: getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "caresuite-platform"),

		JWTSecret:   getEnv("JWT_SECRET", "caresuite-dev-signing-key"),
		JWTIssuer:   getEnv("JWT_ISSUER", "caresuite"),
		JWTAudience: getEnv("JWT_AUDIENCE", "caresuite-api"),
		JWTTTL:      getDuration("JWT_TTL", 12*time.Hour),

		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:  getEnv("OIDC_REDIRECT_URL", ""),

		CatalogPath: getEnv("CLINIC_CATALOG_PATH", "configs/catalog.yaml"),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		AdminName:     getEnv("ADMIN_NAME", "Clinic Administrator"),

		CheckDoctorAvailability: getBoolEnv("CHECK_DOCTOR_AVAILABILITY", false),

		DashboardCacheTTL: getDuration("DASHBOARD_CACHE_TTL", time.Minute),
		RevenueCacheTTL:   getDuration("REVENUE_CACHE_TTL", 24*time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
