package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends understood by StoreBackend.
const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Persistence
	StoreBackend  string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	// Redis backs the service catalog cache and inbound message dedupe.
	RedisAddr       string
	RedisPassword   string
	RedisTLS        bool
	ServiceCacheTTL time.Duration
	DedupeTTL       time.Duration

	// Admin API
	AdminAPIKey        string
	AdminJWTSecret     string
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	// Chat channel
	ChatEnabled         bool
	ChatWorkerCount     int
	ChatQueueBuffer     int
	ChatQueueURL        string
	WebchatSessionKey   string
	BookingsPreviewSize int

	// Availability grid used to propose alternative slots.
	SlotGridOpen   string
	SlotGridClose  string
	SlotGridStep   time.Duration
	MaxSuggestions int

	// Intent classifier (optional)
	GeminiAPIKey string
	GeminiModel  string

	// AWS is only needed when ChatQueueURL points at SQS.
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "3000"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend:  strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", StorePostgres))),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "turnos"),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTLS:        getEnvAsBool("REDIS_TLS", false),
		ServiceCacheTTL: getEnvAsDuration("SERVICE_CACHE_TTL", 5*time.Minute),
		DedupeTTL:       getEnvAsDuration("CHAT_DEDUPE_TTL", 24*time.Hour),

		AdminAPIKey:        getEnv("ADMIN_API_KEY", ""),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),

		ChatEnabled:         getEnvAsBool("CHAT_ENABLED", true),
		ChatWorkerCount:     getEnvAsInt("CHAT_WORKER_COUNT", 2),
		ChatQueueBuffer:     getEnvAsInt("CHAT_QUEUE_BUFFER", 128),
		ChatQueueURL:        getEnv("CHAT_QUEUE_URL", ""),
		WebchatSessionKey:   getEnv("WEBCHAT_SESSION_KEY", ""),
		BookingsPreviewSize: getEnvAsInt("BOOKINGS_PREVIEW_SIZE", 5),

		SlotGridOpen:   getEnv("SLOT_GRID_OPEN", "09:00"),
		SlotGridClose:  getEnv("SLOT_GRID_CLOSE", "18:00"),
		SlotGridStep:   getEnvAsDuration("SLOT_GRID_STEP", time.Hour),
		MaxSuggestions: getEnvAsInt("MAX_SUGGESTIONS", 3),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// Validate reports settings that make the server impossible to start.
func (c *Config) Validate() error {
	var missing []string
	switch c.StoreBackend {
	case StorePostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StoreMongo:
		if c.MongoURI == "" {
			missing = append(missing, "MONGO_URI")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if c.SlotGridStep <= 0 {
		return fmt.Errorf("config: SLOT_GRID_STEP must be positive")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
