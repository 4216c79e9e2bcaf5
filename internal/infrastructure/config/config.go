// internal/infrastructure/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion  string
	LogLevel    string
	StoreDriver string // "mongo" or "memory"

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MongoDB
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// PostgreSQL
	PostgresURI string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Fare       FareConfig
	Submission SubmissionConfig
	Scheduler  SchedulerConfig
	Notify     NotifyConfig
}

// FareConfig configures the ranked fare sources
type FareConfig struct {
	PrimaryBaseURL   string
	PrimaryAPIKey    string
	PrimaryTimeout   time.Duration
	SecondaryBaseURL string
	SecondaryAPIKey  string
	SecondaryTimeout time.Duration
	RatePerSecond    float64
	Burst            int
}

// SubmissionConfig configures the airline submission protocol
type SubmissionConfig struct {
	CreditValidity time.Duration
	Southwest      SouthwestConfig
}

// SouthwestConfig configures the WN handler channels
type SouthwestConfig struct {
	APIBaseURL            string
	APIKey                string
	APITimeout            time.Duration
	APISuccessRate        float64
	AutomationSuccessRate float64
	AutomationTimeout     time.Duration
	AutomationLatency     time.Duration
}

// SchedulerConfig configures the batch passes
type SchedulerConfig struct {
	PriceCheckInterval time.Duration
	ReconcileInterval  time.Duration
	RunOnStart         bool
	SubmitOnDetect     bool
	DropMinDifference  float64
	BatchLimit         int
	StaleAfter         time.Duration
	LockTTL            time.Duration
}

// NotifyConfig configures the notification senders. A sender whose
// required fields are empty is not registered.
type NotifyConfig struct {
	EventBuffer int

	GmailClientID     string
	GmailClientSecret string
	GmailRefreshToken string
	GmailFrom         string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	WhatsAppEndpoint  string
	WhatsAppSendPath  string
	WhatsAppToken     string
	WhatsAppCompanyID string
	WhatsAppAgentID   string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		StoreDriver:  strings.ToLower(getEnv("STORE_DRIVER", "mongo")),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "fareguard"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		PostgresURI: getEnv("POSTGRES_DSN", "postgres://localhost:5432/fareguard?sslmode=disable"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		Fare: FareConfig{
			PrimaryBaseURL:   getEnv("FARE_PRIMARY_URL", ""),
			PrimaryAPIKey:    getEnv("FARE_PRIMARY_API_KEY", ""),
			PrimaryTimeout:   getEnvAsDuration("FARE_PRIMARY_TIMEOUT", 5*time.Second),
			SecondaryBaseURL: getEnv("FARE_SECONDARY_URL", ""),
			SecondaryAPIKey:  getEnv("FARE_SECONDARY_API_KEY", ""),
			SecondaryTimeout: getEnvAsDuration("FARE_SECONDARY_TIMEOUT", 10*time.Second),
			RatePerSecond:    getEnvAsFloat("FARE_RATE_PER_SECOND", 2),
			Burst:            getEnvAsInt("FARE_RATE_BURST", 4),
		},

		Submission: SubmissionConfig{
			CreditValidity: getEnvAsDuration("ECREDIT_VALIDITY", 365*24*time.Hour),
			Southwest: SouthwestConfig{
				APIBaseURL:            getEnv("WN_API_BASE_URL", ""),
				APIKey:                getEnv("WN_API_KEY", ""),
				APITimeout:            getEnvAsDuration("WN_API_TIMEOUT", 10*time.Second),
				APISuccessRate:        getEnvAsFloat("WN_API_SUCCESS_RATE", 0.3),
				AutomationSuccessRate: getEnvAsFloat("WN_AUTOMATION_SUCCESS_RATE", 0.7),
				AutomationTimeout:     getEnvAsDuration("WN_AUTOMATION_TIMEOUT", 60*time.Second),
				AutomationLatency:     getEnvAsDuration("WN_AUTOMATION_LATENCY", 0),
			},
		},

		Scheduler: SchedulerConfig{
			PriceCheckInterval: getEnvAsDuration("PRICE_CHECK_INTERVAL", 12*time.Hour),
			ReconcileInterval:  getEnvAsDuration("RECONCILE_INTERVAL", time.Hour),
			RunOnStart:         getEnvAsBool("RUN_ON_START", true),
			SubmitOnDetect:     getEnvAsBool("SUBMIT_ON_DETECT", true),
			DropMinDifference:  getEnvAsFloat("DROP_MIN_DIFFERENCE", 0),
			BatchLimit:         getEnvAsInt("ECREDIT_BATCH_LIMIT", 100),
			StaleAfter:         getEnvAsDuration("ECREDIT_STALE_AFTER", 30*time.Minute),
			LockTTL:            getEnvAsDuration("FLIGHT_LOCK_TTL", 5*time.Minute),
		},

		Notify: NotifyConfig{
			EventBuffer: getEnvAsInt("EVENT_BUFFER", 256),

			GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
			GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
			GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),
			GmailFrom:         getEnv("GMAIL_FROM", ""),

			SMTPHost: getEnv("SMTP_HOST", ""),
			SMTPPort: getEnvAsInt("SMTP_PORT", 2525),
			SMTPUser: getEnv("SMTP_USER", ""),
			SMTPPass: getEnv("SMTP_PASS", ""),
			SMTPFrom: getEnv("FROM_EMAIL", ""),

			WhatsAppEndpoint:  getEnv("WHATSAPP_SERVICE_URL", ""),
			WhatsAppSendPath:  getEnv("WHATSAPP_SEND_PATH", "/api/v1/messages/send"),
			WhatsAppToken:     getEnv("WHATSAPP_TOKEN", ""),
			WhatsAppCompanyID: getEnv("COMPANY_ID", ""),
			WhatsAppAgentID:   getEnv("AGENT_ID", ""),
		},
	}

	return config, nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s", "12h") or a bare number of seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
