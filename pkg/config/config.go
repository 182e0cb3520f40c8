package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	OAuth    OAuthConfig
	Bot      BotConfig
	Insight  InsightConfig
	Storage  StorageConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout int
	// UIBaseURL is where OAuth callbacks redirect the browser back to
	UIBaseURL string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// OAuthConfig holds OAuth configuration for both external providers
type OAuthConfig struct {
	Google GoogleOAuthConfig
	Zoom   ZoomOAuthConfig
}

// GoogleOAuthConfig holds Google (calendar provider) OAuth configuration
type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// ZoomOAuthConfig holds Zoom (conferencing provider) OAuth configuration
type ZoomOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// BotConfig holds meeting-bot provider configuration
type BotConfig struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	// JoinLead is how far before the scheduled start the bot is asked to join
	JoinLead time.Duration
	// MaxWait is how long a meeting may sit in bot_requested/in_progress
	// before it is failed with a timeout
	MaxWait time.Duration
}

// InsightConfig holds insight engine configuration
type InsightConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxAttempts int
}

// StorageConfig holds object storage configuration for transcript archives
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			AllowedOrigins:  []string{getEnv("ALLOWED_ORIGINS", "http://localhost:3000")},
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
			UIBaseURL:       getEnv("UI_BASE_URL", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			Name:        getEnv("DB_NAME", "workpulse"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:    getEnvAsInt("DB_MIN_CONNS", 5),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		OAuth: OAuthConfig{
			Google: GoogleOAuthConfig{
				ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
				ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
				RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/v1/oauth/google/callback"),
			},
			Zoom: ZoomOAuthConfig{
				ClientID:     getEnv("ZOOM_CLIENT_ID", ""),
				ClientSecret: getEnv("ZOOM_CLIENT_SECRET", ""),
				RedirectURL:  getEnv("ZOOM_REDIRECT_URL", "http://localhost:8080/v1/oauth/zoom/callback"),
			},
		},
		Bot: BotConfig{
			BaseURL:       getEnv("BOT_BASE_URL", "https://api.meetingbot.example.com"),
			APIKey:        getEnv("BOT_API_KEY", ""),
			WebhookSecret: getEnv("BOT_WEBHOOK_SECRET", ""),
			JoinLead:      getEnvAsDuration("BOT_JOIN_LEAD", "2m"),
			MaxWait:       getEnvAsDuration("BOT_MAX_WAIT", "4h"),
		},
		Insight: InsightConfig{
			BaseURL:     getEnv("INSIGHT_API_URL", "https://api.groq.com"),
			APIKey:      getEnv("INSIGHT_API_KEY", ""),
			Model:       getEnv("INSIGHT_MODEL", "llama-3.1-70b-versatile"),
			Timeout:     getEnvAsDuration("INSIGHT_TIMEOUT", "30s"),
			MaxAttempts: getEnvAsInt("INSIGHT_MAX_ATTEMPTS", 5),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "workpulse-transcripts"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
		},
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.OAuth.Google.ClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID is required")
	}
	if c.OAuth.Google.ClientSecret == "" {
		return fmt.Errorf("GOOGLE_CLIENT_SECRET is required")
	}
	if c.OAuth.Zoom.ClientID == "" {
		return fmt.Errorf("ZOOM_CLIENT_ID is required")
	}
	if c.OAuth.Zoom.ClientSecret == "" {
		return fmt.Errorf("ZOOM_CLIENT_SECRET is required")
	}
	if c.Bot.WebhookSecret == "" && c.Server.Environment == "production" {
		return fmt.Errorf("BOT_WEBHOOK_SECRET is required in production")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
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

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
