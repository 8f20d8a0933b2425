package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends for the leaderboard
const (
	StoragePostgres = "postgres"
	StorageDynamo   = "dynamodb"
	StorageMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	HTTPAddr       string
	Storage        string
	PublicURL      string
	BotToken       string
	GeoLookupURL   string
	MigrationsPath string
	Database       DatabaseConfig
	Dynamo         DynamoConfig
	Auth           AuthConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	QueryTimeout time.Duration
}

// DynamoConfig holds DynamoDB leaderboard settings
type DynamoConfig struct {
	Region   string
	Table    string
	Endpoint string
}

// AuthConfig holds account token settings
type AuthConfig struct {
	JWTSecret      string
	AccessTokenTTL time.Duration
	EmailTokenTTL  time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	queryTimeout, err := getDuration("DB_QUERY_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	accessTTL, err := getDuration("ACCESS_TOKEN_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	emailTTL, err := getDuration("EMAIL_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		Storage:        getEnv("STORAGE", StoragePostgres),
		PublicURL:      getEnv("PUBLIC_URL", "http://localhost:8080"),
		BotToken:       os.Getenv("BOT_TOKEN"),
		GeoLookupURL:   getEnv("GEO_LOOKUP_URL", "https://ipapi.co/%s/country/"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Name:         getEnv("DB_NAME", "clicker"),
			User:         getEnv("DB_USER", "clicker"),
			Password:     os.Getenv("DB_PASSWORD"),
			QueryTimeout: queryTimeout,
		},
		Dynamo: DynamoConfig{
			Region:   getEnv("DYNAMO_REGION", "us-east-1"),
			Table:    getEnv("DYNAMO_TABLE", "clicker-leaderboard"),
			Endpoint: os.Getenv("DYNAMO_ENDPOINT"),
		},
		Auth: AuthConfig{
			JWTSecret:      os.Getenv("JWT_SECRET"),
			AccessTokenTTL: accessTTL,
			EmailTokenTTL:  emailTTL,
		},
	}

	// Validate required fields
	switch cfg.Storage {
	case StoragePostgres, StorageDynamo, StorageMemory:
	default:
		return nil, fmt.Errorf("STORAGE must be one of %s, %s, %s", StoragePostgres, StorageDynamo, StorageMemory)
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.UsesPostgres() && cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	return cfg, nil
}

// UsesPostgres reports whether any store lives in PostgreSQL.
// Accounts stay in PostgreSQL when the leaderboard is on DynamoDB.
func (c *Config) UsesPostgres() bool {
	return c.Storage != StorageMemory
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration like 5s", key)
	}
	return d, nil
}
