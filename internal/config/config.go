package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	// Server configuration
	Port        int    `json:"port"`
	Environment string `json:"environment"`

	// MongoDB configuration
	MongoURI      string `json:"mongo_uri"`
	MongoDatabase string `json:"mongo_database"`

	// Redis configuration
	RedisURI      string `json:"redis_uri"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`

	// Collection names
	QuotesCollection         string `json:"mongo_quotes_collection"`
	AccountsCollection       string `json:"mongo_accounts_collection"`
	AccountMembersCollection string `json:"mongo_account_members_collection"`
	SubscriptionsCollection  string `json:"mongo_subscriptions_collection"`

	// Object storage configuration
	S3Endpoint        string        `json:"s3_endpoint"`
	S3Region          string        `json:"s3_region"`
	S3AccessKeyID     string        `json:"s3_access_key_id"`
	S3SecretAccessKey string        `json:"s3_secret_access_key"`
	S3Bucket          string        `json:"s3_bucket"`
	S3UsePathStyle    bool          `json:"s3_use_path_style"`
	SignedURLTTL      time.Duration `json:"signed_url_ttl"`

	// Reference data lookups
	CEPLookupBaseURL string        `json:"cep_lookup_base_url"`
	FIPEBaseURL      string        `json:"fipe_base_url"`
	CEPCacheTTL      time.Duration `json:"cep_cache_ttl"`
	FIPECacheTTL     time.Duration `json:"fipe_cache_ttl"`

	// Wizard session configuration
	WizardSessionTTL time.Duration `json:"wizard_session_ttl"`

	// Index maintenance
	IndexMaintenanceInterval time.Duration `json:"index_maintenance_interval"`

	// Tracing configuration
	TracingEnabled  bool   `json:"tracing_enabled"`
	TracingEndpoint string `json:"tracing_endpoint"`
}

var (
	AppConfig *Config
)

// LoadConfig loads configuration from environment variables
func LoadConfig() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	signedURLTTL, err := time.ParseDuration(getEnvOrDefault("SIGNED_URL_TTL", "600s"))
	if err != nil {
		return fmt.Errorf("invalid SIGNED_URL_TTL: %w", err)
	}

	cepCacheTTL, err := time.ParseDuration(getEnvOrDefault("CEP_CACHE_TTL", "6h"))
	if err != nil {
		return fmt.Errorf("invalid CEP_CACHE_TTL: %w", err)
	}

	fipeCacheTTL, err := time.ParseDuration(getEnvOrDefault("FIPE_CACHE_TTL", "24h"))
	if err != nil {
		return fmt.Errorf("invalid FIPE_CACHE_TTL: %w", err)
	}

	wizardSessionTTL, err := time.ParseDuration(getEnvOrDefault("WIZARD_SESSION_TTL", "2h"))
	if err != nil {
		return fmt.Errorf("invalid WIZARD_SESSION_TTL: %w", err)
	}

	indexMaintenanceInterval, err := time.ParseDuration(getEnvOrDefault("INDEX_MAINTENANCE_INTERVAL", "6h"))
	if err != nil {
		return fmt.Errorf("invalid INDEX_MAINTENANCE_INTERVAL: %w", err)
	}

	// Check if S3_BUCKET is set
	s3Bucket := os.Getenv("S3_BUCKET")
	if s3Bucket == "" {
		return fmt.Errorf("S3_BUCKET environment variable is required")
	}

	AppConfig = &Config{
		// Server configuration
		Port:        port,
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),

		// MongoDB configuration
		MongoURI:      getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnvOrDefault("MONGODB_DATABASE", "hmon"),

		// Redis configuration
		RedisURI:      getEnvOrDefault("REDIS_URI", "localhost:6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,

		// Collection names
		QuotesCollection:         getEnvOrDefault("MONGODB_QUOTES_COLLECTION", "quotes"),
		AccountsCollection:       getEnvOrDefault("MONGODB_ACCOUNTS_COLLECTION", "accounts"),
		AccountMembersCollection: getEnvOrDefault("MONGODB_ACCOUNT_MEMBERS_COLLECTION", "account_members"),
		SubscriptionsCollection:  getEnvOrDefault("MONGODB_SUBSCRIPTIONS_COLLECTION", "subscriptions"),

		// Object storage configuration
		S3Endpoint:        getEnvOrDefault("S3_ENDPOINT", ""),
		S3Region:          getEnvOrDefault("S3_REGION", "us-east-1"),
		S3AccessKeyID:     getEnvOrDefault("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnvOrDefault("S3_SECRET_ACCESS_KEY", ""),
		S3Bucket:          s3Bucket,
		S3UsePathStyle:    getEnvOrDefault("S3_USE_PATH_STYLE", "false") == "true",
		SignedURLTTL:      signedURLTTL,

		// Reference data lookups
		CEPLookupBaseURL: getEnvOrDefault("CEP_LOOKUP_BASE_URL", "https://viacep.com.br/ws"),
		FIPEBaseURL:      getEnvOrDefault("FIPE_BASE_URL", "https://parallelum.com.br/fipe/api/v1"),
		CEPCacheTTL:      cepCacheTTL,
		FIPECacheTTL:     fipeCacheTTL,

		// Wizard session configuration
		WizardSessionTTL: wizardSessionTTL,

		// Index maintenance
		IndexMaintenanceInterval: indexMaintenanceInterval,

		// Tracing configuration
		TracingEnabled:  getEnvOrDefault("TRACING_ENABLED", "false") == "true",
		TracingEndpoint: getEnvOrDefault("TRACING_ENDPOINT", "localhost:4317"),
	}

	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
