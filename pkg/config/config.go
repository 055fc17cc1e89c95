package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const defaultAccessSecret = "your-access-secret-change-in-production"

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Storage    StorageConfig
	Groq       GroqConfig
	AssemblyAI AssemblyAIConfig
	Jira       JiraConfig
	Pipeline   PipelineConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
	MaxUploadMB     int64    `envconfig:"MAX_UPLOAD_MB" default:"100"`
	EnableSwagger   bool     `envconfig:"ENABLE_SWAGGER" default:"true"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"meeting_taskflow"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// RedisConfig holds Redis configuration. An empty host selects the in-memory store.
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	AccessSecret string        `envconfig:"JWT_ACCESS_SECRET" default:"your-access-secret-change-in-production"`
	AccessExpiry time.Duration `envconfig:"JWT_ACCESS_EXPIRY" default:"24h"`
	Issuer       string        `envconfig:"JWT_ISSUER" default:"meeting-taskflow"`
}

// StorageConfig holds object storage configuration. Disabled storage keeps audio in memory only.
type StorageConfig struct {
	Enabled         bool   `envconfig:"STORAGE_ENABLED" default:"false"`
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"meeting-audio"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
	PublicURL       string `envconfig:"STORAGE_PUBLIC_URL"`
}

// GroqConfig holds the text-generation endpoint configuration
type GroqConfig struct {
	APIKey           string        `envconfig:"GROQ_API_KEY"`
	BaseURL          string        `envconfig:"GROQ_API_URL" default:"https://api.groq.com/openai/v1"`
	Model            string        `envconfig:"GROQ_MODEL" default:"llama-3.3-70b-versatile"`
	MaxTokens        int           `envconfig:"GROQ_MAX_TOKENS" default:"1000"`
	Temperature      float32       `envconfig:"GROQ_TEMPERATURE" default:"0.3"`
	StructuredOutput bool          `envconfig:"GROQ_STRUCTURED_OUTPUT" default:"true"`
	Timeout          time.Duration `envconfig:"GROQ_TIMEOUT" default:"60s"`
}

// AssemblyAIConfig holds transcription configuration
type AssemblyAIConfig struct {
	APIKey       string        `envconfig:"ASSEMBLYAI_API_KEY"`
	BaseURL      string        `envconfig:"ASSEMBLYAI_BASE_URL"`
	LanguageCode string        `envconfig:"ASSEMBLYAI_LANGUAGE" default:"en"`
	MaxElapsed   time.Duration `envconfig:"ASSEMBLYAI_RETRY_MAX_ELAPSED" default:"2m"`
}

// JiraConfig holds issue tracker configuration
type JiraConfig struct {
	URL     string        `envconfig:"JIRA_URL"`
	Timeout time.Duration `envconfig:"JIRA_TIMEOUT" default:"30s"`
}

// PipelineConfig holds meeting pipeline worker configuration
type PipelineConfig struct {
	Workers       int           `envconfig:"PIPELINE_WORKERS" default:"4"`
	QueueSize     int           `envconfig:"PIPELINE_QUEUE_SIZE" default:"64"`
	StaleAfter    time.Duration `envconfig:"PIPELINE_STALE_AFTER" default:"30m"`
	ReapInterval  time.Duration `envconfig:"PIPELINE_REAP_INTERVAL" default:"5m"`
	IsolateDrafts bool          `envconfig:"PIPELINE_ISOLATE_DRAFTS" default:"false"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg, err := LoadUnvalidated()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadUnvalidated reads the environment without checking service settings.
// The migration tool only needs the database section.
func LoadUnvalidated() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Jira.URL == "" {
		return fmt.Errorf("JIRA_URL is required")
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("PIPELINE_WORKERS must be positive, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.QueueSize < 0 {
		return fmt.Errorf("PIPELINE_QUEUE_SIZE must not be negative, got %d", c.Pipeline.QueueSize)
	}
	if c.IsProduction() && c.JWT.AccessSecret == defaultAccessSecret {
		return fmt.Errorf("JWT_ACCESS_SECRET must be set in production")
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
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
