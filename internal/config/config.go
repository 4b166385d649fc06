package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every credential and endpoint the pipeline stages need.
// Stages receive it (or a slice of it) through their constructors instead of
// reading the process environment at call time, so each stage can be tested
// with fake credentials.
type Config struct {
	// HTTP server
	Host        string
	Port        string
	Environment string

	// Providers
	OpenAIKey    string
	SpeechModel  string
	ExtractModel string
	// ExtractStrict switches the extraction parser from defensive defaults to
	// schema-checked deserialization that fails loudly.
	ExtractStrict bool

	// Salesforce OAuth application
	SalesforceClientID     string
	SalesforceClientSecret string
	SalesforceLoginURL     string

	// Storage
	Database      DatabaseConfig
	Minio         MinioConfig
	RedisAddr     string
	RedisPassword string

	// Event bus; empty AMQPURL selects the in-process dispatcher.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// DatabaseConfig selects the repository backend.
type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite3".
	Driver string
	// DSN is the postgres connection string, or the sqlite file path.
	DSN string
}

// MinioConfig configures the recording blob store.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// LoadEnv loads environment variables from a .env file if one exists.
// Missing files are not an error; variables may be set system-wide.
func LoadEnv() error {
	envPaths := []string{".env", ".env.local", "../.env"}

	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			break
		}
	}

	return nil
}

// Load reads the full configuration from the environment.
func Load() (*Config, error) {
	if err := LoadEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Host:        getEnv("VOICEPIPE_HOST", "0.0.0.0"),
		Port:        getEnv("VOICEPIPE_PORT", "8080"),
		Environment: getEnv("VOICEPIPE_ENV", "development"),

		OpenAIKey:     strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		SpeechModel:   getEnv("SPEECH_MODEL", "whisper-1"),
		ExtractModel:  getEnv("EXTRACT_MODEL", "gpt-4o-mini"),
		ExtractStrict: getBoolEnv("EXTRACT_STRICT", false),

		SalesforceClientID:     strings.TrimSpace(os.Getenv("SALESFORCE_CLIENT_ID")),
		SalesforceClientSecret: strings.TrimSpace(os.Getenv("SALESFORCE_CLIENT_SECRET")),
		SalesforceLoginURL:     getEnv("SALESFORCE_LOGIN_URL", "https://login.salesforce.com"),

		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite3"),
			DSN:    getEnv("DB_DSN", "data/voicepipe.db"),
		},
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "voicepipe-recordings"),
			UseSSL:    getBoolEnv("MINIO_USE_SSL", false),
		},
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "voicepipe.pipeline"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "voicepipe.stages"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints. Provider keys are validated
// lazily by the stages that need them so that, for example, a deployment
// without CRM credentials can still transcribe.
func (c *Config) Validate() error {
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite3" {
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite3)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN must be set")
	}
	if c.OpenAIKey != "" && !strings.HasPrefix(c.OpenAIKey, "sk-") {
		return fmt.Errorf("invalid OPENAI_API_KEY format: must start with 'sk-'")
	}
	return nil
}

// RequireOpenAI fails fast when the speech/extraction key is missing.
func (c *Config) RequireOpenAI() error {
	if c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY must be set for transcription and analysis")
	}
	return nil
}

// RequireSalesforce fails fast when the OAuth application is not configured.
func (c *Config) RequireSalesforce() error {
	if c.SalesforceClientID == "" || c.SalesforceClientSecret == "" {
		return fmt.Errorf("SALESFORCE_CLIENT_ID and SALESFORCE_CLIENT_SECRET must be set")
	}
	return nil
}

// Preview returns a truncated form of a secret suitable for diagnostics.
// Full secret values must never reach a log line or client response.
func Preview(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// ServerTimeouts returns the HTTP server timeouts; fixed values, overridable
// later if a deployment needs it.
func (c *Config) ServerTimeouts() (read, write, idle time.Duration) {
	return 30 * time.Second, 60 * time.Second, 120 * time.Second
}
