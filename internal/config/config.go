package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/theodoremoreland/ViewCountAPI/internal/database"
)

// Secret sources
const (
	SecretSourceSecretsManager = "secretsmanager"
	SecretSourceSSM            = "ssm"
	SecretSourceEnv            = "env"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	Port        string
	LogLevel    string
	LogFormat   string
	AWS         AWSConfig
	Secrets     SecretsConfig
	Auth        AuthConfig
	Database    DatabaseConfig
	Server      ServerConfig
	Limits      LimitsConfig
}

// AWSConfig holds AWS client configuration
type AWSConfig struct {
	Region string
}

// SecretsConfig selects where credentials and tokens are read from
type SecretsConfig struct {
	Source                string
	DBSecretName          string
	AccessTokenSecretName string
}

// AuthConfig holds API-key configuration
type AuthConfig struct {
	PrivateAPIKey string
}

// ServerConfig holds local HTTP server configuration
type ServerConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxBodyBytes   int64
	EnsureSchema   bool
}

// LimitsConfig bounds request sizes
type LimitsConfig struct {
	MaxRegisterBatch int
}

// IsLocal reports whether the process runs in a local or development
// environment, where API keys are not checked.
func (c *Config) IsLocal() bool {
	switch strings.ToLower(c.Environment) {
	case "local", "development":
		return true
	default:
		return false
	}
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return loadFrom(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "production")
	v.SetDefault("PORT", "8081")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("SECRET_SOURCE", SecretSourceSecretsManager)
	v.SetDefault("DB_DRIVER", database.DriverPostgres)
	v.SetDefault("DB_NAME", "metadata")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("DB_CONNECT_TIMEOUT", "5s")
	v.SetDefault("DB_PATH", "./data/metadata.db")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("MAX_BODY_BYTES", 1<<20)
	v.SetDefault("ENSURE_SCHEMA", false)
	v.SetDefault("MAX_REGISTER_BATCH", 500)
}

func loadFrom(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	setDefaults(v)

	config := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		Port:        v.GetString("PORT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		LogFormat:   v.GetString("LOG_FORMAT"),
		AWS: AWSConfig{
			Region: v.GetString("AWS_REGION"),
		},
		Secrets: SecretsConfig{
			Source:                strings.ToLower(v.GetString("SECRET_SOURCE")),
			DBSecretName:          v.GetString("SECRET_NAME"),
			AccessTokenSecretName: v.GetString("ACCESS_TOKEN_SECRET_NAME"),
		},
		Auth: AuthConfig{
			PrivateAPIKey: v.GetString("PRIVATE_API_KEY"),
		},
		Database: DatabaseConfig{
			Driver:         strings.ToLower(v.GetString("DB_DRIVER")),
			Name:           v.GetString("DB_NAME"),
			SSLMode:        v.GetString("DB_SSLMODE"),
			ConnectTimeout: v.GetDuration("DB_CONNECT_TIMEOUT"),
			Path:           v.GetString("DB_PATH"),
			Host:           v.GetString("DB_HOST"),
			Port:           v.GetInt("DB_PORT"),
			User:           v.GetString("DB_USER"),
			Password:       v.GetString("DB_PASSWORD"),
		},
		Server: ServerConfig{
			RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
			MaxBodyBytes:   v.GetInt64("MAX_BODY_BYTES"),
			EnsureSchema:   v.GetBool("ENSURE_SCHEMA"),
		},
		Limits: LimitsConfig{
			MaxRegisterBatch: v.GetInt("MAX_REGISTER_BATCH"),
		},
	}

	return config, nil
}

// Validate reports settings that cannot work together. Missing secret names
// and regions are not checked here; the credential provider reports those
// on every invocation.
func (c *Config) Validate() error {
	switch c.Secrets.Source {
	case SecretSourceSecretsManager, SecretSourceSSM, SecretSourceEnv:
	default:
		return fmt.Errorf("unsupported secret source: %s", c.Secrets.Source)
	}

	if err := c.Database.Validate(); err != nil {
		return err
	}

	if c.Limits.MaxRegisterBatch < 1 {
		return fmt.Errorf("max register batch must be at least 1")
	}
	if c.Server.RateLimitRPS <= 0 || c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit must be positive")
	}
	if c.Server.MaxBodyBytes < 1 {
		return fmt.Errorf("max body bytes must be positive")
	}

	return nil
}
