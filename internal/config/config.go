package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Midtrans MidtransConfig
	Router   RouterConfig
	ACS      ACSConfig
	Notify   NotifyConfig
	Cron     CronConfig
	Secrets  SecretsConfig
	Logger   LoggerConfig

	// SettingsFile is the path of the operator-editable runtime settings file
	SettingsFile string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int
	Host        string
	MetricsPort int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// MidtransConfig holds payment gateway configuration. ServerKey may be left
// empty when a secret source supplies it at startup.
type MidtransConfig struct {
	ServerKey     string
	ServerKeyPath string // secret source path, used when ServerKey is empty
	Production    bool
}

// RouterConfig holds RouterOS REST API configuration
type RouterConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  int // request timeout in seconds
	// InsecureSkipVerify disables TLS verification for routers running
	// with the factory self-signed certificate
	InsecureSkipVerify bool
}

// ACSConfig holds GenieACS NBI configuration
type ACSConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  int
}

// NotifyConfig holds WhatsApp gateway configuration
type NotifyConfig struct {
	BaseURL string
	APIKey  string
	Enabled bool
}

// CronConfig holds schedules for the periodic jobs and the shared secret
// that authenticates manual trigger requests
type CronConfig struct {
	Secret              string
	OverdueSchedule     string
	RestorationSchedule string
	InvoiceSchedule     string
}

// SecretsConfig selects the secret source backend
type SecretsConfig struct {
	Backend   string // "aws" or "env"
	AWSRegion string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvAsInt("SERVER_PORT", 8080),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort: getEnvAsInt("METRICS_PORT", 9090),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "netbilling"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		},
		Midtrans: MidtransConfig{
			ServerKey:     getEnv("MIDTRANS_SERVER_KEY", ""),
			ServerKeyPath: getEnv("MIDTRANS_SERVER_KEY_PATH", "netbilling/midtrans/server_key"),
			Production:    getEnvAsBool("MIDTRANS_PRODUCTION", false),
		},
		Router: RouterConfig{
			BaseURL:            getEnv("ROUTEROS_BASE_URL", ""),
			Username:           getEnv("ROUTEROS_USERNAME", ""),
			Password:           getEnv("ROUTEROS_PASSWORD", ""),
			Timeout:            getEnvAsInt("ROUTEROS_TIMEOUT", 15),
			InsecureSkipVerify: getEnvAsBool("ROUTEROS_INSECURE_SKIP_VERIFY", false),
		},
		ACS: ACSConfig{
			BaseURL:  getEnv("GENIEACS_BASE_URL", ""),
			Username: getEnv("GENIEACS_USERNAME", ""),
			Password: getEnv("GENIEACS_PASSWORD", ""),
			Timeout:  getEnvAsInt("GENIEACS_TIMEOUT", 15),
		},
		Notify: NotifyConfig{
			BaseURL: getEnv("WHATSAPP_BASE_URL", ""),
			APIKey:  getEnv("WHATSAPP_API_KEY", ""),
			Enabled: getEnvAsBool("WHATSAPP_ENABLED", false),
		},
		Cron: CronConfig{
			Secret:              getEnv("CRON_SECRET", ""),
			OverdueSchedule:     getEnv("CRON_OVERDUE_SCHEDULE", "0 1 * * *"),
			RestorationSchedule: getEnv("CRON_RESTORATION_SCHEDULE", "*/30 * * * *"),
			InvoiceSchedule:     getEnv("CRON_INVOICE_SCHEDULE", "0 0 * * *"),
		},
		Secrets: SecretsConfig{
			Backend:   getEnv("SECRETS_BACKEND", "env"),
			AWSRegion: getEnv("AWS_REGION", "ap-southeast-1"),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
		SettingsFile: getEnv("SETTINGS_FILE", "settings.yaml"),
	}

	// Validate required fields
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if cfg.Router.BaseURL == "" {
		return nil, fmt.Errorf("ROUTEROS_BASE_URL is required")
	}
	if cfg.Cron.Secret == "" {
		return nil, fmt.Errorf("CRON_SECRET is required")
	}

	return cfg, nil
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
