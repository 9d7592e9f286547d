package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Email     EmailConfig     `yaml:"email"`
	JWT       JWTConfig       `yaml:"jwt"`
	Crypto    CryptoConfig    `yaml:"crypto"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Loyalty   LoyaltyConfig   `yaml:"loyalty"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// EmailConfig contains SendGrid settings.
type EmailConfig struct {
	APIKey   string `yaml:"api_key"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
}

type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// CryptoConfig feeds the symmetric cipher used for signature images and
// identity-document fields. The key is process-wide, never per-record.
type CryptoConfig struct {
	Passphrase string `yaml:"passphrase"`
	Salt       string `yaml:"salt"`
}

// StorageConfig contains the local asset store settings.
type StorageConfig struct {
	UploadDir string `yaml:"upload_dir"`
	BaseURL   string `yaml:"base_url"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// PricingConfig holds the mutable system-wide rates. Services take a
// snapshot per operation so calculations stay deterministic.
type PricingConfig struct {
	ServiceFeeRate float64 `yaml:"service_fee_rate"`
}

type LoyaltyConfig struct {
	// OrderPointsDivisor: order award = floor(orderAmount / divisor).
	OrderPointsDivisor int64 `yaml:"order_points_divisor"`
	DailyLoginPoints   int64 `yaml:"daily_login_points"`
}

type SchedulerConfig struct {
	ExpireLoyaltyPoints string `yaml:"expire_loyalty_points"`
	SendReturnReminders string `yaml:"send_return_reminders"`
}

// Load reads configuration from a YAML file, applies environment overrides
// and validates the result.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Email
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Email.APIKey = val
	}
	if val := os.Getenv("EMAIL_FROM"); val != "" {
		c.Email.From = val
	}

	// JWT / crypto
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}
	if val := os.Getenv("CRYPTO_PASSPHRASE"); val != "" {
		c.Crypto.Passphrase = val
	}
	if val := os.Getenv("CRYPTO_SALT"); val != "" {
		c.Crypto.Salt = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Storage
	if val := os.Getenv("UPLOAD_DIR"); val != "" {
		c.Storage.UploadDir = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Pricing
	if val := os.Getenv("SERVICE_FEE_RATE"); val != "" {
		if rate, err := strconv.ParseFloat(val, 64); err == nil {
			c.Pricing.ServiceFeeRate = rate
		}
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the configuration and fills defaults.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	if c.Crypto.Passphrase == "" {
		return fmt.Errorf("crypto passphrase is required")
	}
	if c.Crypto.Salt == "" {
		return fmt.Errorf("crypto salt is required")
	}

	if c.Storage.UploadDir == "" {
		return fmt.Errorf("upload directory is required")
	}

	if c.Pricing.ServiceFeeRate < 0 || c.Pricing.ServiceFeeRate >= 1 {
		return fmt.Errorf("service fee rate must be in [0, 1): %f", c.Pricing.ServiceFeeRate)
	}

	// Loyalty defaults
	if c.Loyalty.OrderPointsDivisor == 0 {
		c.Loyalty.OrderPointsDivisor = 10000
	}
	if c.Loyalty.DailyLoginPoints == 0 {
		c.Loyalty.DailyLoginPoints = 10
	}

	// Scheduler defaults
	if c.Scheduler.ExpireLoyaltyPoints == "" {
		c.Scheduler.ExpireLoyaltyPoints = "0 0 1 * * *" // 1 AM UTC
	}
	if c.Scheduler.SendReturnReminders == "" {
		c.Scheduler.SendReturnReminders = "0 0 9 * * *" // 9 AM UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string.
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address.
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
