package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Vicidial  VicidialConfig  `yaml:"vicidial"`
	Billing   BillingConfig   `yaml:"billing"`
	Auth      AuthConfig      `yaml:"auth"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings.
// URL, when set (or via DATABASE_URL), wins over the individual fields.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// VicidialConfig contains upstream non-agent API settings
type VicidialConfig struct {
	URL                   string   `yaml:"url"`
	User                  string   `yaml:"user"`
	Pass                  string   `yaml:"pass"`
	Timezone              string   `yaml:"timezone"`
	DefaultCampaign       string   `yaml:"default_campaign"`
	TimeoutSeconds        int      `yaml:"timeout_seconds"`
	ConnectedDispositions []string `yaml:"connected_dispositions"`
}

// BillingConfig contains deterministic rating and daily-deduction settings
type BillingConfig struct {
	RatePerCall         float64 `yaml:"rate_per_call"`
	BillConnectedOnly   bool    `yaml:"bill_connected_only"`
	ACDEstimateSeconds  float64 `yaml:"acd_estimate_seconds"`
	StartingBalance     float64 `yaml:"starting_balance"`
	EODHour             int     `yaml:"eod_hour"`
	EODMinute           int     `yaml:"eod_minute"`
	LowBalanceThreshold float64 `yaml:"low_balance_threshold"`
}

// AuthConfig contains token and credential settings
type AuthConfig struct {
	Secret           string `yaml:"secret"`
	TokenExpiryHours int    `yaml:"token_expiry_hours"`
	AdminPassword    string `yaml:"admin_password"`
}

// AlertsConfig contains SendGrid email alert settings
type AlertsConfig struct {
	Enabled        bool   `yaml:"enabled"`
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
	ToEmail        string `yaml:"to_email"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	FinalizeDailyDeductions string `yaml:"finalize_daily_deductions"`
}

// DefaultConnectedDispositions matches the disposition codes the dialer marks
// as answered; overridable per deployment via CONNECTED_DISPOS.
var DefaultConnectedDispositions = []string{
	"A", "AA", "AB", "ADAIR", "B", "CNAV", "DC", "DNC", "DROP", "SALE",
	"HU", "INCALL", "WNB",
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	// .env is optional; real env vars win either way
	_ = godotenv.Load()

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DATABASE_URL"); val != "" {
		c.Database.URL = val
	}
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

	// Vicidial upstream
	if val := os.Getenv("VICI_URL"); val != "" {
		c.Vicidial.URL = val
	}
	if val := os.Getenv("VICI_USER"); val != "" {
		c.Vicidial.User = val
	}
	if val := os.Getenv("VICI_PASS"); val != "" {
		c.Vicidial.Pass = val
	}
	if val := os.Getenv("VICI_TIMEZONE"); val != "" {
		c.Vicidial.Timezone = val
	}
	if val := os.Getenv("VICI_DEFAULT_CAMPAIGN"); val != "" {
		c.Vicidial.DefaultCampaign = val
	}
	if val := os.Getenv("CONNECTED_DISPOS"); val != "" {
		parts := strings.Split(val, ",")
		dispos := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				dispos = append(dispos, p)
			}
		}
		c.Vicidial.ConnectedDispositions = dispos
	}

	// Billing
	if val := os.Getenv("RATE_PER_CALL"); val != "" {
		fmt.Sscanf(val, "%f", &c.Billing.RatePerCall)
	}
	if val := os.Getenv("EOD_HOUR"); val != "" {
		fmt.Sscanf(val, "%d", &c.Billing.EODHour)
	}
	if val := os.Getenv("EOD_MINUTE"); val != "" {
		fmt.Sscanf(val, "%d", &c.Billing.EODMinute)
	}

	// Auth
	if val := os.Getenv("SECRET_KEY"); val != "" {
		c.Auth.Secret = val
	}
	if val := os.Getenv("TOKEN_EXPIRY_HOURS"); val != "" {
		fmt.Sscanf(val, "%d", &c.Auth.TokenExpiryHours)
	}
	if val := os.Getenv("ADMIN_PASSWORD"); val != "" {
		c.Auth.AdminPassword = val
	}

	// Alerts
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Alerts.SendGridAPIKey = val
	}
	if val := os.Getenv("ALERTS_TO_EMAIL"); val != "" {
		c.Alerts.ToEmail = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Database validation (skipped when a full URL is supplied)
	if c.Database.URL == "" {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	// Vicidial validation
	if c.Vicidial.URL == "" {
		return fmt.Errorf("vicidial url is required")
	}
	if c.Vicidial.User == "" || c.Vicidial.Pass == "" {
		return fmt.Errorf("vicidial credentials are required")
	}
	if c.Vicidial.Timezone == "" {
		c.Vicidial.Timezone = "America/New_York"
	}
	if _, err := time.LoadLocation(c.Vicidial.Timezone); err != nil {
		return fmt.Errorf("invalid vicidial timezone %q: %w", c.Vicidial.Timezone, err)
	}
	if c.Vicidial.DefaultCampaign == "" {
		c.Vicidial.DefaultCampaign = "0006"
	}
	if c.Vicidial.TimeoutSeconds <= 0 {
		c.Vicidial.TimeoutSeconds = 25
	}
	if len(c.Vicidial.ConnectedDispositions) == 0 {
		c.Vicidial.ConnectedDispositions = DefaultConnectedDispositions
	}

	// Auth validation
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth secret is required")
	}
	if len(c.Auth.Secret) < 32 {
		return fmt.Errorf("auth secret must be at least 32 characters")
	}
	if c.Auth.TokenExpiryHours <= 0 {
		c.Auth.TokenExpiryHours = 24
	}

	// Alerts validation
	if c.Alerts.Enabled {
		if c.Alerts.SendGridAPIKey == "" {
			return fmt.Errorf("sendgrid api key is required when alerts are enabled")
		}
		if c.Alerts.FromEmail == "" || c.Alerts.ToEmail == "" {
			return fmt.Errorf("alert from/to emails are required when alerts are enabled")
		}
	}

	// Billing defaults
	if c.Billing.RatePerCall <= 0 {
		c.Billing.RatePerCall = 0.00245
	}
	if c.Billing.ACDEstimateSeconds <= 0 {
		c.Billing.ACDEstimateSeconds = 330.0
	}
	if c.Billing.StartingBalance <= 0 {
		c.Billing.StartingBalance = 100.0
	}
	if c.Billing.EODHour == 0 && c.Billing.EODMinute == 0 {
		c.Billing.EODHour = 23
		c.Billing.EODMinute = 59
	}
	if c.Billing.EODHour < 0 || c.Billing.EODHour > 23 {
		return fmt.Errorf("invalid eod_hour: %d", c.Billing.EODHour)
	}
	if c.Billing.EODMinute < 0 || c.Billing.EODMinute > 59 {
		return fmt.Errorf("invalid eod_minute: %d", c.Billing.EODMinute)
	}
	if c.Billing.LowBalanceThreshold < 0 {
		return fmt.Errorf("invalid low_balance_threshold: %f", c.Billing.LowBalanceThreshold)
	}
	if c.Billing.LowBalanceThreshold == 0 {
		c.Billing.LowBalanceThreshold = 10.0
	}

	// Scheduler defaults: finalize right at the end-of-day cutoff
	if c.Scheduler.FinalizeDailyDeductions == "" {
		c.Scheduler.FinalizeDailyDeductions = fmt.Sprintf("0 %d %d * * *",
			c.Billing.EODMinute, c.Billing.EODHour)
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
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

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// VicidialTimeout returns the upstream request timeout as a duration
func (c *Config) VicidialTimeout() time.Duration {
	return time.Duration(c.Vicidial.TimeoutSeconds) * time.Second
}
