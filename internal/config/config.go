// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Mail     MailConfig
	Payment  PaymentConfig
	Admin    AdminConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig holds connection settings. DSNOverride (DATABASE_DSN) wins over the parts.
type DatabaseConfig struct {
	Driver      string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	DSNOverride string
	Debug       bool
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev           bool
	Migrations    bool
	BaseURL       string
	MediaDir      string
	SessionSecret string
	LogLevel      string
}

// MailConfig holds SMTP settings. An empty Host routes mail to the log.
type MailConfig struct {
	Host         string
	Port         int
	Username     string
	Password     string
	From         string
	ContactEmail string
}

// PaymentConfig holds the hosted checkout gateway settings.
// An empty APIKey selects the in-process gateway used for development.
type PaymentConfig struct {
	BaseURL  string
	APIKey   string
	Currency string
	Timeout  time.Duration
	// TokenSecret signs the booking correlation token; defaults to the session secret.
	TokenSecret string
}

// AdminConfig is the default administrator created by the seed step.
type AdminConfig struct {
	Username string
	Email    string
	Password string
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.DSNOverride != "" {
		return d.DSNOverride
	}
	switch d.Driver {
	case DriverMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.DBName)
	case DriverSQLite:
		if d.DBName == "" {
			return "rentals.db"
		}
		return d.DBName
	default:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
		)
	}
}

// URL returns the PostgreSQL connection string in URL format (golang-migrate).
func (d DatabaseConfig) URL() string {
	if strings.HasPrefix(d.DSNOverride, "postgres://") || strings.HasPrefix(d.DSNOverride, "postgresql://") {
		return d.DSNOverride
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// Enabled reports whether real SMTP delivery is configured.
func (m MailConfig) Enabled() bool { return m.Host != "" }

// Addr is host:port of the SMTP relay.
func (m MailConfig) Addr() string { return fmt.Sprintf("%s:%d", m.Host, m.Port) }

// Hosted reports whether a remote checkout gateway is configured.
func (p PaymentConfig) Hosted() bool { return p.APIKey != "" }

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	driver := strings.ToLower(getEnv("DB_DRIVER", DriverPostgres))
	defaultPort := 5432
	if driver == DriverMySQL {
		defaultPort = 3306
	}
	port := getEnv("PORT", "8080")
	secret := getEnv("SESSION_SECRET", "devsessionsecret")

	return &Config{
		Server: ServerConfig{
			Port:         port,
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:      driver,
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvInt("DB_PORT", defaultPort),
			User:        getEnv("DB_USER", "rentals"),
			Password:    getEnv("DB_PASSWORD", "rentals123"),
			DBName:      getEnv("DB_NAME", "rentals"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			DSNOverride: strings.Trim(strings.TrimSpace(os.Getenv("DATABASE_DSN")), `"'`),
			Debug:       getEnvBool("DB_DEBUG", false),
		},
		App: AppConfig{
			Dev:           getEnvBool("DEV", true),
			Migrations:    getEnvBool("MIGRATIONS", false),
			BaseURL:       strings.TrimRight(getEnv("BASE_URL", "http://localhost:"+port), "/"),
			MediaDir:      getEnv("MEDIA_DIR", "media"),
			SessionSecret: secret,
			LogLevel:      getEnv("LOG_LEVEL", "info"),
		},
		Mail: MailConfig{
			Host:         os.Getenv("EMAIL_HOST"),
			Port:         getEnvInt("EMAIL_PORT", 587),
			Username:     os.Getenv("EMAIL_HOST_USER"),
			Password:     os.Getenv("EMAIL_HOST_PASSWORD"),
			From:         getEnv("DEFAULT_FROM_EMAIL", "noreply@royalcars.com"),
			ContactEmail: getEnv("CONTACT_EMAIL", "contact@royalcars.com"),
		},
		Payment: PaymentConfig{
			BaseURL:     strings.TrimRight(getEnv("PAYMENT_API_URL", "https://api.stripe.com"), "/"),
			APIKey:      os.Getenv("PAYMENT_API_KEY"),
			Currency:    strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),
			Timeout:     time.Duration(getEnvInt("PAYMENT_TIMEOUT", 10)) * time.Second,
			TokenSecret: getEnv("PAYMENT_TOKEN_SECRET", secret),
		},
		Admin: AdminConfig{
			Username: getEnv("ADMIN_USERNAME", "admin"),
			Email:    getEnv("ADMIN_EMAIL", "admin@example.com"),
			Password: getEnv("ADMIN_PASSWORD", "admin"),
		},
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}
