package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Payment   PaymentConfig
	Booking   BookingConfig
	Simulator SimulatorConfig
	Mail      MailConfig
	Queue     QueueConfig
	Redis     RedisConfig
	Admin     AdminConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string
	Environment  string // development, staging, production
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// PaymentConfig holds payment gateway configuration
type PaymentConfig struct {
	Environment       string // sandbox or production
	KeyID             string
	KeySecret         string
	Currency          string
	SimulationEnabled bool
}

// BookingConfig holds booking flow configuration. SameDayCutoff closes the
// same-day booking window that long before scheduled departure; zero keeps
// it open until the departure instant.
type BookingConfig struct {
	IntentTTL     time.Duration
	SameDayCutoff time.Duration
}

// SimulatorConfig holds live-position simulator configuration
type SimulatorConfig struct {
	TickInterval time.Duration
	ScanSpec     string
	RoutePoints  int
}

// MailConfig holds the outbound mail gateway configuration
type MailConfig struct {
	Mode   string // "api" or "dev" (dev logs instead of sending)
	APIURL string
	APIKey string
	From   string
}

// QueueConfig holds RabbitMQ configuration
type QueueConfig struct {
	URL string
}

// RedisConfig holds Redis configuration for live-position pub/sub
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AdminConfig holds operator authentication configuration
type AdminConfig struct {
	Username     string
	PasswordHash string
	JWTSecret    string
	TokenExpiry  time.Duration
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Name:         getEnv("DB_NAME", "railswift"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		Payment: PaymentConfig{
			Environment:       getEnv("PAYMENT_ENVIRONMENT", "sandbox"),
			KeyID:             getEnv("PAYMENT_KEY_ID", ""),
			KeySecret:         getEnv("PAYMENT_KEY_SECRET", ""),
			Currency:          getEnv("PAYMENT_CURRENCY", "INR"),
			SimulationEnabled: getEnvAsBool("PAYMENT_SIMULATION_ENABLED", true),
		},
		Booking: BookingConfig{
			IntentTTL:     getEnvAsDuration("BOOKING_INTENT_TTL", 10*time.Minute),
			SameDayCutoff: getEnvAsDuration("BOOKING_SAME_DAY_CUTOFF", 0),
		},
		Simulator: SimulatorConfig{
			TickInterval: getEnvAsDuration("SIMULATOR_TICK_INTERVAL", 2*time.Second),
			ScanSpec:     getEnv("SIMULATOR_SCAN_SPEC", "*/30 * * * * *"),
			RoutePoints:  getEnvAsInt("SIMULATOR_ROUTE_POINTS", 16),
		},
		Mail: MailConfig{
			Mode:   getEnv("MAIL_MODE", "dev"),
			APIURL: getEnv("MAIL_API_URL", ""),
			APIKey: getEnv("MAIL_API_KEY", ""),
			From:   getEnv("MAIL_FROM", "no-reply@railswift.io"),
		},
		Queue: QueueConfig{
			URL: getEnv("RABBITMQ_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Admin: AdminConfig{
			Username:     getEnv("ADMIN_USERNAME", "operator"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			JWTSecret:    getEnv("ADMIN_JWT_SECRET", ""),
			TokenExpiry:  getEnvAsDuration("ADMIN_TOKEN_EXPIRY", 8*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Server.Environment == "production" {
		if c.Payment.KeySecret == "" {
			return fmt.Errorf("PAYMENT_KEY_SECRET is required in production")
		}
		if c.Payment.SimulationEnabled {
			return fmt.Errorf("PAYMENT_SIMULATION_ENABLED must be false in production")
		}
		if c.Admin.JWTSecret == "" {
			return fmt.Errorf("ADMIN_JWT_SECRET is required in production")
		}
	}
	if c.Booking.IntentTTL <= 0 {
		return fmt.Errorf("BOOKING_INTENT_TTL must be positive")
	}
	if c.Booking.SameDayCutoff < 0 {
		return fmt.Errorf("BOOKING_SAME_DAY_CUTOFF must not be negative")
	}
	if c.Simulator.TickInterval <= 0 {
		return fmt.Errorf("SIMULATOR_TICK_INTERVAL must be positive")
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// IsProduction reports whether the server runs in production mode
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.Warnf("Invalid integer value for %s, using default: %d", key, defaultValue)
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		logrus.Warnf("Invalid boolean value for %s, using default: %t", key, defaultValue)
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		logrus.Warnf("Invalid duration value for %s, using default: %s", key, defaultValue)
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
