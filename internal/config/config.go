package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvModeWebcontainer switches the whole process to in-memory storage, log-only
// notifications and mock authentication.
const EnvModeWebcontainer = "webcontainer"

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Server   ServerConfig
	App      AppConfig
}

// DatabaseConfig holds relational database connection settings
type DatabaseConfig struct {
	Driver          string // mysql, postgres or sqlite
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SQLitePath      string
	TLS             bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnectAttempts int
	ConnectBackoff  time.Duration
}

// MongoConfig holds document store settings
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig holds notification transport settings
type RedisConfig struct {
	URL                 string
	NotificationChannel string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port        string
	FrontendURL string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Environment       string
	EnvMode           string
	JWTSecret         string
	SessionTTL        time.Duration
	AutoMigrate       bool
	OfferSiblingScope string
	MockUsersFile     string
	LogFormat         string
	HealthCheckSpec   string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	driver := strings.ToLower(getEnv("DB_DRIVER", "mysql"))

	config := &Config{
		Database: DatabaseConfig{
			Driver:          driver,
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", defaultPort(driver)),
			User:            getEnv("DB_USER", "root"),
			Password:        getEnv("DB_PASSWORD", ""),
			DBName:          getEnv("DB_NAME", "homeservices"),
			SQLitePath:      getEnv("DB_SQLITE_PATH", "homeservices.db"),
			TLS:             getEnv("APP_ENV", "development") == "production",
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", time.Minute),
			ConnectAttempts: getEnvInt("DB_CONNECT_ATTEMPTS", 5),
			ConnectBackoff:  getEnvDuration("DB_CONNECT_BACKOFF", 2*time.Second),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGODB_URI", ""),
			Database: getEnv("MONGODB_DATABASE", "homeservices"),
		},
		Redis: RedisConfig{
			URL:                 getEnv("REDIS_URL", ""),
			NotificationChannel: getEnv("NOTIFICATION_CHANNEL", "notifications"),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			FrontendURL: getEnv("FRONTEND_URL", ""),
		},
		App: AppConfig{
			Environment:       getEnv("APP_ENV", "development"),
			EnvMode:           getEnv("ENV_MODE", ""),
			JWTSecret:         getEnv("JWT_SECRET", ""),
			SessionTTL:        getEnvDuration("SESSION_TTL", 24*time.Hour),
			AutoMigrate:       getEnvBool("AUTO_MIGRATE", true),
			OfferSiblingScope: strings.ToLower(getEnv("OFFER_SIBLING_SCOPE", "kind")),
			MockUsersFile:     getEnv("MOCK_USERS_FILE", ""),
			LogFormat:         getEnv("LOG_FORMAT", "json"),
			HealthCheckSpec:   getEnv("HEALTH_CHECK_SPEC", "@every 30s"),
		},
	}

	if config.Sandbox() && config.App.JWTSecret == "" {
		config.App.JWTSecret = "webcontainer-session-secret"
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.App.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	switch c.App.OfferSiblingScope {
	case "all", "kind":
	default:
		return fmt.Errorf("OFFER_SIBLING_SCOPE must be \"all\" or \"kind\", got %q", c.App.OfferSiblingScope)
	}

	if c.Sandbox() {
		return nil
	}

	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.Mongo.URI == "" {
		return fmt.Errorf("MONGODB_URI is required")
	}

	return nil
}

// Sandbox reports whether real external storage and identity calls are disabled.
func (c *Config) Sandbox() bool {
	return c.App.EnvMode == EnvModeWebcontainer
}

// Production reports whether APP_ENV is "production".
func (c *Config) Production() bool {
	return c.App.Environment == "production"
}

// GetDSN returns the connection string for the configured driver
func (c *Config) GetDSN() string {
	db := c.Database
	switch db.Driver {
	case "postgres":
		sslMode := "disable"
		if db.TLS {
			sslMode = "require"
		}
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			db.Host, db.Port, db.User, db.Password, db.DBName, sslMode,
		)
	case "sqlite":
		return db.SQLitePath
	default:
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&timeout=60s",
			db.User, db.Password, db.Host, db.Port, db.DBName,
		)
		if db.TLS {
			dsn += "&tls=true"
		}
		return dsn
	}
}

// defaultPort is the server port of a driver when DB_PORT is unset.
func defaultPort(driver string) string {
	if driver == "postgres" {
		return "5432"
	}
	return "3306"
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
