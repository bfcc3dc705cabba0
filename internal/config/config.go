package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration settings for the grid ranking service.
// It includes the environment, server port, ranking provider selection and
// credentials, number of workers, polling interval, and database
// configuration.
//
// Fields:
// - Env: The current environment (e.g., local, dev, prod).
// - Port: The port for the monitoring server.
// - ProviderType: The type of ranking provider to use (dataforseo, places).
// - APILogin: The API login for the DataForSEO provider.
// - APIPassword: The API password for the DataForSEO provider.
// - APIKey: The API key for the Places provider.
// - Workers: The number of concurrent workers for processing scans.
// - Interval: The duration between scan polling intervals.
// - Database: Configuration settings for the PostgreSQL database.
type Config struct {
	Env          string         // Env is the current environment: local, dev, prod.
	Port         int            // Port is the monitoring server port.
	ProviderType string         // ProviderType specifies which ranking provider to use.
	APILogin     string         // The API login for the DataForSEO provider.
	APIPassword  string         // The API password for the DataForSEO provider.
	APIKey       string         // The API key for the Places provider.
	Workers      int            // The number of concurrent workers for processing scans.
	Interval     time.Duration  // The duration between scan polling intervals.
	Database     PostgresConfig // Database holds the postgres database configuration.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// MustLoad loads the configuration from the environment and returns a Config
// struct, panicking on malformed values.
func MustLoad() *Config {
	_ = godotenv.Load()

	interval, err := time.ParseDuration(setDefaultEnv("GRIDRANK_INTERVAL", "10m"))
	if err != nil {
		panic("failed to parse interval from configuration")
	}

	healthPort, err := strconv.Atoi(setDefaultEnv("GRIDRANK_HEALTH_PORT", "8080"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	workers, err := strconv.Atoi(setDefaultEnv("GRIDRANK_WORKERS", "10"))
	if err != nil {
		panic("failed to parse workers from configuration, must be an integer types")
	}
	if workers < 1 {
		panic("workers from configuration must be greater than zero")
	}

	return &Config{
		Env:          setDefaultEnv("GRIDRANK_ENV", "production"),
		Port:         healthPort,
		ProviderType: setDefaultEnv("GRIDRANK_PROVIDER_TYPE", "dataforseo"),
		APILogin:     os.Getenv("GRIDRANK_PROVIDER_LOGIN"),
		APIPassword:  os.Getenv("GRIDRANK_PROVIDER_PASSWORD"),
		APIKey:       os.Getenv("GRIDRANK_PROVIDER_KEY"),
		Workers:      workers,
		Interval:     interval,
		Database: PostgresConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     os.Getenv("DB_PORT"),
			User:     os.Getenv("DB_USERNAME"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
		},
	}
}

func setDefaultEnv(key, override string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = override
	}

	return value
}
