package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port string
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MigrationsPath  string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// StoreConfig carries storefront policy values. HomeDistrict is the
// only district where cash on delivery is allowed without prepayment.
type StoreConfig struct {
	HomeDistrict string
	Name         string
	Phone        string
	Address      string
	Area         string
}

// CourierConfig is the explicitly loaded courier configuration; it is
// fetched once at startup and passed by parameter, never read from a
// mutable singleton.
type CourierConfig struct {
	Mode              string
	SandboxBaseURL    string
	SandboxToken      string
	ProductionBaseURL string
	ProductionToken   string
}

func (c CourierConfig) BaseURL() string {
	if c.Mode == "production" {
		return c.ProductionBaseURL
	}
	return c.SandboxBaseURL
}

func (c CourierConfig) Token() string {
	if c.Mode == "production" {
		return c.ProductionToken
	}
	return c.SandboxToken
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Store    StoreConfig
	Courier  CourierConfig
	SMTP     SMTPConfig
}

// Load reads configuration from the environment, optionally seeded from
// a .env file. Missing required values fail fast.
func Load(envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg := &Config{}
	cfg.App.Port = getenvDefault("APP_PORT", "8080")

	for _, req := range []struct {
		dst *string
		key string
	}{
		{&cfg.Postgres.Host, "DB_HOST"},
		{&cfg.Postgres.Port, "DB_PORT"},
		{&cfg.Postgres.User, "DB_USER"},
		{&cfg.Postgres.Password, "DB_PASSWORD"},
		{&cfg.Postgres.DBName, "DB_NAME"},
	} {
		v := os.Getenv(req.key)
		if v == "" {
			return nil, fmt.Errorf("%s is required", req.key)
		}
		*req.dst = v
	}
	cfg.Postgres.SSLMode = getenvDefault("DB_SSLMODE", "disable")
	cfg.Postgres.MigrationsPath = getenvDefault("DB_MIGRATIONS_PATH", "migrations")
	cfg.Postgres.MaxConns = int32(getenvInt("DB_MAX_CONNS", 10))
	cfg.Postgres.MinConns = int32(getenvInt("DB_MIN_CONNS", 2))
	cfg.Postgres.MaxConnLifetime = time.Duration(getenvInt("DB_MAX_CONN_LIFETIME_MINUTES", 30)) * time.Minute

	cfg.Store.HomeDistrict = getenvDefault("STORE_HOME_DISTRICT", "dhaka")
	cfg.Store.Name = getenvDefault("STORE_NAME", "Khalab")
	cfg.Store.Phone = os.Getenv("STORE_PHONE")
	cfg.Store.Address = os.Getenv("STORE_ADDRESS")
	cfg.Store.Area = getenvDefault("STORE_AREA", "Dhaka")

	cfg.Courier.Mode = getenvDefault("COURIER_MODE", "sandbox")
	cfg.Courier.SandboxBaseURL = getenvDefault("COURIER_SANDBOX_BASE_URL", "https://sandbox.redx.com.bd/v1.0.0-beta")
	cfg.Courier.SandboxToken = os.Getenv("COURIER_SANDBOX_TOKEN")
	cfg.Courier.ProductionBaseURL = getenvDefault("COURIER_PRODUCTION_BASE_URL", "https://openapi.redx.com.bd/v1.0.0-beta")
	cfg.Courier.ProductionToken = os.Getenv("COURIER_PRODUCTION_TOKEN")

	cfg.SMTP.Host = os.Getenv("SMTP_HOST")
	cfg.SMTP.Port = getenvInt("SMTP_PORT", 587)
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME")
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	cfg.SMTP.From = getenvDefault("SMTP_FROM", "noreply@khalab.com")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
