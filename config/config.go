package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the pipeline
type Config struct {
	Database   DatabaseConfig
	Data       DataConfig
	APIs       APIConfig
	Currencies []string
	Logging    LoggingConfig
	Server     ServerConfig
}

// DatabaseConfig holds database specific configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DataConfig points at the raw landing store root.
type DataConfig struct {
	Dir string
}

// APIConfig holds the upstream price APIs.
type APIConfig struct {
	BTCURL      string
	BTCKey      string
	GoldURL     string
	GoldKey     string
	HTTPTimeout time.Duration
}

// LoggingConfig holds logging specific configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// ServerConfig holds the read API configuration
type ServerConfig struct {
	Port string
}

// DSN renders the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode, d.TimeZone)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "marketetl")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_OPEN_CONNS", 5)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")

	v.SetDefault("DATA_DIR", "data")

	v.SetDefault("BTC_API_URL", "https://www.alphavantage.co/query")
	v.SetDefault("BTC_API_KEY", "")
	v.SetDefault("GOLD_API_URL", "https://gold.g.apised.com/v1/latest")
	v.SetDefault("GOLD_API_KEY", "")
	v.SetDefault("HTTP_TIMEOUT", "30s")

	v.SetDefault("CURRENCIES", "USD,EUR,GBP")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SERVER_PORT", "8080")
}

// Load reads configuration from a .env file (if present) and the environment.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	lifetime, err := time.ParseDuration(v.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}

	timeout, err := time.ParseDuration(v.GetString("HTTP_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetString("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			TimeZone:        v.GetString("DB_TIMEZONE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: lifetime,
		},
		Data: DataConfig{
			Dir: v.GetString("DATA_DIR"),
		},
		APIs: APIConfig{
			BTCURL:      v.GetString("BTC_API_URL"),
			BTCKey:      v.GetString("BTC_API_KEY"),
			GoldURL:     v.GetString("GOLD_API_URL"),
			GoldKey:     v.GetString("GOLD_API_KEY"),
			HTTPTimeout: timeout,
		},
		Currencies: splitCodes(v.GetString("CURRENCIES")),
		Logging: LoggingConfig{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		Server: ServerConfig{
			Port: v.GetString("SERVER_PORT"),
		},
	}

	return cfg, nil
}

// splitCodes turns "usd, EUR,,gbp" into [USD EUR GBP].
func splitCodes(raw string) []string {
	var codes []string
	for _, part := range strings.Split(raw, ",") {
		code := strings.ToUpper(strings.TrimSpace(part))
		if code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}
