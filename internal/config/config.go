// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"yieldwallet/internal/domain"
	"yieldwallet/pkg/db" // Import db package for its Config struct

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

// RedisConfig holds the optional Redis connection. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AccrualConfig controls the daily accrual batch.
type AccrualConfig struct {
	Enabled  bool
	Schedule string
	Workers  int
	LeaseTTL time.Duration
}

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort     string
	LogLevel       string
	DB             db.Config
	Redis          RedisConfig
	Accrual        AccrualConfig
	Location       *time.Location // Business calendar for run dates and check-in days
	CheckinBonus   decimal.Decimal
	RateLimitRPS   float64
	RateLimitBurst int
}

// LoadConfig loads configuration from environment variables, after merging a .env file
// from the working directory if one exists. Variables already set in the environment win.
// It returns an AppConfig instance or an error if any variable is invalid.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}
	return loadFromEnv()
}

func loadFromEnv() (*AppConfig, error) {
	var (
		cfg AppConfig
		err error
	)

	cfg.ServerPort = getEnv("SERVER_PORT", "8080")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	cfg.DB = db.Config{
		Host:     getEnv("DB_HOST", "localhost"), // Default to localhost for local development
		User:     getEnv("DB_USER", "user"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "walletdb"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
	if cfg.DB.Port, err = getInt("DB_PORT", 5432); err != nil {
		return nil, err
	}
	if cfg.DB.MaxOpenConns, err = getInt("DB_MAX_OPEN_CONNS", 25); err != nil {
		return nil, err
	}
	if cfg.DB.MaxIdleConns, err = getInt("DB_MAX_IDLE_CONNS", 10); err != nil {
		return nil, err
	}
	if cfg.DB.ConnMaxLifetime, err = getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute); err != nil {
		return nil, err
	}

	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if cfg.Redis.DB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	if cfg.Accrual.Enabled, err = getBool("ACCRUAL_ENABLED", true); err != nil {
		return nil, err
	}
	cfg.Accrual.Schedule = getEnv("ACCRUAL_SCHEDULE", "5 0 * * *")
	if _, err := cron.ParseStandard(cfg.Accrual.Schedule); err != nil {
		return nil, fmt.Errorf("invalid ACCRUAL_SCHEDULE: %w", err)
	}
	if cfg.Accrual.Workers, err = getInt("ACCRUAL_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.Accrual.Workers < 1 {
		return nil, fmt.Errorf("invalid ACCRUAL_WORKERS: must be at least 1")
	}
	if cfg.Accrual.LeaseTTL, err = getDuration("ACCRUAL_LEASE_TTL", 30*time.Minute); err != nil {
		return nil, err
	}

	if cfg.Location, err = time.LoadLocation(getEnv("APP_TIMEZONE", "UTC")); err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	if cfg.CheckinBonus, err = decimal.NewFromString(getEnv("CHECKIN_BONUS_AMOUNT", "50.00")); err != nil {
		return nil, fmt.Errorf("invalid CHECKIN_BONUS_AMOUNT: %w", err)
	}
	if !domain.ValidAmount(cfg.CheckinBonus) {
		return nil, fmt.Errorf("invalid CHECKIN_BONUS_AMOUNT: must be positive with at most %d decimal places", domain.AmountScale)
	}

	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "10"), 64); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
