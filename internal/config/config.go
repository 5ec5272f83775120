package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort           string
	DatabaseURL       string
	RedisAddr         string
	JWTSecret         string
	FrontendOrigin    string
	DefaultCurrency   string
	ReceiptBaseURL    string
	SettlementTimeout time.Duration
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	settleTimeout, err := time.ParseDuration(getEnv("SETTLEMENT_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SETTLEMENT_TIMEOUT: %w", err)
	}

	return &Config{
		AppPort:           getEnv("APP_PORT", "8080"),
		DatabaseURL:       dbURL,
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:         jwtSecret,
		FrontendOrigin:    getEnv("FRONTEND_ORIGIN", "*"),
		DefaultCurrency:   getEnv("DEFAULT_CURRENCY", "THB"),
		ReceiptBaseURL:    getEnv("RECEIPT_BASE_URL", "https://receipts.example.com"),
		SettlementTimeout: settleTimeout,
	}, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
