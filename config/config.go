package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Драйверы хранилища
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	StoreDriver  string
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int
	LogLevel     string

	// Параметры турнирной сетки
	KnockoutSize int
	ByePoints    int

	RateLimitRPS   float64
	RateLimitBurst int

	CORSAllowedOrigins []string

	// NATSURL пустой, если публикация аудита в NATS не нужна.
	NATSURL string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		StoreDriver:        getEnv("STORE_DRIVER", StoreDriverPostgres),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecretKey:       os.Getenv("JWT_SECRET_KEY"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		NATSURL:            os.Getenv("NATS_URL"),
		R2AccountID:        os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:      os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:  os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:       os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:    os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q: expected %q or %q", cfg.StoreDriver, StoreDriverPostgres, StoreDriverMemory)
	}

	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	var err error
	if cfg.ServerPort, err = getInt("SERVER_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}

	if cfg.KnockoutSize, err = getInt("KNOCKOUT_SIZE", 8); err != nil {
		return nil, err
	}
	if cfg.KnockoutSize < 2 {
		return nil, fmt.Errorf("KNOCKOUT_SIZE must be at least 2, got %d", cfg.KnockoutSize)
	}
	if cfg.ByePoints, err = getInt("BYE_POINTS", 1); err != nil {
		return nil, err
	}
	if cfg.ByePoints < 0 {
		return nil, fmt.Errorf("BYE_POINTS must not be negative, got %d", cfg.ByePoints)
	}

	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}
	rpsStr := getEnv("RATE_LIMIT_RPS", "10")
	if cfg.RateLimitRPS, err = strconv.ParseFloat(rpsStr, 64); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS environment variable: %w", err)
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
