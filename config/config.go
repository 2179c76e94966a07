package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"nebulachat/infrastructure"
)

const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"

	PresenceDriverStore = "store"
	PresenceDriverRedis = "redis"

	RealtimeDriverMemory = "memory"
	RealtimeDriverNats   = "nats"
)

type Config struct {
	Port     string
	GRPCPort string

	StoreDriver string
	DatabaseURL string

	PresenceDriver string
	RedisAddr      string

	RealtimeDriver    string
	NatsURL           string
	NatsSubjectPrefix string

	JWTSecret []byte
	TokenTTL  time.Duration

	PasswordMinEntropy float64
	RateLimitRPS       int

	MaxImageBytes int64
	MaxFileBytes  int64

	LogLevel slog.Level
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Port:              env("PORT", "8080"),
		GRPCPort:          env("GRPC_PORT", "9090"),
		StoreDriver:       strings.ToLower(env("STORE_DRIVER", StoreDriverMemory)),
		DatabaseURL:       env("DATABASE_URL", ""),
		PresenceDriver:    strings.ToLower(env("PRESENCE_DRIVER", PresenceDriverStore)),
		RedisAddr:         env("REDIS_ADDR", "localhost:6379"),
		RealtimeDriver:    strings.ToLower(env("REALTIME_DRIVER", RealtimeDriverMemory)),
		NatsURL:           env("NATS_URL", "nats://localhost:4222"),
		NatsSubjectPrefix: env("NATS_SUBJECT_PREFIX", "nebula"),
		JWTSecret:         []byte(env("JWT_SECRET", "")),
	}

	var err error
	if cfg.TokenTTL, err = time.ParseDuration(env("TOKEN_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("%w: TOKEN_TTL: %v", infrastructure.ErrInvalidInput, err)
	}
	if cfg.PasswordMinEntropy, err = strconv.ParseFloat(env("PASSWORD_MIN_ENTROPY", "40"), 64); err != nil {
		return nil, fmt.Errorf("%w: PASSWORD_MIN_ENTROPY: %v", infrastructure.ErrInvalidInput, err)
	}
	if cfg.RateLimitRPS, err = strconv.Atoi(env("RATE_LIMIT_RPS", "20")); err != nil {
		return nil, fmt.Errorf("%w: RATE_LIMIT_RPS: %v", infrastructure.ErrInvalidInput, err)
	}
	if cfg.MaxImageBytes, err = strconv.ParseInt(env("MAX_IMAGE_BYTES", "5242880"), 10, 64); err != nil {
		return nil, fmt.Errorf("%w: MAX_IMAGE_BYTES: %v", infrastructure.ErrInvalidInput, err)
	}
	if cfg.MaxFileBytes, err = strconv.ParseInt(env("MAX_FILE_BYTES", "10485760"), 10, 64); err != nil {
		return nil, fmt.Errorf("%w: MAX_FILE_BYTES: %v", infrastructure.ErrInvalidInput, err)
	}
	if err = cfg.LogLevel.UnmarshalText([]byte(env("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("%w: LOG_LEVEL: %v", infrastructure.ErrInvalidInput, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverMemory:
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the postgres store", infrastructure.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown STORE_DRIVER %q", infrastructure.ErrInvalidInput, c.StoreDriver)
	}

	switch c.PresenceDriver {
	case PresenceDriverStore, PresenceDriverRedis:
	default:
		return fmt.Errorf("%w: unknown PRESENCE_DRIVER %q", infrastructure.ErrInvalidInput, c.PresenceDriver)
	}

	switch c.RealtimeDriver {
	case RealtimeDriverMemory, RealtimeDriverNats:
	default:
		return fmt.Errorf("%w: unknown REALTIME_DRIVER %q", infrastructure.ErrInvalidInput, c.RealtimeDriver)
	}

	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("%w: JWT_SECRET must be at least 32 bytes", infrastructure.ErrInvalidInput)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("%w: TOKEN_TTL must be positive", infrastructure.ErrInvalidInput)
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("%w: RATE_LIMIT_RPS must be positive", infrastructure.ErrInvalidInput)
	}
	if c.MaxImageBytes <= 0 || c.MaxFileBytes <= 0 {
		return fmt.Errorf("%w: attachment limits must be positive", infrastructure.ErrInvalidInput)
	}
	return nil
}
