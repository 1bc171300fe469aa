package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	DatabasePath   string
	MigrationsPath string
	ServerPort     int
	LogLevel       slog.Level

	AMQPURL      string
	AMQPExchange string

	NeutralOdds     decimal.Decimal
	MatchStagger    time.Duration
	SessionLifetime time.Duration
}

// Load reads the configuration from the environment, optionally seeded by a .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	port, err := strconv.Atoi(getenv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	neutral, err := decimal.NewFromString(getenv("NEUTRAL_ODDS", "2.00"))
	if err != nil {
		return nil, fmt.Errorf("invalid NEUTRAL_ODDS: %w", err)
	}
	if neutral.LessThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("NEUTRAL_ODDS must be at least 1, got %s", neutral)
	}

	stagger, err := strconv.Atoi(getenv("MATCH_STAGGER_MINUTES", "5"))
	if err != nil || stagger < 0 {
		return nil, fmt.Errorf("invalid MATCH_STAGGER_MINUTES %q", os.Getenv("MATCH_STAGGER_MINUTES"))
	}

	lifetime, err := time.ParseDuration(getenv("SESSION_LIFETIME", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_LIFETIME: %w", err)
	}

	return &Config{
		DatabasePath:    getenv("DATABASE_PATH", "ladder.db"),
		MigrationsPath:  getenv("MIGRATIONS_PATH", "file://migrations"),
		ServerPort:      port,
		LogLevel:        level,
		AMQPURL:         strings.TrimSpace(os.Getenv("AMQP_URL")),
		AMQPExchange:    getenv("AMQP_EXCHANGE", "ladder.events"),
		NeutralOdds:     neutral,
		MatchStagger:    time.Duration(stagger) * time.Minute,
		SessionLifetime: lifetime,
	}, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
