// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/danielhkuo/fundgate/db"
)

// DatabaseMemory keeps campaigns in process memory only.
const DatabaseMemory = "memory"

type Config struct {
	Port         int           `env:"PORT" envDefault:"3318"`
	DatabaseURL  string        `env:"DATABASE_URL"`
	DatabaseType string        `env:"DATABASE_TYPE" envDefault:"sqlite"`
	TokenSecret  string        `env:"TOKEN_SECRET"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	RedisURL     string   `env:"REDIS_URL"`
	RedisChannel string   `env:"REDIS_CHANNEL" envDefault:"fundgate.events"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"fundgate.events"`

	PublishTimeout time.Duration `env:"PUBLISH_TIMEOUT" envDefault:"5s"`

	// IssueToken, when set, prints a token for this principal and exits.
	IssueToken string `env:"-"`
}

// ParseFlags reads the environment, then lets CLI flags override it
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("fundgate", flag.ContinueOnError)

	// Network and storage (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", cfg.Port, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", cfg.DatabaseType, "Database type (sqlite, postgres or memory)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.TokenSecret, "token-secret", cfg.TokenSecret, "Principal token secret (prefer env)")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "Lifetime of issued tokens")
	fs.StringVar(&cfg.IssueToken, "issue-token", "", "Print a token for this principal and exit")

	// Notification sinks
	fs.StringVar(&cfg.RedisURL, "redis", cfg.RedisURL, "Redis URL for event pub/sub")
	fs.StringVar(&cfg.RedisChannel, "redis-channel", cfg.RedisChannel, "Redis channel prefix")
	brokers := fs.String("kafka-brokers", strings.Join(cfg.KafkaBrokers, ","), "Comma-separated Kafka brokers")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", cfg.KafkaTopic, "Kafka topic for events")
	fs.DurationVar(&cfg.PublishTimeout, "publish-timeout", cfg.PublishTimeout, "Per-event publish timeout")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.KafkaBrokers = splitList(*brokers)

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}

	// Secrets - MUST be provided
	if cfg.TokenSecret == "" {
		return Config{}, errors.New("TOKEN_SECRET required")
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, errors.New("token TTL must be positive")
	}
	if cfg.IssueToken != "" {
		return cfg, nil
	}

	cfg.DatabaseType = strings.ToLower(cfg.DatabaseType)
	if cfg.DatabaseType != DatabaseMemory {
		d, err := db.ParseDialect(cfg.DatabaseType)
		if err != nil {
			return Config{}, err
		}
		if d == db.Postgres && cfg.DatabaseURL == "" {
			return Config{}, errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
		}
	}
	if cfg.KafkaTopic == "" && len(cfg.KafkaBrokers) > 0 {
		return Config{}, errors.New("KAFKA_TOPIC required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
