// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"os"
	"testing"
	"time"
)

var configEnv = []string{
	"PORT", "DATABASE_URL", "DATABASE_TYPE", "TOKEN_SECRET", "TOKEN_TTL",
	"REDIS_URL", "REDIS_CHANNEL", "KAFKA_BROKERS", "KAFKA_TOPIC", "PUBLISH_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_SECRET", "s3cret")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3318 {
		t.Errorf("expected port 3318, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected sqlite, got %q", cfg.DatabaseType)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("expected 24h token TTL, got %s", cfg.TokenTTL)
	}
	if cfg.PublishTimeout != 5*time.Second {
		t.Errorf("expected 5s publish timeout, got %s", cfg.PublishTimeout)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Errorf("expected no kafka brokers, got %v", cfg.KafkaBrokers)
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("TOKEN_SECRET", "s3cret")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("PUBLISH_TIMEOUT", "750ms")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://test" {
		t.Errorf("expected database url from env, got %q", cfg.DatabaseURL)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("expected two trimmed brokers, got %v", cfg.KafkaBrokers)
	}
	if cfg.PublishTimeout != 750*time.Millisecond {
		t.Errorf("expected 750ms, got %s", cfg.PublishTimeout)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("TOKEN_SECRET", "from-env")

	cfg, err := ParseFlags([]string{"-p", "8080", "-t", "memory", "-token-secret", "from-cli", "-kafka-brokers", "a:1"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.TokenSecret != "from-cli" {
		t.Errorf("CLI should override env: got %q", cfg.TokenSecret)
	}
	if cfg.DatabaseType != DatabaseMemory {
		t.Errorf("expected memory store, got %q", cfg.DatabaseType)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "a:1" {
		t.Errorf("expected broker a:1, got %v", cfg.KafkaBrokers)
	}
}

func TestParseFlags_IssueTokenSkipsStorageChecks(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_SECRET", "s3cret")
	t.Setenv("DATABASE_TYPE", "oracle")

	cfg, err := ParseFlags([]string{"-issue-token", "0xabc"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.IssueToken != "0xabc" {
		t.Errorf("expected issue-token principal, got %q", cfg.IssueToken)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"missing secret", nil, nil},
		{"bad port env", map[string]string{"TOKEN_SECRET": "s", "PORT": "abc"}, nil},
		{"port out of range", map[string]string{"TOKEN_SECRET": "s"}, []string{"-p", "70000"}},
		{"unknown database", map[string]string{"TOKEN_SECRET": "s"}, []string{"-t", "oracle"}},
		{"postgres without url", map[string]string{"TOKEN_SECRET": "s", "DATABASE_TYPE": "postgres"}, nil},
		{"kafka without topic", map[string]string{"TOKEN_SECRET": "s", "KAFKA_BROKERS": "k:1"}, []string{"-kafka-topic", ""}},
		{"non-positive ttl", map[string]string{"TOKEN_SECRET": "s"}, []string{"-token-ttl", "0s"}},
		{"unknown flag", map[string]string{"TOKEN_SECRET": "s"}, []string{"-nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := ParseFlags(tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}
