// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/fundgate/auth"
	"github.com/danielhkuo/fundgate/cliparse"
	"github.com/danielhkuo/fundgate/db"
	"github.com/danielhkuo/fundgate/engine"
	"github.com/danielhkuo/fundgate/events"
	"github.com/danielhkuo/fundgate/ledger"
	"github.com/danielhkuo/fundgate/middleware"
	"github.com/danielhkuo/fundgate/router"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is fine; real environment variables still apply
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	if cfg.IssueToken != "" {
		token, err := auth.IssueToken(ledger.Principal(cfg.IssueToken), cfg.TokenSecret, cfg.TokenTTL, time.Now())
		if err != nil {
			slog.Error("token issue failed", "error", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server closed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server closed")
}

func run(ctx context.Context, cfg cliparse.Config) error {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher, closePublishers, err := buildPublishers(cfg)
	if err != nil {
		return err
	}
	defer closePublishers()

	eng := engine.New(store, engine.WithPublisher(publisher), engine.WithLogger(slog.Default()))

	// Create server
	server := &http.Server{
		Handler:           middleware.CORS(router.NewRouter(eng, cfg)),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Listening", "port", cfg.Port, "database", cfg.DatabaseType, "sinks", publisher.Len())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// Wait for Ctrl-C signal or a listener failure
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg cliparse.Config) (engine.Store, func(), error) {
	if cfg.DatabaseType == cliparse.DatabaseMemory {
		slog.Warn("using in-memory store; campaigns are lost on restart")
		return db.NewMemoryStore(), func() {}, nil
	}

	dialect, err := db.ParseDialect(cfg.DatabaseType)
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.Open(ctx, dialect, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("database setup failed: %w", err)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)
	return db.NewSQLStore(conn, dialect), func() { conn.Close() }, nil
}

// buildPublishers always logs events and adds Redis and Kafka when configured.
func buildPublishers(cfg cliparse.Config) (*events.Fanout, func(), error) {
	fan := events.NewFanout(cfg.PublishTimeout).Add("log", events.NewLogPublisher(slog.Default()))
	var closers []func() error

	if cfg.RedisURL != "" {
		client, err := events.ConnectRedis(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, client.Close)
		fan.Add("redis", events.NewRedisPublisher(client, cfg.RedisChannel))
	}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, nil, err
		}
		closers = append(closers, kp.Close)
		fan.Add("kafka", kp)
	}

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				slog.Warn("publisher close failed", "error", err)
			}
		}
	}
	return fan, closeAll, nil
}
