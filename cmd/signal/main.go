package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	gosignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fx-bridge-bot/internal/logger"
	"fx-bridge-bot/internal/metrics"
	"fx-bridge-bot/internal/signal"
	"fx-bridge-bot/internal/signal/signalobs"
	"fx-bridge-bot/internal/store"
	"fx-bridge-bot/internal/trace"
	"fx-bridge-bot/internal/tradelog"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize tracer: %v\n", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer trace.Shutdown(context.Background())

	cfg, err := store.LoadConfig(*configPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		os.Exit(1)
	}

	if v := os.Getenv("BRIDGE_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}

	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				logger.Warn(ctx, "Metrics endpoint stopped", "error", err)
			}
		}()
	}

	evaluator := signalobs.Wrap(signal.NewGenerator(ctx, cfg))

	sigc := make(chan os.Signal, 1)
	gosignal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	tick := time.NewTicker(time.Duration(cfg.Poll.SignalSeconds) * time.Second)
	defer tick.Stop()

	logger.Info(ctx, "Signal generator started",
		"symbol", cfg.Symbol,
		"snapshot", cfg.Paths.Snapshot,
		"poll_s", cfg.Poll.SignalSeconds,
	)
	for {
		select {
		case <-tick.C:
			if _, err := evaluator.Step(ctx); err != nil {
				logger.ErrorWithErr(ctx, "Signal cycle error", err)
			}
		case <-sigc:
			logger.Info(ctx, "Shutting down")
			return
		case <-ctx.Done():
			return
		}
	}
}
