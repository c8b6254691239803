package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fx-bridge-bot/internal/logger"
	"fx-bridge-bot/internal/metrics"
	"fx-bridge-bot/internal/store"
	"fx-bridge-bot/internal/stream"
	"fx-bridge-bot/internal/trace"
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

	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				logger.Warn(ctx, "Metrics endpoint stopped", "error", err)
			}
		}()
	}

	replayer, err := stream.NewReplayer(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to start replayer", err)
		os.Exit(1)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	tick := time.NewTicker(time.Duration(cfg.Stream.IntervalSeconds) * time.Second)
	defer tick.Stop()

	logger.Info(ctx, "Market stream started",
		"symbol", cfg.Symbol,
		"csv", cfg.Stream.CSVPath,
		"interval_s", cfg.Stream.IntervalSeconds,
		"remaining", replayer.Remaining(),
	)
	for {
		select {
		case <-tick.C:
			snap, err := replayer.Step(ctx)
			if errors.Is(err, stream.ErrExhausted) {
				logger.Info(ctx, "Candle history exhausted, stopping")
				return
			}
			if err != nil {
				logger.ErrorWithErr(ctx, "Snapshot publish failed", err)
				continue
			}
			logger.Debug(ctx, "Snapshot published", "timestamp", snap.Timestamp, "close", snap.Close)
		case <-sigc:
			logger.Info(ctx, "Shutting down")
			return
		case <-ctx.Done():
			return
		}
	}
}
