package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fx-bridge-bot/internal/executor"
	"fx-bridge-bot/internal/ledger"
	"fx-bridge-bot/internal/logger"
	"fx-bridge-bot/internal/metrics"
	"fx-bridge-bot/internal/router/routerobs"
	"fx-bridge-bot/internal/store"
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

	led, err := ledger.Open(ctx, cfg.Paths.Orders)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to open order ledger", err)
		os.Exit(1)
	}
	builder := routerobs.Wrap(executor.NewBuilder(cfg, led), "executor")

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	tick := time.NewTicker(time.Duration(cfg.Poll.ExecutorSeconds) * time.Second)
	defer tick.Stop()

	logger.Info(ctx, "Trade executor started",
		"symbol", cfg.Symbol,
		"decision", cfg.Paths.Decision,
		"accept_confidence", cfg.Executor.AcceptConfidence,
		"poll_s", cfg.Poll.ExecutorSeconds,
	)
	for {
		select {
		case <-tick.C:
			if _, err := builder.Step(ctx); err != nil {
				logger.ErrorWithErr(ctx, "Executor cycle error", err)
			}
		case <-sigc:
			logger.Info(ctx, "Shutting down")
			return
		case <-ctx.Done():
			return
		}
	}
}
