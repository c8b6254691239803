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

	"fx-bridge-bot/internal/eod"
	"fx-bridge-bot/internal/ledger"
	"fx-bridge-bot/internal/logger"
	"fx-bridge-bot/internal/metrics"
	"fx-bridge-bot/internal/router"
	"fx-bridge-bot/internal/router/routerobs"
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

	led, err := ledger.Open(ctx, cfg.Paths.Orders)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to open order ledger", err)
		os.Exit(1)
	}
	rt := routerobs.Wrap(router.New(cfg, led), "router")

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	tick := time.NewTicker(time.Duration(cfg.Poll.RouterSeconds) * time.Second)
	defer tick.Stop()
	eodTick := time.NewTicker(60 * time.Second)
	defer eodTick.Stop()

	logger.Info(ctx, "Order router started",
		"symbol", cfg.Symbol,
		"orders", cfg.Paths.Orders,
		"max_open_trades", cfg.Router.MaxOpenTrades,
		"poll_s", cfg.Poll.RouterSeconds,
	)
	for {
		select {
		case <-tick.C:
			if _, err := rt.Step(ctx); err != nil {
				logger.ErrorWithErr(ctx, "Routing cycle error", err)
			}
		case <-eodTick.C:
			if ok, _ := eod.ShouldRunNow(); ok {
				if p, err := eod.SummarizeToday(); err == nil && p != "" {
					logger.Info(ctx, "EOD summary written", "path", p)
				}
			}
		case <-sigc:
			logger.Info(ctx, "Shutting down")
			if p, err := eod.SummarizeToday(); err == nil && p != "" {
				logger.Info(ctx, "EOD summary written", "path", p)
			}
			return
		case <-ctx.Done():
			return
		}
	}
}
