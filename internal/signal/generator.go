package signal

import (
	"context"
	"errors"
	"fmt"

	"fx-bridge-bot/internal/artifact"
	"fx-bridge-bot/internal/logger"
	"fx-bridge-bot/internal/metrics"
	"fx-bridge-bot/internal/store"
	"fx-bridge-bot/internal/tradelog"
	"fx-bridge-bot/internal/types"
)

// Generator is the signal evaluation stage: it polls the snapshot artifact,
// evaluates new snapshots, and publishes the current signal. Crossover
// memory is persisted as a small JSON artifact so restarts keep detecting
// crossovers across the gap.
type Generator struct {
	cfg       *store.Config
	snapshots *artifact.Store
	signals   *artifact.Store
	memory    *artifact.Store // nil when no memory path is configured
	mem       types.Memory
}

// NewGenerator restores persisted evaluator memory if a memory path is
// configured. Corrupt memory resets to empty, same availability policy as
// the ledger: worst case one missed crossover after a restart.
func NewGenerator(ctx context.Context, cfg *store.Config) *Generator {
	g := &Generator{
		cfg:       cfg,
		snapshots: artifact.NewStore(cfg.Paths.Snapshot),
		signals:   artifact.NewStore(cfg.Paths.Signal),
	}
	if cfg.Paths.Memory != "" {
		g.memory = artifact.NewStore(cfg.Paths.Memory)
		var mem types.Memory
		switch err := g.memory.Read(&mem); {
		case err == nil:
			g.mem = mem
		case errors.Is(err, artifact.ErrNotFound):
			// first run
		default:
			logger.SelfHeal(ctx, cfg.Paths.Memory, err)
			metrics.SelfHeals.Inc()
		}
	}
	return g
}

// Memory exposes the current evaluator memory for inspection in tests.
func (g *Generator) Memory() types.Memory {
	return g.mem
}

// Step runs one evaluation cycle. It returns the signal written this cycle,
// or nil when there was nothing new: no snapshot yet, or a snapshot whose
// timestamp was already evaluated. Repeated polling of an unchanged snapshot
// writes at most one signal and never mutates memory.
func (g *Generator) Step(ctx context.Context) (*types.Signal, error) {
	var raw rawSnapshot
	if err := g.snapshots.Read(&raw); err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	snap, err := raw.toSnapshot()
	if err != nil {
		// Partial, unvalidated data must never advance crossover memory.
		logger.Warn(ctx, "Snapshot rejected",
			"artifact", g.snapshots.Path(),
			"error", err,
		)
		return nil, err
	}

	if snap.Timestamp == g.mem.LastTimestamp {
		return nil, nil
	}

	sig, next := Evaluate(snap, g.mem)

	if err := g.signals.Write(sig); err != nil {
		// Signal not durable, so memory must not advance either.
		return nil, fmt.Errorf("persist signal: %w", err)
	}
	g.mem = next
	if g.memory != nil {
		if err := g.memory.Write(g.mem); err != nil {
			logger.Warn(ctx, "Evaluator memory persist failed, crossover detection may miss one candle after restart",
				"error", err,
			)
		}
	}

	metrics.Signals.WithLabelValues(sig.Action).Inc()
	logger.SignalEvent(ctx, sig.Timestamp, sig.Symbol, sig.Action, sig.Reasons, sig.Close, sig.MA10)
	if err := tradelog.AppendSignal(tradelog.SignalEntry{
		SignalTS: sig.Timestamp,
		Symbol:   sig.Symbol,
		Action:   sig.Action,
		Reasons:  sig.Reasons,
		Close:    sig.Close,
		MA10:     sig.MA10,
	}); err != nil {
		logger.Warn(ctx, "Signal audit append failed", "error", err)
	}

	return &sig, nil
}
