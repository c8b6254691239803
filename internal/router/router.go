// Package router consumes the current signal and decides whether it becomes
// an order ticket. Risk gates: duplicate-timestamp and duplicate-direction
// suppression plus a hard open-trade ceiling. The persisted ledger is the
// router's only durable state.
package router

import (
	"context"
	"errors"
	"strings"
	"time"

	"fx-bridge-bot/internal/artifact"
	"fx-bridge-bot/internal/ledger"
	"fx-bridge-bot/internal/logger"
	"fx-bridge-bot/internal/metrics"
	"fx-bridge-bot/internal/store"
	"fx-bridge-bot/internal/tradelog"
	"fx-bridge-bot/internal/types"
)

type Router struct {
	cfg     *store.Config
	ledger  *ledger.Ledger
	signals *artifact.Store

	// lastSignalTS is set the first time a non-HOLD signal timestamp is
	// seen, whether it was emitted or suppressed, so re-polling the same
	// signal never re-runs the gates.
	lastSignalTS string
}

func New(cfg *store.Config, led *ledger.Ledger) *Router {
	return &Router{
		cfg:     cfg,
		ledger:  led,
		signals: artifact.NewStore(cfg.Paths.Signal),
	}
}

// Ledger exposes the router's ledger, shared with the executor path.
func (r *Router) Ledger() *ledger.Ledger {
	return r.ledger
}

// Step runs one WAITING->EMIT cycle. Idle outcomes (no signal, HOLD,
// already-processed timestamp) mutate nothing. Suppressed outcomes are
// logged and counted but also mutate nothing. Only an emit appends to the
// ledger, and only a durable append reports the ticket as placed.
func (r *Router) Step(ctx context.Context) (*types.RouteResult, error) {
	var sig types.Signal
	if err := r.signals.Read(&sig); err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return &types.RouteResult{Outcome: types.OutcomeIdle, Reason: types.ReasonNoSignal}, nil
		}
		if errors.Is(err, artifact.ErrCorrupt) {
			// The evaluator writes atomically, so this should not happen;
			// treat it as transient and wait for the next overwrite.
			logger.Warn(ctx, "Signal artifact unreadable, waiting for next write",
				"artifact", r.signals.Path(),
				"error", err,
			)
			return &types.RouteResult{Outcome: types.OutcomeIdle, Reason: types.ReasonNoSignal}, nil
		}
		return nil, err
	}

	if sig.Action == types.ActionHold {
		return &types.RouteResult{Outcome: types.OutcomeIdle, Reason: types.ReasonHold, SignalTS: sig.Timestamp}, nil
	}
	if sig.Timestamp == r.lastSignalTS {
		return &types.RouteResult{Outcome: types.OutcomeIdle, Reason: types.ReasonDuplicateTimestamp, SignalTS: sig.Timestamp}, nil
	}
	r.lastSignalTS = sig.Timestamp

	if last, ok := r.ledger.LastOpen(); ok && last.Action == sig.Action {
		metrics.Suppressions.WithLabelValues(types.ReasonDuplicateDirection).Inc()
		logger.Suppression(ctx, types.ReasonDuplicateDirection, sig.Timestamp,
			"action", sig.Action,
			"last_open_ticket", last.ID,
		)
		return &types.RouteResult{Outcome: types.OutcomeSuppressed, Reason: types.ReasonDuplicateDirection, SignalTS: sig.Timestamp}, nil
	}

	if r.ledger.OpenCount() >= r.cfg.Router.MaxOpenTrades {
		metrics.Suppressions.WithLabelValues(types.ReasonMaxOpenTrades).Inc()
		logger.Suppression(ctx, types.ReasonMaxOpenTrades, sig.Timestamp,
			"action", sig.Action,
			"open_trades", r.ledger.OpenCount(),
			"ceiling", r.cfg.Router.MaxOpenTrades,
		)
		return &types.RouteResult{Outcome: types.OutcomeSuppressed, Reason: types.ReasonMaxOpenTrades, SignalTS: sig.Timestamp}, nil
	}

	ticket := types.Ticket{
		ID:        TicketID(sig.Timestamp, sig.Action),
		Timestamp: sig.Timestamp,
		Symbol:    sig.Symbol,
		Action:    sig.Action,
		Lot:       r.cfg.Router.FixedLot,
		Status:    types.StatusNew,
	}
	if err := r.ledger.Append(ctx, ticket); err != nil {
		return nil, err
	}

	metrics.Tickets.WithLabelValues(ticket.Action, "router").Inc()
	logger.TicketEvent(ctx, ticket.ID, ticket.Timestamp, ticket.Symbol, ticket.Action, ticket.Lot)
	if err := tradelog.AppendTicket(tradelog.TicketEntry{
		TicketID: ticket.ID,
		Symbol:   ticket.Symbol,
		Action:   ticket.Action,
		Lot:      ticket.Lot,
		Source:   "router",
		SignalTS: sig.Timestamp,
	}); err != nil {
		logger.Warn(ctx, "Ticket audit append failed", "error", err)
	}

	return &types.RouteResult{Outcome: types.OutcomeEmitted, SignalTS: sig.Timestamp, Ticket: &ticket}, nil
}

// TicketID derives the deterministic ticket id from the signal timestamp and
// action: an identical signal always yields the identical id, so downstream
// consumers can dedup replays by id alone.
func TicketID(ts, action string) string {
	if t, err := time.Parse(types.TimeLayout, ts); err == nil {
		return t.Format("20060102-150405") + "-" + action
	}
	// Unparsable timestamps still map deterministically.
	cleaned := strings.NewReplacer("-", "", ":", "", " ", "-").Replace(ts)
	return cleaned + "-" + action
}
