// Package executor is the direct decision path: it consumes enriched advisor
// decisions, validates them, and emits tickets through the same ledger
// append as the router, so the ledger invariants are enforced in one place.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"fx-bridge-bot/internal/artifact"
	"fx-bridge-bot/internal/ledger"
	"fx-bridge-bot/internal/logger"
	"fx-bridge-bot/internal/metrics"
	"fx-bridge-bot/internal/router"
	"fx-bridge-bot/internal/store"
	"fx-bridge-bot/internal/tradelog"
	"fx-bridge-bot/internal/types"
)

type Builder struct {
	cfg       *store.Config
	ledger    *ledger.Ledger
	decisions *artifact.Store

	lastDecisionTS string
}

func NewBuilder(cfg *store.Config, led *ledger.Ledger) *Builder {
	return &Builder{
		cfg:       cfg,
		ledger:    led,
		decisions: artifact.NewStore(cfg.Paths.Decision),
	}
}

// ValidateLot checks the lot against the configured minimum and increment.
// The increment check runs on decimals, not raw floats: 0.07 is three binary
// float increments of 0.01 plus rounding noise, and must still pass.
func ValidateLot(lot, min, increment float64) error {
	l := decimal.NewFromFloat(lot)
	if l.LessThan(decimal.NewFromFloat(min)) {
		return fmt.Errorf("%w: lot %.4f < min %.4f", types.ErrLotBelowMinimum, lot, min)
	}
	if !l.Mod(decimal.NewFromFloat(increment)).IsZero() {
		return fmt.Errorf("%w: lot %.4f, increment %.4f", types.ErrLotNotIncrement, lot, increment)
	}
	return nil
}

// Build validates a decision and, if it passes, appends the resulting ticket
// to the shared ledger. A decision whose action is neither BUY nor SELL is a
// no-op, not an error: both return values are nil.
func (b *Builder) Build(ctx context.Context, d types.Decision) (*types.Ticket, error) {
	if d.Action != types.ActionBuy && d.Action != types.ActionSell {
		return nil, nil
	}

	lot := d.Lot
	if lot == 0 {
		lot = b.cfg.Lot.Min
	}
	if err := ValidateLot(lot, b.cfg.Lot.Min, b.cfg.Lot.Increment); err != nil {
		return nil, err
	}

	if b.ledger.OpenCount() >= b.cfg.Router.MaxOpenTrades {
		return nil, fmt.Errorf("%w: %d open, ceiling %d",
			types.ErrMaxExposureExceeded, b.ledger.OpenCount(), b.cfg.Router.MaxOpenTrades)
	}

	symbol := d.Symbol
	if symbol == "" {
		symbol = b.cfg.Symbol
	}
	ticket := types.Ticket{
		ID:         router.TicketID(d.Timestamp, d.Action),
		Timestamp:  d.Timestamp,
		Symbol:     symbol,
		Action:     d.Action,
		Lot:        lot,
		Status:     types.StatusNew,
		StopLoss:   d.StopLoss,
		TakeProfit: d.TakeProfit,
		Slippage:   b.cfg.Executor.Slippage,
	}
	if err := b.ledger.Append(ctx, ticket); err != nil {
		return nil, err
	}

	metrics.Tickets.WithLabelValues(ticket.Action, "executor").Inc()
	logger.TicketEvent(ctx, ticket.ID, ticket.Timestamp, ticket.Symbol, ticket.Action, ticket.Lot)
	if err := tradelog.AppendTicket(tradelog.TicketEntry{
		TicketID: ticket.ID,
		Symbol:   ticket.Symbol,
		Action:   ticket.Action,
		Lot:      ticket.Lot,
		Source:   "executor",
		SignalTS: d.Timestamp,
		Extra: map[string]any{
			"confidence": d.Confidence,
			"sl":         d.StopLoss,
			"tp":         d.TakeProfit,
		},
	}); err != nil {
		logger.Warn(ctx, "Ticket audit append failed", "error", err)
	}

	return &ticket, nil
}

// Step polls the decision artifact once. Below-threshold confidence and
// validation rejections are reported outcomes, not errors; only a
// durability failure is returned as an error.
func (b *Builder) Step(ctx context.Context) (*types.RouteResult, error) {
	var d types.Decision
	if err := b.decisions.Read(&d); err != nil {
		if errors.Is(err, artifact.ErrNotFound) || errors.Is(err, artifact.ErrCorrupt) {
			if errors.Is(err, artifact.ErrCorrupt) {
				logger.Warn(ctx, "Decision artifact unreadable, waiting for next write",
					"artifact", b.decisions.Path(),
					"error", err,
				)
			}
			return &types.RouteResult{Outcome: types.OutcomeIdle, Reason: types.ReasonNoSignal}, nil
		}
		return nil, err
	}

	if d.Timestamp == "" {
		logger.Warn(ctx, "Decision without timestamp discarded", "action", d.Action)
		return &types.RouteResult{Outcome: types.OutcomeIdle, Reason: types.ReasonNoSignal}, nil
	}
	if d.Timestamp == b.lastDecisionTS {
		return &types.RouteResult{Outcome: types.OutcomeIdle, Reason: types.ReasonDuplicateTimestamp, SignalTS: d.Timestamp}, nil
	}
	b.lastDecisionTS = d.Timestamp

	if !b.cfg.AcceptsConfidence(d.Confidence) {
		metrics.Suppressions.WithLabelValues(types.ReasonLowConfidence).Inc()
		logger.Suppression(ctx, types.ReasonLowConfidence, d.Timestamp,
			"action", d.Action,
			"confidence", d.Confidence,
			"accepted", b.cfg.Executor.AcceptConfidence,
		)
		return &types.RouteResult{Outcome: types.OutcomeSuppressed, Reason: types.ReasonLowConfidence, SignalTS: d.Timestamp}, nil
	}

	ticket, err := b.Build(ctx, d)
	switch {
	case err == nil && ticket == nil:
		return &types.RouteResult{Outcome: types.OutcomeIdle, Reason: types.ReasonHold, SignalTS: d.Timestamp}, nil
	case errors.Is(err, types.ErrLotBelowMinimum) || errors.Is(err, types.ErrLotNotIncrement):
		metrics.Suppressions.WithLabelValues(types.ReasonInvalidLot).Inc()
		logger.Suppression(ctx, types.ReasonInvalidLot, d.Timestamp,
			"action", d.Action,
			"lot", d.Lot,
			"error", err,
		)
		return &types.RouteResult{Outcome: types.OutcomeSuppressed, Reason: types.ReasonInvalidLot, SignalTS: d.Timestamp}, nil
	case errors.Is(err, types.ErrMaxExposureExceeded):
		metrics.Suppressions.WithLabelValues(types.ReasonMaxOpenTrades).Inc()
		logger.Suppression(ctx, types.ReasonMaxOpenTrades, d.Timestamp,
			"action", d.Action,
			"open_trades", b.ledger.OpenCount(),
			"ceiling", b.cfg.Router.MaxOpenTrades,
		)
		return &types.RouteResult{Outcome: types.OutcomeSuppressed, Reason: types.ReasonMaxOpenTrades, SignalTS: d.Timestamp}, nil
	case err != nil:
		return nil, err
	}

	return &types.RouteResult{Outcome: types.OutcomeEmitted, SignalTS: d.Timestamp, Ticket: ticket}, nil
}
