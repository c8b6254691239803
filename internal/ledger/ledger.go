// Package ledger persists every order ticket the pipeline has ever created.
// The persisted array doubles as the router's durable state: open trades are
// reconstructed from it on every restart.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"fx-bridge-bot/internal/artifact"
	"fx-bridge-bot/internal/logger"
	"fx-bridge-bot/internal/metrics"
	"fx-bridge-bot/internal/types"
)

type Ledger struct {
	mu      sync.Mutex
	store   *artifact.Store
	tickets []types.Ticket
	open    []types.Ticket
}

// Open loads the persisted ledger at path. Any load failure (missing file,
// unreadable or structurally invalid content) self-heals to an empty ledger
// which is immediately persisted, so later crashes never repeat an ambiguous
// recovery. The tradeoff is availability over strict durability: a corrupted
// ledger loses knowledge of genuinely open trades, which is why the heal is
// logged as a warning rather than silently absorbed.
func Open(ctx context.Context, path string) (*Ledger, error) {
	s := artifact.NewStore(path)

	var tickets []types.Ticket
	if err := s.Read(&tickets); err != nil {
		logger.SelfHeal(ctx, path, err)
		metrics.SelfHeals.Inc()
		tickets = []types.Ticket{}
		if werr := s.Write(tickets); werr != nil {
			return nil, fmt.Errorf("persist healed ledger: %w", werr)
		}
	}
	if tickets == nil {
		tickets = []types.Ticket{}
	}

	l := &Ledger{store: s, tickets: tickets}
	l.rebuildOpen()
	metrics.OpenTrades.Set(float64(len(l.open)))
	return l, nil
}

func (l *Ledger) rebuildOpen() {
	l.open = l.open[:0]
	for _, t := range l.tickets {
		if t.IsOpen() {
			l.open = append(l.open, t)
		}
	}
}

// Append adds a ticket and persists the full ledger. If persistence fails the
// in-memory append is rolled back: a ticket is never reported as placed
// unless it is durably recorded.
func (l *Ledger) Append(ctx context.Context, t types.Ticket) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tickets = append(l.tickets, t)
	if err := l.store.Write(l.tickets); err != nil {
		l.tickets = l.tickets[:len(l.tickets)-1]
		metrics.PersistFailures.Inc()
		logger.ErrorWithErr(ctx, "Ledger persist failed, ticket discarded", err,
			"ticket_id", t.ID,
			"action", t.Action,
		)
		return fmt.Errorf("persist ledger: %w", err)
	}

	if t.IsOpen() {
		l.open = append(l.open, t)
	}
	metrics.OpenTrades.Set(float64(len(l.open)))
	return nil
}

// OpenTrades returns a copy of the tickets still counting against the
// ceiling, in original append order.
func (l *Ledger) OpenTrades() []types.Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.Ticket, len(l.open))
	copy(out, l.open)
	return out
}

// OpenCount returns the number of open trades.
func (l *Ledger) OpenCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.open)
}

// LastOpen returns the most recently opened trade, if any.
func (l *Ledger) LastOpen() (types.Ticket, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.open) == 0 {
		return types.Ticket{}, false
	}
	return l.open[len(l.open)-1], true
}

// All returns a copy of every ticket ever recorded.
func (l *Ledger) All() []types.Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.Ticket, len(l.tickets))
	copy(out, l.tickets)
	return out
}

func (l *Ledger) Path() string {
	return l.store.Path()
}
