package ledger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"fx-bridge-bot/internal/types"
)

func newTicket(ts, action, status string) types.Ticket {
	return types.Ticket{
		ID:        "20250612-101500-" + action,
		Timestamp: ts,
		Symbol:    "USDJPY",
		Action:    action,
		Lot:       0.10,
		Status:    status,
	}
}

func TestOpenMissingFileSelfHeals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")

	l, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if l.OpenCount() != 0 {
		t.Errorf("expected empty ledger, got %d open", l.OpenCount())
	}

	// Self-heal must persist an empty array immediately.
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("healed ledger not persisted: %v", err)
	}
	var tickets []types.Ticket
	if err := json.Unmarshal(b, &tickets); err != nil {
		t.Fatalf("healed ledger not a ticket array: %v", err)
	}
	if len(tickets) != 0 {
		t.Errorf("expected empty array, got %d tickets", len(tickets))
	}
}

func TestOpenCorruptFileSelfHeals(t *testing.T) {
	for _, content := range []string{"{not json", `{"id": "x"}`, `"just a string"`} {
		path := filepath.Join(t.TempDir(), "orders.json")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		l, err := Open(context.Background(), path)
		if err != nil {
			t.Fatalf("open with content %q: %v", content, err)
		}
		if got := len(l.All()); got != 0 {
			t.Errorf("content %q: expected empty ledger, got %d tickets", content, got)
		}
	}
}

func TestRecoveryEquivalence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	ctx := context.Background()

	l, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Append(ctx, newTicket("2025-06-12 10:15:00", "BUY", types.StatusNew)); err != nil {
		t.Fatal(err)
	}
	if err := l.Append(ctx, newTicket("2025-06-12 10:16:00", "SELL", types.StatusClosed)); err != nil {
		t.Fatal(err)
	}
	if err := l.Append(ctx, newTicket("2025-06-12 10:17:00", "SELL", types.StatusNew)); err != nil {
		t.Fatal(err)
	}

	// Restart: open trades must be identical to filtering the persisted list.
	restarted, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}

	want := l.OpenTrades()
	got := restarted.OpenTrades()
	if len(got) != len(want) {
		t.Fatalf("open trades after restart: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("open trade %d mismatch: got %+v, want %+v", i, got[i], want[i])
		}
	}
	if got[0].Action != "BUY" || got[1].Action != "SELL" {
		t.Errorf("open trades out of order: %+v", got)
	}
}

func TestOpenTradesExcludesClosedAndExecuted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	ctx := context.Background()

	l, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	for _, status := range []string{types.StatusNew, types.StatusExecuted, types.StatusClosed} {
		if err := l.Append(ctx, newTicket("2025-06-12 10:15:00", "BUY", status)); err != nil {
			t.Fatal(err)
		}
	}

	if l.OpenCount() != 1 {
		t.Errorf("expected 1 open trade, got %d", l.OpenCount())
	}
	if len(l.All()) != 3 {
		t.Errorf("expected 3 recorded tickets, got %d", len(l.All()))
	}
}

func TestAppendRollsBackOnPersistFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	ctx := context.Background()

	l, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}

	// Replace the ledger file with a directory so the rename must fail.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}

	err = l.Append(ctx, newTicket("2025-06-12 10:15:00", "BUY", types.StatusNew))
	if err == nil {
		t.Fatal("expected persist failure")
	}
	if l.OpenCount() != 0 {
		t.Errorf("in-memory open trades must match durable state, got %d", l.OpenCount())
	}
	if len(l.All()) != 0 {
		t.Errorf("in-memory ticket list must be rolled back, got %d", len(l.All()))
	}
}

func TestLastOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	ctx := context.Background()

	l, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := l.LastOpen(); ok {
		t.Error("empty ledger should report no last open trade")
	}

	if err := l.Append(ctx, newTicket("2025-06-12 10:15:00", "BUY", types.StatusNew)); err != nil {
		t.Fatal(err)
	}
	if err := l.Append(ctx, newTicket("2025-06-12 10:16:00", "SELL", types.StatusNew)); err != nil {
		t.Fatal(err)
	}

	last, ok := l.LastOpen()
	if !ok || last.Action != "SELL" {
		t.Errorf("expected last open SELL, got %+v ok=%v", last, ok)
	}
}
