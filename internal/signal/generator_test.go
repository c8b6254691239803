package signal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fx-bridge-bot/internal/artifact"
	"fx-bridge-bot/internal/store"
	"fx-bridge-bot/internal/types"
)

func testConfig(t *testing.T) *store.Config {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("BRIDGE_LOG_DIR", filepath.Join(dir, "logs"))

	cfg := &store.Config{Symbol: "USDJPY"}
	cfg.Paths.Snapshot = filepath.Join(dir, "market_snapshot.json")
	cfg.Paths.Signal = filepath.Join(dir, "signal.json")
	cfg.Paths.Memory = filepath.Join(dir, "evaluator_memory.json")
	return cfg
}

func writeSnapshot(t *testing.T, cfg *store.Config, snap types.Snapshot) {
	t.Helper()
	if err := artifact.NewStore(cfg.Paths.Snapshot).Write(snap); err != nil {
		t.Fatal(err)
	}
}

func TestStepNoSnapshotIsIdle(t *testing.T) {
	cfg := testConfig(t)
	g := NewGenerator(context.Background(), cfg)

	sig, err := g.Step(context.Background())
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if sig != nil {
		t.Errorf("expected idle cycle, got %+v", sig)
	}
}

func TestStepIdempotentOnSameTimestamp(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	g := NewGenerator(ctx, cfg)

	writeSnapshot(t, cfg, types.Snapshot{
		Timestamp: "2025-06-12 10:15:00", Symbol: "USDJPY",
		Close: 110, MA10: 109, BBUpper: 111, BBLower: 107,
	})

	first, err := g.Step(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first == nil {
		t.Fatal("expected a signal on first evaluation")
	}
	memAfterFirst := g.Memory()

	// Same snapshot polled again: no write, no memory mutation.
	second, err := g.Step(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if second != nil {
		t.Errorf("expected skip on duplicate timestamp, got %+v", second)
	}
	if g.Memory() != memAfterFirst {
		t.Errorf("memory mutated on duplicate poll: %+v vs %+v", g.Memory(), memAfterFirst)
	}
}

func TestStepMalformedSnapshotDoesNotAdvanceMemory(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	g := NewGenerator(ctx, cfg)

	// Missing ma10.
	if err := artifact.NewStore(cfg.Paths.Snapshot).Write(map[string]any{
		"timestamp": "2025-06-12 10:15:00",
		"symbol":    "USDJPY",
		"close":     110.0,
		"bb_upper":  111.0,
		"bb_lower":  107.0,
	}); err != nil {
		t.Fatal(err)
	}

	_, err := g.Step(ctx)
	if !errors.Is(err, types.ErrMalformedSnapshot) {
		t.Fatalf("expected ErrMalformedSnapshot, got %v", err)
	}
	if g.Memory().LastTimestamp != "" || g.Memory().LastAboveMA != nil {
		t.Errorf("memory advanced on malformed snapshot: %+v", g.Memory())
	}

	// No signal may have been published.
	if _, err := os.Stat(cfg.Paths.Signal); !os.IsNotExist(err) {
		t.Error("signal artifact written for malformed snapshot")
	}
}

func TestStepCrossoverAcrossRestart(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	g := NewGenerator(ctx, cfg)
	writeSnapshot(t, cfg, types.Snapshot{
		Timestamp: "2025-06-12 10:15:00", Symbol: "USDJPY",
		Close: 110, MA10: 109, BBUpper: 111, BBLower: 107,
	})
	if _, err := g.Step(ctx); err != nil {
		t.Fatal(err)
	}

	// Fresh generator simulating a process restart: memory comes back from
	// the persisted artifact, so the cross-down still fires.
	restarted := NewGenerator(ctx, cfg)
	writeSnapshot(t, cfg, types.Snapshot{
		Timestamp: "2025-06-12 10:16:00", Symbol: "USDJPY",
		Close: 108, MA10: 109.5, BBUpper: 111, BBLower: 107,
	})
	sig, err := restarted.Step(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sig == nil || sig.Action != types.ActionSell {
		t.Fatalf("expected SELL after restart, got %+v", sig)
	}
	if len(sig.Reasons) != 1 || sig.Reasons[0] != ReasonMACrossDown {
		t.Errorf("reasons = %v", sig.Reasons)
	}
}

func TestStepPublishesSignalArtifact(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	g := NewGenerator(ctx, cfg)

	writeSnapshot(t, cfg, types.Snapshot{
		Timestamp: "2025-06-12 10:15:00", Symbol: "USDJPY",
		Close: 106, MA10: 109, BBUpper: 111, BBLower: 107,
	})
	if _, err := g.Step(ctx); err != nil {
		t.Fatal(err)
	}

	var published types.Signal
	if err := artifact.NewStore(cfg.Paths.Signal).Read(&published); err != nil {
		t.Fatalf("read published signal: %v", err)
	}
	if published.Action != types.ActionBuy {
		t.Errorf("published action = %s, want BUY (band lower touch)", published.Action)
	}
	if published.Timestamp != "2025-06-12 10:15:00" || published.Symbol != "USDJPY" {
		t.Errorf("unexpected published signal: %+v", published)
	}
}

func TestNewGeneratorHealsCorruptMemory(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(cfg.Paths.Memory, []byte("(True, '2025')"), 0o644); err != nil {
		t.Fatal(err)
	}

	g := NewGenerator(context.Background(), cfg)
	if g.Memory().LastAboveMA != nil || g.Memory().LastTimestamp != "" {
		t.Errorf("corrupt memory should reset to empty, got %+v", g.Memory())
	}
}
