package tradelog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAppendTicket(t *testing.T) {
	t.Setenv("BRIDGE_LOG_DIR", t.TempDir())

	err := AppendTicket(TicketEntry{
		TicketID: "20250612-101500-BUY",
		Symbol:   "USDJPY",
		Action:   "BUY",
		Lot:      0.10,
		Source:   "router",
		SignalTS: "2025-06-12 10:15:00",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	p := ticketsFilepath(time.Now())
	f, err := os.Open(p)
	if err != nil {
		t.Fatalf("open %s: %v", p, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		t.Fatal("expected one line in ticket log")
	}
	var e TicketEntry
	if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.TicketID != "20250612-101500-BUY" || e.Action != "BUY" || e.Lot != 0.10 {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.Time == "" {
		t.Error("expected Time to be stamped")
	}
}

func TestAppendSignalWritesToSignalsSubdir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BRIDGE_LOG_DIR", dir)

	err := AppendSignal(SignalEntry{
		SignalTS: "2025-06-12 10:15:00",
		Symbol:   "USDJPY",
		Action:   "SELL",
		Reasons:  []string{"ma_cross_down"},
		Close:    108,
		MA10:     109.5,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "signals"))
	if err != nil {
		t.Fatalf("signals dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected one signal log file, got %d", len(entries))
	}
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BRIDGE_LOG_DIR", dir)

	old := filepath.Join(dir, "2024-01-01.txt")
	if err := os.WriteFile(old, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	past := time.Now().AddDate(0, 0, -30)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	if err := CompressOlder(7); err != nil {
		t.Fatalf("compress: %v", err)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expected old .txt to be removed")
	}
	if _, err := os.Stat(old + ".gz"); err != nil {
		t.Errorf("expected gz file: %v", err)
	}
}

func TestCompressOlderDisabled(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BRIDGE_LOG_DIR", dir)

	recent := filepath.Join(dir, "2024-01-02.txt")
	if err := os.WriteFile(recent, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CompressOlder(0); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if _, err := os.Stat(recent); err != nil {
		t.Errorf("file should be untouched with retention disabled: %v", err)
	}
}
