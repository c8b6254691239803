package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fx-bridge-bot/internal/logger"
)

var mu sync.Mutex

// TicketEntry is one audit line for a placed order ticket.
type TicketEntry struct {
	Time, RunID, TicketID, Symbol, Action, Source string
	SignalTS                                      string
	Lot                                           float64
	Extra                                         map[string]any `json:"Extra,omitempty"`
}

// SignalEntry is one audit line for an evaluated signal, fired or not.
type SignalEntry struct {
	Time, RunID, SignalTS, Symbol, Action string
	Reasons                               []string
	Close, MA10                           float64
}

func logDir() string {
	if v := os.Getenv("BRIDGE_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func ticketsFilepath(t time.Time) string {
	return filepath.Join(logDir(), t.UTC().Format("2006-01-02")+".txt")
}

func signalsFilepath(t time.Time) string {
	return filepath.Join(logDir(), "signals", t.UTC().Format("2006-01-02")+".txt")
}

// AppendTicket records a placed ticket in today's audit file.
func AppendTicket(e TicketEntry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e.Time = now.Format("2006-01-02 15:04:05")
	e.RunID = logger.RunID()
	return appendLine(ticketsFilepath(now), e)
}

// AppendSignal records an evaluated signal in today's signal audit file.
func AppendSignal(e SignalEntry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e.Time = now.Format("2006-01-02 15:04:05")
	e.RunID = logger.RunID()
	return appendLine(signalsFilepath(now), e)
}

func appendLine(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(v)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips audit files older than retentionDays. Zero or negative
// retention disables compression.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	root := logDir()
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, e2 := os.Stat(gz); e2 == nil {
			// already compressed on a previous pass
			return os.Remove(p)
		}
		return compressFile(p, gz)
	})
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return nil
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		return nil
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		return nil
	}
	if err := out.Close(); err != nil {
		return nil
	}
	return os.Remove(src)
}
