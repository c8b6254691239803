// Package eod summarizes one day of ticket audit lines into a CSV report.
package eod

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"fx-bridge-bot/internal/tradelog"
)

type aggRow struct {
	Symbol    string
	BuyCount  int
	BuyLots   float64
	SellCount int
	SellLots  float64
}

func logDir() string {
	if v := os.Getenv("BRIDGE_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func ticketFile(t time.Time) string {
	return filepath.Join(logDir(), t.UTC().Format("2006-01-02")+".txt")
}

func eodCSVPath(t time.Time) string {
	return filepath.Join(logDir(), "eod", t.UTC().Format("2006-01-02")+".csv")
}

// SummarizeDay aggregates the day's ticket audit file into a per-symbol CSV.
// Returns the written path, or "" when there is nothing to summarize.
func SummarizeDay(t time.Time) (string, error) {
	inPath := ticketFile(t)
	if _, err := os.Stat(inPath); err != nil {
		return "", nil
	}
	f, err := os.Open(inPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	aggs := map[string]*aggRow{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e tradelog.TicketEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		row := aggs[e.Symbol]
		if row == nil {
			row = &aggRow{Symbol: e.Symbol}
			aggs[e.Symbol] = row
		}
		switch e.Action {
		case "BUY":
			row.BuyCount++
			row.BuyLots += e.Lot
		case "SELL":
			row.SellCount++
			row.SellLots += e.Lot
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if len(aggs) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := eodCSVPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()
	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write([]string{"symbol", "buy_count", "buy_lots", "sell_count", "sell_lots", "net_lots"}); err != nil {
		return "", err
	}
	var totalBuy, totalSell float64
	for _, k := range keys {
		r := aggs[k]
		rec := []string{
			r.Symbol,
			strconv.Itoa(r.BuyCount),
			fmt.Sprintf("%.2f", r.BuyLots),
			strconv.Itoa(r.SellCount),
			fmt.Sprintf("%.2f", r.SellLots),
			fmt.Sprintf("%.2f", r.BuyLots-r.SellLots),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
		totalBuy += r.BuyLots
		totalSell += r.SellLots
	}
	_ = w.Write([]string{"TOTAL", "", fmt.Sprintf("%.2f", totalBuy), "", fmt.Sprintf("%.2f", totalSell), fmt.Sprintf("%.2f", totalBuy-totalSell)})
	return outPath, nil
}

// SummarizeToday summarizes the current UTC day.
func SummarizeToday() (string, error) { return SummarizeDay(time.Now().UTC()) }

// ShouldRunNow reports whether the daily summary is due: past the end of the
// FX trading day (22:00 UTC) and not yet written.
func ShouldRunNow() (bool, string) {
	now := time.Now().UTC()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 22, 0, 0, 0, time.UTC)
	outPath := eodCSVPath(now)
	if now.After(cutoff) {
		if _, err := os.Stat(outPath); errors.Is(err, os.ErrNotExist) {
			return true, outPath
		}
	}
	return false, outPath
}
