// Package stream replays historical OHLCV candles as live market snapshots.
// Each step computes indicators over a rolling window and publishes one
// snapshot, so the downstream stages see the same artifact shape they would
// get from a real feed.
package stream

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"fx-bridge-bot/internal/artifact"
	"fx-bridge-bot/internal/logger"
	"fx-bridge-bot/internal/store"
	"fx-bridge-bot/internal/ta"
	"fx-bridge-bot/internal/types"
)

// ErrExhausted is returned by Step once every candle has been replayed.
var ErrExhausted = errors.New("stream: candle history exhausted")

// Candle is one raw OHLCV row from the historical CSV.
type Candle struct {
	Timestamp string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

type Replayer struct {
	cfg       *store.Config
	snapshots *artifact.Store
	histStore *artifact.Store

	candles []Candle
	history []types.Snapshot
	pos     int
}

// NewReplayer loads the configured CSV and restores the snapshot history
// artifact. An unreadable history file is not fatal: the replay starts with
// an empty history, matching the self-heal behavior of the order ledger.
func NewReplayer(ctx context.Context, cfg *store.Config) (*Replayer, error) {
	candles, skipped, err := LoadCandles(cfg.Stream.CSVPath)
	if err != nil {
		return nil, err
	}
	if len(candles) <= cfg.Stream.RollingWindow {
		return nil, fmt.Errorf("stream: %d candles in %s, need more than the rolling window of %d",
			len(candles), cfg.Stream.CSVPath, cfg.Stream.RollingWindow)
	}

	r := &Replayer{
		cfg:       cfg,
		snapshots: artifact.NewStore(cfg.Paths.Snapshot),
		histStore: artifact.NewStore(cfg.Paths.History),
		candles:   candles,
		pos:       cfg.Stream.RollingWindow,
	}
	if err := r.histStore.Read(&r.history); err != nil {
		if !errors.Is(err, artifact.ErrNotFound) {
			logger.Warn(ctx, "Snapshot history unreadable, starting fresh",
				"artifact", cfg.Paths.History,
				"error", err,
			)
		}
		r.history = nil
	}

	logger.Info(ctx, "Candle history loaded",
		"path", cfg.Stream.CSVPath,
		"candles", len(candles),
		"skipped_rows", skipped,
	)
	return r, nil
}

// Remaining reports how many candles are left to replay.
func (r *Replayer) Remaining() int {
	return len(r.candles) - r.pos
}

// Step publishes the next snapshot. Candles whose indicator window is not
// computable are skipped. Returns ErrExhausted after the last candle.
func (r *Replayer) Step(ctx context.Context) (*types.Snapshot, error) {
	for r.pos < len(r.candles) {
		window := r.candles[r.pos-r.cfg.Stream.RollingWindow : r.pos]
		latest := window[len(window)-1]
		r.pos++

		closes := make([]float64, len(window))
		for i, c := range window {
			closes[i] = c.Close
		}

		ma := ta.SMA(closes, r.cfg.Indicators.MAWindow)
		_, up, low := ta.Bollinger(closes, r.cfg.Indicators.BBWindow, r.cfg.Indicators.BBStdDev)
		vol := ta.StdDev(closes, r.cfg.Indicators.BBWindow)
		if math.IsNaN(ma) || math.IsNaN(up) || math.IsNaN(low) {
			logger.Warn(ctx, "Indicators not computable, skipping candle",
				"timestamp", latest.Timestamp,
				"window", len(window),
			)
			continue
		}

		snap := types.Snapshot{
			Timestamp:  latest.Timestamp,
			Symbol:     r.cfg.Symbol,
			Open:       round2(latest.Open),
			High:       round2(latest.High),
			Low:        round2(latest.Low),
			Close:      round2(latest.Close),
			Volume:     latest.Volume,
			MA10:       round2(ma),
			BBUpper:    round2(up),
			BBLower:    round2(low),
			Volatility: round2(vol),
			NearSR:     nearSR(window, latest.Close),
		}
		if err := r.snapshots.Write(snap); err != nil {
			return nil, err
		}

		r.history = append(r.history, snap)
		if err := r.histStore.Write(r.history); err != nil {
			logger.Warn(ctx, "Snapshot history write failed",
				"artifact", r.histStore.Path(),
				"error", err,
			)
		}
		return &snap, nil
	}
	return nil, ErrExhausted
}

// nearSR flags a close within a tenth of the window's range of its rolling
// high or low.
func nearSR(window []Candle, close float64) bool {
	hi, lo := window[0].High, window[0].Low
	for _, c := range window[1:] {
		if c.High > hi {
			hi = c.High
		}
		if c.Low < lo {
			lo = c.Low
		}
	}
	band := (hi - lo) * 0.1
	if band <= 0 {
		return false
	}
	return close >= hi-band || close <= lo+band
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var timeLayouts = []string{
	types.TimeLayout,
	"2006-01-02 15:04",
	"2006.01.02 15:04:05",
	"2006.01.02 15:04",
	"01/02/2006 15:04",
}

// LoadCandles reads an OHLCV CSV, tolerating the header variants the common
// export tools produce: a single timestamp column, or separate date and time
// columns. Rows that fail to parse are skipped and counted.
func LoadCandles(path string) ([]Candle, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	rd := csv.NewReader(f)
	rd.TrimLeadingSpace = true

	header, err := rd.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("stream: reading header of %s: %w", path, err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	dateCol := findCol(cols, "date", "day")
	timeCol := findCol(cols, "time", "timestamp", "datetime")
	if timeCol < 0 {
		return nil, 0, fmt.Errorf("stream: no time or timestamp column in %s", path)
	}
	for _, need := range []string{"open", "high", "low", "close"} {
		if _, ok := cols[need]; !ok {
			return nil, 0, fmt.Errorf("stream: no %s column in %s", need, path)
		}
	}

	var candles []Candle
	skipped := 0
	for {
		rec, err := rd.Read()
		if err != nil {
			if errors.Is(err, csv.ErrFieldCount) {
				skipped++
				continue
			}
			break
		}
		c, ok := parseRow(rec, cols, dateCol, timeCol)
		if !ok {
			skipped++
			continue
		}
		candles = append(candles, c)
	}
	return candles, skipped, nil
}

func findCol(cols map[string]int, names ...string) int {
	for _, n := range names {
		if i, ok := cols[n]; ok {
			return i
		}
	}
	return -1
}

func parseRow(rec []string, cols map[string]int, dateCol, timeCol int) (Candle, bool) {
	field := func(i int) string {
		if i < 0 || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	raw := field(timeCol)
	if dateCol >= 0 {
		raw = field(dateCol) + " " + raw
	}
	ts, ok := parseTimestamp(raw)
	if !ok {
		return Candle{}, false
	}

	c := Candle{Timestamp: ts}
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"open", &c.Open}, {"high", &c.High}, {"low", &c.Low}, {"close", &c.Close},
	} {
		v, err := strconv.ParseFloat(field(cols[f.name]), 64)
		if err != nil {
			return Candle{}, false
		}
		*f.dst = v
	}
	if i, ok := cols["volume"]; ok {
		if v, err := strconv.ParseFloat(field(i), 64); err == nil {
			c.Volume = int64(v)
		}
	}
	return c, true
}

func parseTimestamp(raw string) (string, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(types.TimeLayout), true
		}
	}
	return "", false
}
