// Package signal turns market snapshots into directional signals. The
// evaluator carries one piece of cross-candle memory, the prior close/MA
// relationship, so it can detect crossovers.
package signal

import (
	"fmt"

	"fx-bridge-bot/internal/types"
)

// Reason codes attached to evaluated signals.
const (
	ReasonMACrossUp    = "ma_cross_up"
	ReasonMACrossDown  = "ma_cross_down"
	ReasonBBLowerTouch = "bb_lower_touch"
	ReasonBBUpperTouch = "bb_upper_touch"
	ReasonNoRule       = "no_rule_triggered"
)

// Evaluate applies the rule set to one snapshot and returns the signal plus
// the advanced memory. Rules run in fixed order; the band-touch rule
// overrides the crossover's action, but reason codes accumulate regardless
// of the override. Memory always advances to the current close/MA
// relationship, whether or not a rule fired. The caller owns the idempotent
// guard (skipping snapshots whose timestamp was already evaluated).
func Evaluate(snap types.Snapshot, mem types.Memory) (types.Signal, types.Memory) {
	aboveMA := snap.Close > snap.MA10

	action := types.ActionHold
	var reasons []string

	// MA10 crossover: needs a prior relationship to compare against.
	if mem.LastAboveMA != nil && aboveMA != *mem.LastAboveMA {
		if aboveMA {
			action = types.ActionBuy
			reasons = append(reasons, ReasonMACrossUp)
		} else {
			action = types.ActionSell
			reasons = append(reasons, ReasonMACrossDown)
		}
	}

	// Bollinger band touches take precedence over the crossover.
	if snap.Close <= snap.BBLower {
		action = types.ActionBuy
		reasons = append(reasons, ReasonBBLowerTouch)
	} else if snap.Close >= snap.BBUpper {
		action = types.ActionSell
		reasons = append(reasons, ReasonBBUpperTouch)
	}

	if len(reasons) == 0 {
		reasons = append(reasons, ReasonNoRule)
	}

	next := types.Memory{
		LastTimestamp: snap.Timestamp,
		LastAboveMA:   &aboveMA,
	}

	return types.Signal{
		Timestamp: snap.Timestamp,
		Symbol:    snap.Symbol,
		Close:     snap.Close,
		MA10:      snap.MA10,
		Action:    action,
		Reasons:   reasons,
	}, next
}

// rawSnapshot mirrors the snapshot artifact with pointer fields so missing
// required keys can be told apart from zero values.
type rawSnapshot struct {
	Timestamp  *string  `json:"timestamp"`
	Symbol     *string  `json:"symbol"`
	Open       *float64 `json:"open"`
	High       *float64 `json:"high"`
	Low        *float64 `json:"low"`
	Close      *float64 `json:"close"`
	Volume     *int64   `json:"volume"`
	MA10       *float64 `json:"ma10"`
	BBUpper    *float64 `json:"bb_upper"`
	BBLower    *float64 `json:"bb_lower"`
	Volatility *float64 `json:"volatility"`
	NearSR     *bool    `json:"near_sr"`
}

// toSnapshot validates required fields and converts to the domain record.
// Open/high/low/volume/volatility/near_sr are optional: the rules never read
// them, so a producer that omits them is still usable.
func (r rawSnapshot) toSnapshot() (types.Snapshot, error) {
	required := []struct {
		name string
		ok   bool
	}{
		{"timestamp", r.Timestamp != nil && *r.Timestamp != ""},
		{"symbol", r.Symbol != nil && *r.Symbol != ""},
		{"close", r.Close != nil},
		{"ma10", r.MA10 != nil},
		{"bb_upper", r.BBUpper != nil},
		{"bb_lower", r.BBLower != nil},
	}
	for _, f := range required {
		if !f.ok {
			return types.Snapshot{}, fmt.Errorf("%w: missing field %s", types.ErrMalformedSnapshot, f.name)
		}
	}

	snap := types.Snapshot{
		Timestamp: *r.Timestamp,
		Symbol:    *r.Symbol,
		Close:     *r.Close,
		MA10:      *r.MA10,
		BBUpper:   *r.BBUpper,
		BBLower:   *r.BBLower,
	}
	if r.Open != nil {
		snap.Open = *r.Open
	}
	if r.High != nil {
		snap.High = *r.High
	}
	if r.Low != nil {
		snap.Low = *r.Low
	}
	if r.Volume != nil {
		snap.Volume = *r.Volume
	}
	if r.Volatility != nil {
		snap.Volatility = *r.Volatility
	}
	if r.NearSR != nil {
		snap.NearSR = *r.NearSR
	}
	return snap, nil
}
