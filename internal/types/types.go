package types

// TimeLayout is the timestamp format used in every persisted artifact.
const TimeLayout = "2006-01-02 15:04:05"

const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// Ticket lifecycle. The pipeline only ever writes StatusNew; the external
// execution agent owns the NEW -> EXECUTED -> CLOSED transitions.
const (
	StatusNew      = "NEW"
	StatusExecuted = "EXECUTED"
	StatusClosed   = "CLOSED"
)

// Confidence levels attached to advisor decisions.
const (
	ConfidenceLow    = "LOW"
	ConfidenceMedium = "MEDIUM"
	ConfidenceHigh   = "HIGH"
)

// Snapshot is one OHLCV + indicator record for a symbol. It is produced by
// the market stream and overwritten in place each cycle.
type Snapshot struct {
	Timestamp  string  `json:"timestamp"`
	Symbol     string  `json:"symbol"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	Volume     int64   `json:"volume"`
	MA10       float64 `json:"ma10"`
	BBUpper    float64 `json:"bb_upper"`
	BBLower    float64 `json:"bb_lower"`
	Volatility float64 `json:"volatility"`
	NearSR     bool    `json:"near_sr"`
}

// Signal is the evaluator's verdict for one snapshot. Exactly one current
// Signal exists at a time; each evaluation overwrites the previous one.
// Reasons is never empty: a quiet candle carries "no_rule_triggered".
type Signal struct {
	Timestamp string   `json:"timestamp"`
	Symbol    string   `json:"symbol"`
	Close     float64  `json:"close"`
	MA10      float64  `json:"ma10"`
	Action    string   `json:"signal"`
	Reasons   []string `json:"reasons"`
}

// Ticket is a risk-gated order instruction awaiting external execution.
// SL/TP/Slippage are only set on the advisor decision path.
type Ticket struct {
	ID         string  `json:"id"`
	Timestamp  string  `json:"timestamp"`
	Symbol     string  `json:"symbol"`
	Action     string  `json:"action"`
	Lot        float64 `json:"lot"`
	Status     string  `json:"status"`
	StopLoss   float64 `json:"sl,omitempty"`
	TakeProfit float64 `json:"tp,omitempty"`
	Slippage   int     `json:"slippage,omitempty"`
}

// IsOpen reports whether the ticket still counts against the open-trade
// ceiling.
func (t Ticket) IsOpen() bool {
	return t.Status != StatusClosed && t.Status != StatusExecuted
}

// Decision is an enriched trade suggestion from the advisor stage. It is
// consumed only when Confidence is in the configured acceptance set.
type Decision struct {
	Timestamp  string  `json:"timestamp"`
	Symbol     string  `json:"symbol"`
	Action     string  `json:"action"`
	Confidence string  `json:"confidence"`
	Lot        float64 `json:"lot,omitempty"`
	StopLoss   float64 `json:"sl"`
	TakeProfit float64 `json:"tp"`
	NearSR     bool    `json:"near_sr,omitempty"`
}

// Memory is the evaluator's cross-candle state. LastAboveMA is nil until the
// first successful evaluation.
type Memory struct {
	LastTimestamp string `json:"last_timestamp"`
	LastAboveMA   *bool  `json:"last_above_ma"`
}

// Router step outcomes.
const (
	OutcomeIdle       = "IDLE"
	OutcomeSuppressed = "SUPPRESSED"
	OutcomeEmitted    = "EMITTED"
)

// Suppression / skip reason codes surfaced in logs and metrics.
const (
	ReasonNoSignal           = "no_signal"
	ReasonHold               = "hold"
	ReasonDuplicateTimestamp = "duplicate_timestamp"
	ReasonDuplicateDirection = "duplicate_direction"
	ReasonMaxOpenTrades      = "max_open_trades"
	ReasonLowConfidence      = "low_confidence"
	ReasonInvalidLot         = "invalid_lot"
)

// RouteResult describes what a single router cycle did with the current
// signal, for logging and tests.
type RouteResult struct {
	Outcome  string  `json:"outcome"`
	Reason   string  `json:"reason,omitempty"`
	SignalTS string  `json:"signal_ts,omitempty"`
	Ticket   *Ticket `json:"ticket,omitempty"`
}
