package domain

import "time"

// PricePoint is one daily OHLCV bar for a symbol.
// Bars are unique per (symbol, date).
type PricePoint struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Group identifies which momentum bucket a screen result landed in.
type Group string

const (
	// GroupStrong holds survivors with MA slope in [0.5, 1.0) per bar.
	GroupStrong Group = "A"
	// GroupWatch holds survivors with MA slope below 0.5 per bar.
	GroupWatch Group = "B"
)

// ScreenResult is one symbol that passed every screening gate, tagged with
// its slope group.
type ScreenResult struct {
	Symbol        string  `json:"symbol"`
	Group         Group   `json:"group"`
	Close         float64 `json:"close"`
	MA            float64 `json:"ma"`
	Slope         float64 `json:"slope"`
	DistancePct   float64 `json:"distancePct"`
	MaxDistance   float64 `json:"maxDistance"`
	VolatilityPct float64 `json:"volatilityPct"`
	AvgMADistance float64 `json:"avgMaDistance"`
	IsLowestClose bool    `json:"isLowestClose"`
	Volume        float64 `json:"volume"`
}

// ReclaimEvent pairs one false breakdown with the first later close that
// recovered above the pre-breakdown box floor. A breakdown with no qualifying
// close within the lag window produces no event.
type ReclaimEvent struct {
	Symbol         string    `json:"symbol"`
	BreakdownDate  time.Time `json:"breakdownDate"`
	ReclaimDate    time.Time `json:"reclaimDate"`
	ReclaimLag     int       `json:"reclaimLag"`
	CloseAtReclaim float64   `json:"closeAtReclaim"`
	BoxLowRef      float64   `json:"boxLowRef"`
	ReclaimPct     float64   `json:"reclaimPct"`
}

// DataIssue reports a data-quality failure for one symbol, so callers can
// tell "no signal" apart from "bad input".
type DataIssue struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// Snapshot is the full output of one screening cycle.
type Snapshot struct {
	RunID       string         `json:"runId"`
	GeneratedAt time.Time      `json:"generatedAt"`
	DurationMs  int64          `json:"durationMs"`
	Symbols     int            `json:"symbols"`
	Picks       []ScreenResult `json:"picks"`
	Events      []ReclaimEvent `json:"events"`
	DataIssues  []DataIssue    `json:"dataIssues,omitempty"`
}
