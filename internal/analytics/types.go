// Package analytics recomputes chart-ready series from an immutable monthly
// time series and a caller-owned parameter state.
//
// Every function in this package is pure: nothing is cached, logged or
// mutated across calls, so results may be memoized by the caller keyed on
// the parameters and the identity of the input series.
package analytics

// Signal keys used by the bundled dashboards.
const (
	KeyScore      = "score"
	KeyStructural = "structural"
	KeyTactical   = "tactical"
)

// Regime labels.
const (
	RegimeBull = "bull"
	RegimeBear = "bear"
)

// Record is one calendar month of input. Nil pointers mark absent values.
type Record struct {
	Date     string              `json:"date"`
	LogPrice *float64            `json:"log_btc"`
	Signals  map[string]*float64 `json:"signals"`
}

// Signal returns the named signal value or nil.
func (r Record) Signal(key string) *float64 {
	if r.Signals == nil {
		return nil
	}
	return r.Signals[key]
}

// Params is the user-controlled parameter state. It is passed by value.
type Params struct {
	Lag           int     `json:"lag"`
	MaxLag        int     `json:"max_lag"`
	Smoothing     int     `json:"smoothing"`
	BlendEnabled  bool    `json:"blend_enabled"`
	BlendWeight   float64 `json:"blend_weight"`
	ClipBound     float64 `json:"clip_bound"`
	MinPairs      int     `json:"min_pairs"`
	StructuralKey string  `json:"structural_key"`
	TacticalKey   string  `json:"tactical_key,omitempty"`
}

// DefaultParams returns the dashboard defaults for a structural signal key.
func DefaultParams(structuralKey string) Params {
	return Params{
		Lag:           0,
		MaxLag:        15,
		Smoothing:     6,
		BlendWeight:   DefaultBlendWeight,
		ClipBound:     DefaultClipBound,
		MinPairs:      MinCorrelationPairs,
		StructuralKey: structuralKey,
	}
}

// DerivedRecord is one chart-ready month.
// Shifted feeds every statistic; Clipped is for display scaling only.
type DerivedRecord struct {
	Date     string   `json:"date"`
	LogPrice *float64 `json:"log_btc"`
	Shifted  *float64 `json:"shifted"`
	Clipped  *float64 `json:"clipped"`
	Tactical *float64 `json:"tactical,omitempty"`
	Smoothed *float64 `json:"smoothed,omitempty"`
	Blended  *float64 `json:"blended,omitempty"`
	Match    *bool    `json:"match"`
}

// RegimeSegment is a maximal run of months sharing the sign of the derived signal.
// End is inclusive.
type RegimeSegment struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
}

// MatchSegment is a maximal run of months sharing the same direction-match flag.
type MatchSegment struct {
	Start int  `json:"start"`
	End   int  `json:"end"`
	Match bool `json:"match"`
}

// SummaryStats holds the scalar statistics of one recompute.
type SummaryStats struct {
	Correlation         float64 `json:"correlation"`
	PairedObservations  int     `json:"paired_observations"`
	MDA                 float64 `json:"mda"`
	EligibleComparisons int     `json:"eligible_comparisons"`
	Matches             int     `json:"matches"`
}

// Result is the full output of Recompute.
type Result struct {
	Params       Params          `json:"params"`
	Records      []DerivedRecord `json:"records"`
	Regimes      []RegimeSegment `json:"regimes"`
	MatchRegions []MatchSegment  `json:"match_regions"`
	Summary      SummaryStats    `json:"summary"`
}

// Float returns a pointer to v. Handy for building nullable series.
func Float(v float64) *float64 {
	return &v
}
