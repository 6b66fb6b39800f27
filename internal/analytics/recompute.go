package analytics

import (
	"github.com/irfndi/liquidity-lens/internal/utils"
)

// Validate checks p against the contract of Recompute.
func (p Params) Validate() error {
	if p.StructuralKey == "" {
		return utils.NewFieldError("structural_key", "is required")
	}
	if p.MaxLag < 0 {
		return utils.NewFieldError("max_lag", "must be non-negative, got %d", p.MaxLag)
	}
	if p.Lag < 0 || p.Lag > p.MaxLag {
		return utils.NewFieldError("lag", "must be between 0 and %d, got %d", p.MaxLag, p.Lag)
	}
	if p.ClipBound <= 0 {
		return utils.NewFieldError("clip_bound", "must be positive, got %g", p.ClipBound)
	}
	if p.BlendEnabled {
		if p.TacticalKey == "" {
			return utils.NewFieldError("tactical_key", "is required when blending")
		}
		if p.Smoothing < 1 {
			return utils.NewFieldError("smoothing", "must be at least 1, got %d", p.Smoothing)
		}
		if p.BlendWeight < 0 || p.BlendWeight > 1 {
			return utils.NewFieldError("blend_weight", "must be within [0, 1], got %g", p.BlendWeight)
		}
	}
	return nil
}

// Recompute derives the chart-ready sequence, regime segments and summary
// statistics from records under p. It never mutates records.
func Recompute(records []Record, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	minPairs := p.MinPairs
	if minPairs <= 0 {
		minPairs = MinCorrelationPairs
	}

	prices := Prices(records)
	shifted := Shift(Column(records, p.StructuralKey), p.Lag)
	clipped := ClipSeries(shifted, p.ClipBound)
	matches := DirectionMatches(shifted, prices)

	var tactical, smoothed, blended []*float64
	if p.BlendEnabled {
		tactical = Column(records, p.TacticalKey)
		smoothed = EMA(tactical, p.Smoothing)
		blended = BlendSeries(shifted, smoothed, p.BlendWeight)
	}

	derived := make([]DerivedRecord, len(records))
	for i, r := range records {
		d := DerivedRecord{
			Date:     r.Date,
			LogPrice: r.LogPrice,
			Shifted:  shifted[i],
			Clipped:  clipped[i],
			Match:    matches[i],
		}
		if p.BlendEnabled {
			d.Tactical = tactical[i]
			d.Smoothed = smoothed[i]
			d.Blended = blended[i]
		}
		derived[i] = d
	}

	corr, pairs := PearsonWithMin(shifted, prices, minPairs)
	mda, hits, eligible := MDA(matches)

	return &Result{
		Params:       p,
		Records:      derived,
		Regimes:      Regimes(clipped),
		MatchRegions: MatchRegions(matches),
		Summary: SummaryStats{
			Correlation:         corr,
			PairedObservations:  pairs,
			MDA:                 mda,
			EligibleComparisons: eligible,
			Matches:             hits,
		},
	}, nil
}
