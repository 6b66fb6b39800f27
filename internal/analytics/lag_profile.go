package analytics

// LagPoint scores one candidate lag.
type LagPoint struct {
	Lag         int     `json:"lag"`
	Correlation float64 `json:"correlation"`
	MDA         float64 `json:"mda"`
	Pairs       int     `json:"pairs"`
}

// LagProfile scores every lag in [0, maxLag] for the structural signal
// selected by p. The other fields of p are ignored except MinPairs.
func LagProfile(records []Record, p Params, maxLag int) []LagPoint {
	if maxLag < 0 {
		return nil
	}
	minPairs := p.MinPairs
	if minPairs <= 0 {
		minPairs = MinCorrelationPairs
	}

	prices := Prices(records)
	raw := Column(records, p.StructuralKey)
	out := make([]LagPoint, 0, maxLag+1)
	for lag := 0; lag <= maxLag; lag++ {
		shifted := Shift(raw, lag)
		corr, pairs := PearsonWithMin(shifted, prices, minPairs)
		out = append(out, LagPoint{
			Lag:         lag,
			Correlation: corr,
			MDA:         MeanDirectionalAccuracy(shifted, prices),
			Pairs:       pairs,
		})
	}
	return out
}

// BestLag returns the point with the highest correlation; ties keep the
// smaller lag. ok is false for an empty profile.
func BestLag(profile []LagPoint) (best LagPoint, ok bool) {
	for i, pt := range profile {
		if i == 0 || pt.Correlation > best.Correlation {
			best = pt
			ok = true
		}
	}
	return best, ok
}
