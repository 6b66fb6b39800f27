package analytics

// DefaultBlendWeight is the structural share of the combined indicator.
const DefaultBlendWeight = 0.7

// Blend returns weight*structural + (1-weight)*tactical, or nil when either
// side is nil. A missing side is never renormalized away.
func Blend(structural, tactical *float64, weight float64) *float64 {
	if structural == nil || tactical == nil {
		return nil
	}
	return Float(weight*(*structural) + (1-weight)*(*tactical))
}

// BlendSeries applies Blend index by index. Both slices must be aligned;
// indices beyond the shorter slice are nil.
func BlendSeries(structural, tactical []*float64, weight float64) []*float64 {
	out := make([]*float64, len(structural))
	for i := range structural {
		if i >= len(tactical) {
			break
		}
		out[i] = Blend(structural[i], tactical[i], weight)
	}
	return out
}
