package analytics

// DefaultClipBound is the symmetric display range applied to shifted signals.
const DefaultClipBound = 3.0

// Column extracts one signal as a nullable slice aligned to records.
func Column(records []Record, key string) []*float64 {
	out := make([]*float64, len(records))
	for i, r := range records {
		out[i] = r.Signal(key)
	}
	return out
}

// Prices extracts the log-price column.
func Prices(records []Record) []*float64 {
	out := make([]*float64, len(records))
	for i, r := range records {
		out[i] = r.LogPrice
	}
	return out
}

// Shift returns values moved forward by lag periods: out[i] = values[i-lag],
// nil where i-lag falls outside the slice. A negative lag is treated as zero.
func Shift(values []*float64, lag int) []*float64 {
	if lag < 0 {
		lag = 0
	}
	out := make([]*float64, len(values))
	for i := range values {
		si := i - lag
		if si >= 0 && si < len(values) && values[si] != nil {
			out[i] = Float(*values[si])
		}
	}
	return out
}

// Clip clamps v into [-bound, bound]. Nil stays nil.
func Clip(v *float64, bound float64) *float64 {
	if v == nil {
		return nil
	}
	return Float(max(-bound, min(bound, *v)))
}

// ClipSeries applies Clip to every value.
func ClipSeries(values []*float64, bound float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		out[i] = Clip(v, bound)
	}
	return out
}
