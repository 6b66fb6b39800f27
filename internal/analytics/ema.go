package analytics

// EMA smooths values with alpha = 2/(window+1).
//
// The first non-nil value seeds the running average unchanged. A nil input
// yields nil and leaves the running average where it was, so a series that
// resumes after a gap continues from the pre-gap value instead of decaying or
// reseeding.
func EMA(values []*float64, window int) []*float64 {
	out := make([]*float64, len(values))
	if window < 1 {
		window = 1
	}
	alpha := 2.0 / float64(window+1)

	var prev *float64
	for i, v := range values {
		if v == nil {
			continue
		}
		if prev == nil {
			prev = Float(*v)
			out[i] = Float(*v)
			continue
		}
		sm := alpha*(*v) + (1-alpha)*(*prev)
		prev = Float(sm)
		out[i] = Float(sm)
	}
	return out
}
