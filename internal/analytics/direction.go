package analytics

// DirectionMatches flags, for each index, whether the month-over-month change
// of signal has the same sign as that of price (both >= 0 or both < 0).
// The flag is nil at index 0 and wherever any of the four values is absent.
func DirectionMatches(signal, price []*float64) []*bool {
	n := min(len(signal), len(price))
	out := make([]*bool, n)
	for i := 1; i < n; i++ {
		if signal[i] == nil || signal[i-1] == nil || price[i] == nil || price[i-1] == nil {
			continue
		}
		dPrice := *price[i] - *price[i-1]
		dSignal := *signal[i] - *signal[i-1]
		match := (dPrice >= 0 && dSignal >= 0) || (dPrice < 0 && dSignal < 0)
		out[i] = &match
	}
	return out
}

// MDA returns the mean directional accuracy of the flags along with the match
// and eligible counts. No eligible comparisons yield 0.
func MDA(flags []*bool) (float64, int, int) {
	matches, eligible := 0, 0
	for _, f := range flags {
		if f == nil {
			continue
		}
		eligible++
		if *f {
			matches++
		}
	}
	if eligible == 0 {
		return 0, 0, 0
	}
	return float64(matches) / float64(eligible), matches, eligible
}

// MeanDirectionalAccuracy is MDA over DirectionMatches(signal, price).
func MeanDirectionalAccuracy(signal, price []*float64) float64 {
	mda, _, _ := MDA(DirectionMatches(signal, price))
	return mda
}
