package analytics

// RegimeLabel classifies a value: bull for >= 0, bear for < 0.
func RegimeLabel(v float64) string {
	if v >= 0 {
		return RegimeBull
	}
	return RegimeBear
}

// Regimes splits values into contiguous same-sign segments.
//
// Nil values are skipped: they neither open nor close a segment, and the next
// present value is compared against the last established sign. A segment ends
// one index before its successor starts, and the final segment always ends at
// the last index, so the segments cover [first non-nil, len-1] exactly once.
func Regimes(values []*float64) []RegimeSegment {
	var out []RegimeSegment
	start := -1
	label := ""
	for i, v := range values {
		if v == nil {
			continue
		}
		cur := RegimeLabel(*v)
		if cur == label {
			continue
		}
		if start >= 0 {
			out = append(out, RegimeSegment{Start: start, End: i - 1, Label: label})
		}
		start = i
		label = cur
	}
	if start >= 0 {
		out = append(out, RegimeSegment{Start: start, End: len(values) - 1, Label: label})
	}
	return out
}

// MatchRegions splits direction-match flags into contiguous runs, with the
// same nil handling as Regimes.
func MatchRegions(flags []*bool) []MatchSegment {
	var out []MatchSegment
	start := -1
	var cur bool
	for i, f := range flags {
		if f == nil {
			continue
		}
		if start >= 0 && *f == cur {
			continue
		}
		if start >= 0 {
			out = append(out, MatchSegment{Start: start, End: i - 1, Match: cur})
		}
		start = i
		cur = *f
	}
	if start >= 0 {
		out = append(out, MatchSegment{Start: start, End: len(flags) - 1, Match: cur})
	}
	return out
}
