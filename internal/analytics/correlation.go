package analytics

import "math"

// MinCorrelationPairs is the smallest paired sample Pearson will score.
const MinCorrelationPairs = 5

// Pairs filters x and y down to the indices where both are present.
func Pairs(x, y []*float64) ([]float64, []float64) {
	n := min(len(x), len(y))
	px := make([]float64, 0, n)
	py := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if x[i] == nil || y[i] == nil {
			continue
		}
		px = append(px, *x[i])
		py = append(py, *y[i])
	}
	return px, py
}

// Pearson returns the sample correlation of x and y over their non-nil
// overlap. Fewer than MinCorrelationPairs pairs, or a constant side, yield 0.
func Pearson(x, y []*float64) float64 {
	r, _ := PearsonWithMin(x, y, MinCorrelationPairs)
	return r
}

// PearsonWithMin is Pearson with a configurable minimum pair count. It also
// reports how many pairs were used.
func PearsonWithMin(x, y []*float64, minPairs int) (float64, int) {
	px, py := Pairs(x, y)
	n := len(px)
	if n < minPairs || n == 0 {
		return 0, n
	}
	return correlation(px, py), n
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func correlation(x, y []float64) float64 {
	meanX := mean(x)
	meanY := mean(y)

	var numerator, denomX, denomY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		numerator += dx * dy
		denomX += dx * dx
		denomY += dy * dy
	}
	if denomX == 0 || denomY == 0 {
		return 0
	}

	corr := numerator / math.Sqrt(denomX*denomY)
	// rounding can push a perfect fit just past the bounds
	if corr > 1 {
		return 1
	}
	if corr < -1 {
		return -1
	}
	return corr
}
