package analytics

import (
	"math"
	"strconv"
	"strings"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"

	"github.com/irfndi/liquidity-lens/internal/models"
)

// OOSPoint is the cumulative out-of-sample view of one walk-forward window.
type OOSPoint struct {
	Name        string  `json:"name"`
	TestRange   string  `json:"test_range"`
	CumAvgCorr  float64 `json:"cum_avg_corr"`
	WindowCorr  float64 `json:"window_corr"`
	PriceReturn float64 `json:"price_return"`
}

// priceReturnScale stretches a log10 price change onto the correlation axis.
const priceReturnScale = 10

// WindowStdDev is the population standard deviation of the window
// correlations around the precomputed mean.
func WindowStdDev(windows []models.WalkForwardWindow, mean float64) float64 {
	if len(windows) == 0 {
		return 0
	}
	var sumSquares float64
	for _, w := range windows {
		d := w.Correlation - mean
		sumSquares += d * d
	}
	return math.Sqrt(sumSquares / float64(len(windows)))
}

// CumulativeOOS returns the running mean correlation per window and the log
// price change across each window's test range. The change is 0 when either
// endpoint month is missing from records.
func CumulativeOOS(windows []models.WalkForwardWindow, records []Record) []OOSPoint {
	byDate := make(map[string]*float64, len(records))
	for _, r := range records {
		byDate[r.Date] = r.LogPrice
	}

	out := make([]OOSPoint, 0, len(windows))
	var sumCorr float64
	for i, w := range windows {
		sumCorr += w.Correlation
		var ret float64
		if start, end, ok := splitRange(w.TestRange); ok {
			sp, sok := byDate[start]
			ep, eok := byDate[end]
			if sok && eok && sp != nil && ep != nil {
				ret = (*ep - *sp) * priceReturnScale
			}
		}
		out = append(out, OOSPoint{
			Name:        windowName(w.Window),
			TestRange:   w.TestRange,
			CumAvgCorr:  sumCorr / float64(i+1),
			WindowCorr:  w.Correlation,
			PriceReturn: ret,
		})
	}
	return out
}

// RollingCorrelationMean is the trailing simple moving average of window
// correlations. Index i of the result lines up with windows[i+period-1].
func RollingCorrelationMean(windows []models.WalkForwardWindow, period int) []float64 {
	if period < 1 || len(windows) < period {
		return nil
	}
	corrs := make([]float64, len(windows))
	for i, w := range windows {
		corrs[i] = w.Correlation
	}
	sma := trend.NewSmaWithPeriod[float64](period)
	return helper.ChanToSlice(sma.Compute(helper.SliceToChan(corrs)))
}

// CriteriaSummary counts passed criteria.
func CriteriaSummary(criteria map[string]models.Criterion) (passed, total int) {
	for _, c := range criteria {
		if c.Pass {
			passed++
		}
	}
	return passed, len(criteria)
}

func splitRange(r string) (string, string, bool) {
	start, end, ok := strings.Cut(r, " ~ ")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(start), strings.TrimSpace(end), true
}

func windowName(n int) string {
	return "W" + strconv.Itoa(n)
}
