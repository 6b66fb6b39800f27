package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/irfndi/liquidity-lens/internal/analytics"
	"github.com/irfndi/liquidity-lens/internal/cache"
	"github.com/irfndi/liquidity-lens/internal/config"
	"github.com/irfndi/liquidity-lens/internal/dataset"
	"github.com/irfndi/liquidity-lens/internal/models"
	"github.com/irfndi/liquidity-lens/internal/telemetry"
	"github.com/irfndi/liquidity-lens/internal/utils"
)

// ErrNotSupported is returned when a version has no such table (e.g. walk-forward on v2).
var ErrNotSupported = errors.New("not available for this dashboard version")

// SeriesRequest is the caller-owned parameter state. Nil fields take dataset defaults.
type SeriesRequest struct {
	Lag       *int
	Smoothing *int
	Blend     bool
}

// SeriesResponse is one recompute plus where it came from.
type SeriesResponse struct {
	Version     string `json:"version"`
	Fingerprint string `json:"fingerprint"`
	Cached      bool   `json:"cached"`
	*analytics.Result
}

// SignalLabel pairs a signal key with its display label.
type SignalLabel struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// DashboardSummary describes one loaded dataset version.
type DashboardSummary struct {
	Version       string        `json:"version"`
	Title         string        `json:"title"`
	Records       int           `json:"records"`
	FirstDate     string        `json:"first_date"`
	LastDate      string        `json:"last_date"`
	DefaultLag    int           `json:"default_lag"`
	MaxLag        int           `json:"max_lag"`
	SupportsBlend bool          `json:"supports_blend"`
	Signals       []SignalLabel `json:"signals"`
	RegimeLabels  []string      `json:"regime_labels"`
}

// LagProfileResponse is the live cross-correlation sweep.
type LagProfileResponse struct {
	Version string               `json:"version"`
	Points  []analytics.LagPoint `json:"points"`
	Best    *analytics.LagPoint  `json:"best"`
}

// WalkForwardSummary decorates the precomputed walk-forward table.
type WalkForwardSummary struct {
	NWindows    int                        `json:"n_windows"`
	MeanOOSCorr float64                    `json:"mean_oos_corr"`
	StdDev      float64                    `json:"std_dev"`
	Positive    int                        `json:"positive_windows"`
	Cumulative  []analytics.OOSPoint       `json:"cumulative"`
	Rolling     []float64                  `json:"rolling_mean"`
	Windows     []models.WalkForwardWindow `json:"windows"`
}

// CriteriaResponse summarizes the v2 success criteria.
type CriteriaResponse struct {
	Passed    int                         `json:"passed"`
	Total     int                         `json:"total"`
	PassRate  float64                     `json:"pass_rate"`
	AllPassed bool                        `json:"all_passed"`
	Criteria  map[string]models.Criterion `json:"criteria"`
}

// DashboardService orchestrates dataset lookup, memoization and recompute.
type DashboardService struct {
	store     *dataset.Store
	memo      cache.RecomputeCache
	analytics *CacheAnalyticsService
	tracer    *telemetry.DashboardTracer
	settings  config.AnalyticsConfig
	logger    *logrus.Logger
}

// NewDashboardService creates the service. memo may be nil to disable memoization.
func NewDashboardService(
	store *dataset.Store,
	memo cache.RecomputeCache,
	cacheAnalytics *CacheAnalyticsService,
	settings config.AnalyticsConfig,
	logger *logrus.Logger,
) *DashboardService {
	if logger == nil {
		logger = logrus.New()
	}
	if cacheAnalytics == nil {
		cacheAnalytics = NewCacheAnalyticsService(nil, logger)
	}
	return &DashboardService{
		store:     store,
		memo:      memo,
		analytics: cacheAnalytics,
		tracer:    telemetry.NewDashboardTracer(),
		settings:  settings,
		logger:    logger,
	}
}

// ListDashboards describes every loaded version.
func (s *DashboardService) ListDashboards() []DashboardSummary {
	versions := s.store.Versions()
	out := make([]DashboardSummary, 0, len(versions))
	for _, v := range versions {
		ds, err := s.store.Get(v)
		if err != nil {
			continue
		}
		signals := ds.Signals()
		labels := make([]SignalLabel, len(signals))
		for i, key := range signals {
			labels[i] = SignalLabel{Key: key, Label: s.label(key)}
		}
		out = append(out, DashboardSummary{
			Version:       ds.Version,
			Title:         s.title(ds),
			Records:       len(ds.Records),
			FirstDate:     ds.FirstDate(),
			LastDate:      ds.LastDate(),
			DefaultLag:    ds.DefaultLag,
			MaxLag:        ds.MaxLag,
			SupportsBlend: ds.SupportsBlend(),
			Signals:       labels,
			RegimeLabels:  []string{s.label(analytics.RegimeBull), s.label(analytics.RegimeBear)},
		})
	}
	return out
}

// Params resolves a request against a dataset's defaults without validating it.
func (s *DashboardService) Params(ds *dataset.Dataset, req SeriesRequest) analytics.Params {
	p := analytics.Params{
		Lag:           ds.DefaultLag,
		MaxLag:        ds.MaxLag,
		Smoothing:     s.settings.DefaultSmoothing,
		BlendEnabled:  req.Blend,
		BlendWeight:   s.settings.BlendWeight,
		ClipBound:     s.settings.ClipBound,
		MinPairs:      s.settings.MinPairs,
		StructuralKey: ds.StructuralKey,
	}
	if req.Lag != nil {
		p.Lag = *req.Lag
	}
	if req.Smoothing != nil {
		p.Smoothing = *req.Smoothing
	}
	if req.Blend {
		p.TacticalKey = ds.TacticalKey
	}
	return p
}

// Series recomputes the chart-ready series for version, memoizing by dataset fingerprint and parameters.
func (s *DashboardService) Series(ctx context.Context, version string, req SeriesRequest) (*SeriesResponse, error) {
	ds, err := s.store.Get(version)
	if err != nil {
		return nil, err
	}
	if req.Blend && !ds.SupportsBlend() {
		return nil, utils.NewFieldError("blend", "dashboard %s has no tactical band", version)
	}

	p := s.Params(ds, req)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.TraceRecompute(ctx, version, p.Lag, p.Smoothing, p.BlendEnabled)
	defer span.End()

	key := cache.SeriesKey(version, ds.Fingerprint, p)
	if s.memo != nil {
		var cached analytics.Result
		if s.memo.Get(ctx, key, &cached) {
			s.analytics.RecordHit(CategorySeries)
			s.tracer.RecordRecompute(span, outcome(&cached, true))
			return &SeriesResponse{Version: version, Fingerprint: ds.Fingerprint, Cached: true, Result: &cached}, nil
		}
		s.analytics.RecordMiss(CategorySeries)
	}

	start := time.Now()
	res, err := analytics.Recompute(ds.Records, p)
	if err != nil {
		s.tracer.RecordFailure(span, err)
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"version":     version,
		"lag":         p.Lag,
		"smoothing":   p.Smoothing,
		"blend":       p.BlendEnabled,
		"duration_us": time.Since(start).Microseconds(),
	}).Debug("Recomputed series")

	if s.memo != nil {
		s.memo.Set(ctx, key, res)
	}
	s.tracer.RecordRecompute(span, outcome(res, false))

	return &SeriesResponse{Version: version, Fingerprint: ds.Fingerprint, Result: res}, nil
}

// LagProfile sweeps every lag from 0 to the version's maximum.
func (s *DashboardService) LagProfile(ctx context.Context, version string) (*LagProfileResponse, error) {
	ds, err := s.store.Get(version)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.TraceLagProfile(ctx, version, ds.MaxLag)
	defer span.End()

	key := cache.LagProfileKey(version, ds.Fingerprint, ds.MaxLag, s.settings.MinPairs)
	var points []analytics.LagPoint
	hit := s.memo != nil && s.memo.Get(ctx, key, &points)
	if s.memo != nil {
		if hit {
			s.analytics.RecordHit(CategoryLagProfile)
		} else {
			s.analytics.RecordMiss(CategoryLagProfile)
		}
	}

	if !hit {
		points = analytics.LagProfile(ds.Records, s.Params(ds, SeriesRequest{}), ds.MaxLag)
		if s.memo != nil {
			s.memo.Set(ctx, key, points)
		}
	}

	resp := &LagProfileResponse{Version: version, Points: make([]analytics.LagPoint, len(points))}
	for i, pt := range points {
		pt.Correlation = Round4(pt.Correlation)
		pt.MDA = Round4(pt.MDA)
		resp.Points[i] = pt
	}
	if best, ok := analytics.BestLag(points); ok {
		best.Correlation = Round4(best.Correlation)
		best.MDA = Round4(best.MDA)
		resp.Best = &best
	}
	return resp, nil
}

// Tables returns the precomputed tables of version untouched.
func (s *DashboardService) Tables(version string) (map[string]json.RawMessage, error) {
	ds, err := s.store.Get(version)
	if err != nil {
		return nil, err
	}
	return ds.Tables, nil
}

// WalkForward summarizes the v1 walk-forward table for display.
func (s *DashboardService) WalkForward(version string) (*WalkForwardSummary, error) {
	ds, err := s.store.Get(version)
	if err != nil {
		return nil, err
	}
	if ds.V1 == nil {
		return nil, fmt.Errorf("walk-forward: %w", ErrNotSupported)
	}

	wf := ds.V1.WalkForward
	summary := &WalkForwardSummary{
		NWindows:    wf.NWindows,
		MeanOOSCorr: Round4(wf.MeanOOSCorr),
		StdDev:      Round4(analytics.WindowStdDev(wf.Windows, wf.MeanOOSCorr)),
		Windows:     wf.Windows,
	}
	for _, w := range wf.Windows {
		if w.Correlation > 0 {
			summary.Positive++
		}
	}

	cumulative := analytics.CumulativeOOS(wf.Windows, ds.Records)
	for i := range cumulative {
		cumulative[i].CumAvgCorr = Round4(cumulative[i].CumAvgCorr)
		cumulative[i].PriceReturn = Round4(cumulative[i].PriceReturn)
	}
	summary.Cumulative = cumulative

	for _, v := range analytics.RollingCorrelationMean(wf.Windows, s.settings.RollingPeriod) {
		summary.Rolling = append(summary.Rolling, Round4(v))
	}
	return summary, nil
}

// Criteria summarizes the v2 success criteria.
func (s *DashboardService) Criteria(version string) (*CriteriaResponse, error) {
	ds, err := s.store.Get(version)
	if err != nil {
		return nil, err
	}
	if ds.V2 == nil {
		return nil, fmt.Errorf("criteria: %w", ErrNotSupported)
	}

	passed, total := analytics.CriteriaSummary(ds.V2.Success)
	resp := &CriteriaResponse{
		Passed:    passed,
		Total:     total,
		AllPassed: total > 0 && passed == total,
		Criteria:  ds.V2.Success,
	}
	if total > 0 {
		resp.PassRate = Round4(float64(passed) / float64(total))
	}
	return resp, nil
}

// ClearCache purges the recompute memo.
func (s *DashboardService) ClearCache(ctx context.Context) (int, error) {
	if s.memo == nil {
		return 0, nil
	}
	n, err := s.memo.Clear(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to clear recompute memo")
		return 0, err
	}
	s.analytics.ResetStats()
	return n, nil
}

// CacheMetrics returns memo hit statistics.
func (s *DashboardService) CacheMetrics(ctx context.Context) (*CacheMetrics, error) {
	return s.analytics.GetMetrics(ctx)
}

// CachePing reports redis reachability; nil memo reports nil.
func (s *DashboardService) CachePing(ctx context.Context) (enabled bool, err error) {
	if s.memo == nil {
		return false, nil
	}
	return true, s.memo.Ping(ctx)
}

// Versions lists loaded dataset versions.
func (s *DashboardService) Versions() []string {
	return s.store.Versions()
}

// Round4 rounds a display number to four decimal places.
func Round4(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(4).Float64()
	return f
}

// label title-cases a key for display. Casers are stateful, so one is built per call.
func (s *DashboardService) label(key string) string {
	return cases.Title(language.English, cases.NoLower).String(strings.ReplaceAll(key, "_", " "))
}

func (s *DashboardService) title(ds *dataset.Dataset) string {
	switch {
	case ds.V2 != nil && ds.V2.Meta.Method != "":
		return fmt.Sprintf("%s structural/tactical index", ds.V2.Meta.Method)
	case ds.V1 != nil:
		return "Weighted liquidity score"
	default:
		return strings.ToUpper(ds.Version)
	}
}

func outcome(res *analytics.Result, hit bool) telemetry.RecomputeOutcome {
	return telemetry.RecomputeOutcome{
		CacheHit:    hit,
		Records:     len(res.Records),
		Regimes:     len(res.Regimes),
		Correlation: res.Summary.Correlation,
		MDA:         res.Summary.MDA,
	}
}
