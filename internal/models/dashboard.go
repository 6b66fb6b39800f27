package models

import "encoding/json"

// WalkForwardWindow is one precomputed out-of-sample window.
type WalkForwardWindow struct {
	Window      int     `json:"window"`
	TrainRange  string  `json:"train_range"`
	TestRange   string  `json:"test_range"`
	Correlation float64 `json:"correlation"`
}

// WalkForward is the precomputed walk-forward validation table.
type WalkForward struct {
	NWindows    int                 `json:"n_windows"`
	MeanOOSCorr float64             `json:"mean_oos_corr"`
	Windows     []WalkForwardWindow `json:"windows"`
}

// XCorrPoint is one precomputed in-sample cross-correlation cell.
type XCorrPoint struct {
	Lag int     `json:"lag"`
	R   float64 `json:"r"`
}

// MetaV1 describes the v1 heuristic model.
type MetaV1 struct {
	OptimalLag  int     `json:"optimal_lag"`
	Correlation float64 `json:"correlation"`
}

// MetaV2 describes the v2 PCA index.
type MetaV2 struct {
	Method            string             `json:"method"`
	NObservations     int                `json:"n_observations"`
	ExplainedVariance float64            `json:"explained_variance"`
	OptimalLag        int                `json:"optimal_lag"`
	BestCWS           float64            `json:"best_cws"`
	AllPositive       bool               `json:"all_positive"`
	Loadings          map[string]float64 `json:"loadings"`
	Granger           json.RawMessage    `json:"granger,omitempty"`
}

// Criterion is one v2 success criterion. Target and Actual are either
// numbers or booleans depending on the criterion.
type Criterion struct {
	Target interface{} `json:"target"`
	Actual interface{} `json:"actual"`
	Pass   bool        `json:"pass"`
}

// BundleV1 is the on-disk v1 dataset.
type BundleV1 struct {
	XCorr       []XCorrPoint       `json:"xcorr"`
	WalkForward WalkForward        `json:"walk_forward"`
	Weights     map[string]float64 `json:"weights"`
	Meta        MetaV1             `json:"meta"`
}

// BundleV2 is the on-disk v2 dataset. Display-only tables stay raw and are
// passed through untouched.
type BundleV2 struct {
	Methods    json.RawMessage      `json:"methods"`
	XCorr      json.RawMessage      `json:"xcorr_v2"`
	CWSProfile json.RawMessage      `json:"cws_profile"`
	Bootstrap  json.RawMessage      `json:"bootstrap"`
	CPCV       json.RawMessage      `json:"cpcv"`
	Success    map[string]Criterion `json:"success"`
	Meta       MetaV2               `json:"meta_v2"`
}
