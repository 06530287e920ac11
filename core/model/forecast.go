package model

import "time"

// ForecastPoint is one hour of predicted load. Lower and Upper bound the
// prediction interval; both are zero when no interval is available.
type ForecastPoint struct {
	Hour   int     `json:"hour"`
	LoadKW float64 `json:"load_kw"`
	Lower  float64 `json:"lower,omitempty"`
	Upper  float64 `json:"upper,omitempty"`
}

// FeatureImportance ranks one input feature of the winning model.
type FeatureImportance struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// FoldScore is the validation error of one candidate on one fold.
type FoldScore struct {
	Candidate string  `json:"candidate"`
	Fold      int     `json:"fold"`
	MAE       float64 `json:"mae"`
	RMSE      float64 `json:"rmse"`
}

// CandidateScore aggregates a candidate's cross-validation and holdout errors.
// Failed candidates carry the failure reason and no scores.
type CandidateScore struct {
	Candidate  string  `json:"candidate"`
	MeanMAE    float64 `json:"mean_mae"`
	MeanRMSE   float64 `json:"mean_rmse"`
	HoldoutMAE float64 `json:"holdout_mae"`
	Complexity int     `json:"complexity"`
	Tuned      bool    `json:"tuned,omitempty"`
	Failed     bool    `json:"failed,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

// ValidationSummary documents how the winning forecaster was chosen. It is
// immutable once computed and travels with the optimization result.
type ValidationSummary struct {
	Method              string           `json:"method"`
	Folds               int              `json:"folds"`
	FoldScores          []FoldScore      `json:"fold_scores"`
	Candidates          []CandidateScore `json:"candidates"`
	Winner              string           `json:"winner"`
	BaselineImprovement float64          `json:"baseline_improvement"`
}

// ModelInfo describes the trained forecaster attached to a result.
type ModelInfo struct {
	ModelType     string              `json:"model_type"`
	TrainSamples  int                 `json:"train_samples"`
	TrainedAt     time.Time           `json:"trained_at"`
	CoverageStart time.Time           `json:"coverage_start"`
	CoverageEnd   time.Time           `json:"coverage_end"`
	Validation    ValidationSummary   `json:"validation"`
	Importances   []FeatureImportance `json:"importances,omitempty"`
}
