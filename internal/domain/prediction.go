package domain

import "time"

// DailyPrediction is one horizon day of the forecast, on the original price
// scale.
type DailyPrediction struct {
	Date      time.Time `json:"date"`
	Price     float64   `json:"price"`
	ConfLower float64   `json:"confLower"`
	ConfUpper float64   `json:"confUpper"`
}

// FactorImpact is one entry of the ranked top-K factor list. Ratio is the
// factor's share of the summed top-K impact magnitude.
type FactorImpact struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Impact   float64 `json:"impact"`
	Ratio    float64 `json:"ratio"`
}

// CategoryImpact aggregates factor impact by category. Ratio is the
// category's share of the total across all categories present.
type CategoryImpact struct {
	Category  string  `json:"category"`
	ImpactSum float64 `json:"impactSum"`
	Ratio     float64 `json:"ratio"`
}

type PredictionResult struct {
	Commodity     string              `json:"commodity"`
	BundleVersion string              `json:"bundleVersion"`
	Method        NormalizationMethod `json:"normalizationMethod"`
	Predictions   []DailyPrediction   `json:"predictions"`
	TopFactors    []FactorImpact      `json:"topFactors"`
	Categories    []CategoryImpact    `json:"categorySummary"`
}
