// Package features pins the feature contract shared with the training
// pipeline. The order below must stay byte-for-byte in sync with the order
// the model was trained against - positional scaler alignment depends on it.
package features

import "fmt"

const (
	EncoderLength = 60
	DecoderLength = 7

	// NumFeatures is the width of the continuous input tensor.
	NumFeatures = 52

	TargetFeature = "close"

	DefaultCloseValue  = 450.0
	DefaultScaleValue  = 1.0
	DefaultTargetScale = 10.0
)

// Order is the fixed 52-name feature order of the inference graph:
// 46 unknown time-varying, 3 known time-varying, 3 static.
var Order = buildOrder()

func buildOrder() []string {
	names := []string{"close", "open", "high", "low", "volume", "EMA"}
	for i := 0; i < 32; i++ {
		names = append(names, fmt.Sprintf("news_pca_%d", i))
	}
	names = append(names,
		"pdsi", "spi30d", "spi90d",
		"10Y_Yield", "USD_Index",
		"lambda_price", "lambda_news",
		"news_count",
		"time_idx", "day_of_year", "relative_time_idx",
		"encoder_length", "close_center", "close_scale",
	)
	return names
}

// timeFeatures are generated per position, never taken from the input series.
var timeFeatures = map[string]bool{
	"time_idx":          true,
	"day_of_year":       true,
	"relative_time_idx": true,
}

// staticFeatures hold the same value at every time step.
var staticFeatures = map[string]bool{
	"encoder_length": true,
	"close_center":   true,
	"close_scale":    true,
}

// LogTransformed features get log1p applied before normalization, and expm1
// applied to decoded model output. Matches the training pipeline exactly.
var LogTransformed = []string{"close", "open", "high", "low", "volume", "EMA"}

// Overridable is the set of features callers may pin to a constant for
// simulation runs.
var Overridable = map[string]bool{
	"10Y_Yield": true,
	"USD_Index": true,
	"pdsi":      true,
	"spi30d":    true,
	"spi90d":    true,
}

func IsTimeFeature(name string) bool {
	return timeFeatures[name]
}

func IsStaticFeature(name string) bool {
	return staticFeatures[name]
}

// IsKnown reports whether the feature's value is available for future
// (decoder) positions.
func IsKnown(name string) bool {
	return timeFeatures[name] || staticFeatures[name]
}

// ExcludedFromNormalization reports whether the feature skips normalization
// entirely (already normalized or fixed-range).
func ExcludedFromNormalization(name string) bool {
	return timeFeatures[name] || staticFeatures[name]
}

// NormalizationCandidates returns the 46 features that get normalized, in
// fixed order.
func NormalizationCandidates() []string {
	out := make([]string, 0, NumFeatures-6)
	for _, name := range Order {
		if ExcludedFromNormalization(name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// categories maps each input feature to the bucket used in attribution
// summaries.
var categories = buildCategories()

func buildCategories() map[string]string {
	m := map[string]string{
		"close": "Price", "open": "Price", "high": "Price", "low": "Price", "EMA": "Price",
		"volume":    "Liquidity",
		"10Y_Yield": "Macro", "USD_Index": "Macro",
		"pdsi": "Weather", "spi30d": "Weather", "spi90d": "Weather",
		"lambda_price": "Activity", "lambda_news": "Activity", "news_count": "Activity",
	}
	for i := 0; i < 10; i++ {
		m[fmt.Sprintf("news_pca_%d", i)] = "Sentiment"
	}
	for i := 10; i < 20; i++ {
		m[fmt.Sprintf("news_pca_%d", i)] = "Demand"
	}
	for i := 20; i < 32; i++ {
		m[fmt.Sprintf("news_pca_%d", i)] = "Quality"
	}
	return m
}

// CategoryOf returns the attribution category for a feature, or "Other" for
// names outside the schema.
func CategoryOf(name string) string {
	if c, ok := categories[name]; ok {
		return c
	}
	return "Other"
}
