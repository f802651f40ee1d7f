package calculator

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"cropcast/internal/domain"
	"cropcast/internal/features"
)

// Assemble applies the resolved profile's forward transform to the
// normalization candidates, passes the excluded features through, and lays
// everything out in the fixed feature order split into encoder and decoder
// segments. The most recent EncoderLength observations of each feature form
// the encoder window.
//
// A missing required feature fails with MissingFeatureError - values are
// never silently zero-filled.
func Assemble(series domain.FeatureSeries, profile domain.NormalizationProfile, groupID string) (*domain.FeatureVector, error) {
	window, err := encoderWindow(series)
	if err != nil {
		return nil, err
	}

	// log1p on price/volume columns before normalization, matching training
	for _, name := range features.LogTransformed {
		values := window[name]
		transformed := make([]float64, len(values))
		for i, v := range values {
			transformed[i] = math.Log1p(v)
		}
		window[name] = transformed
	}

	normalized := normalizeWindow(window, profile, groupID)

	baseDate := series.BaseDate
	if baseDate.IsZero() {
		baseDate = time.Now()
	}

	encoder := make([][]float64, features.EncoderLength)
	for i := 0; i < features.EncoderLength; i++ {
		encoder[i] = featureRow(normalized, baseDate, i, true)
	}
	decoder := make([][]float64, features.DecoderLength)
	for i := 0; i < features.DecoderLength; i++ {
		decoder[i] = featureRow(normalized, baseDate, features.EncoderLength+i, false)
	}

	center, scale := targetScale(window, profile)

	return &domain.FeatureVector{
		Encoder:      encoder,
		Decoder:      decoder,
		TargetCenter: center,
		TargetScale:  scale,
	}, nil
}

// encoderWindow validates the input series and slices each required feature
// down to its most recent EncoderLength values.
func encoderWindow(series domain.FeatureSeries) (map[string][]float64, error) {
	window := make(map[string][]float64, len(features.Order))

	for _, name := range features.Order {
		// time and static features are derived per position, not supplied
		if features.IsKnown(name) {
			continue
		}
		values, ok := series.Values[name]
		if !ok || len(values) < features.EncoderLength {
			return nil, domain.MissingFeatureError{FeatureName: name}
		}
		src := values[len(values)-features.EncoderLength:]
		dst := make([]float64, features.EncoderLength)
		copy(dst, src)
		window[name] = dst
	}

	return window, nil
}

func normalizeWindow(window map[string][]float64, profile domain.NormalizationProfile, groupID string) map[string][]float64 {
	normalized := make(map[string][]float64, len(window))

	for name, values := range window {
		if features.ExcludedFromNormalization(name) {
			normalized[name] = values
			continue
		}

		if profile.Method == domain.MethodGroupNormalizer && name == features.TargetFeature {
			out := make([]float64, len(values))
			for i, v := range values {
				out[i] = GroupForward(v, *profile.Group, groupID)
			}
			normalized[name] = out
			continue
		}

		if s, ok := profile.PerFeature[name]; ok {
			out := make([]float64, len(values))
			for i, v := range values {
				out[i] = ZScore(v, s)
			}
			normalized[name] = out
			continue
		}

		// no stats for this feature - passthrough
		normalized[name] = values
	}

	return normalized
}

// featureRow builds the 52-wide vector for one time step.
func featureRow(normalized map[string][]float64, baseDate time.Time, timeIdx int, isEncoder bool) []float64 {
	row := make([]float64, 0, features.NumFeatures)
	for _, name := range features.Order {
		row = append(row, featureValue(normalized, name, baseDate, timeIdx, isEncoder))
	}
	return row
}

func featureValue(normalized map[string][]float64, name string, baseDate time.Time, timeIdx int, isEncoder bool) float64 {
	switch name {
	case "encoder_length":
		return float64(features.EncoderLength)
	case "close_scale":
		return features.DefaultScaleValue
	case "close_center":
		if closeVals, ok := normalized[features.TargetFeature]; ok && timeIdx < len(closeVals) {
			return closeVals[timeIdx]
		}
		return features.DefaultCloseValue
	case "time_idx":
		return float64(timeIdx)
	case "day_of_year":
		return dayOfYear(baseDate, timeIdx, isEncoder)
	case "relative_time_idx":
		return float64(timeIdx) / float64(features.EncoderLength+features.DecoderLength)
	}

	// unknown time-varying features have no future values
	if !isEncoder && !features.IsKnown(name) {
		return 0.0
	}

	if values, ok := normalized[name]; ok && timeIdx < len(values) {
		return values[timeIdx]
	}
	return 0.0
}

func dayOfYear(baseDate time.Time, timeIdx int, isEncoder bool) float64 {
	var target time.Time
	if isEncoder {
		daysAgo := features.EncoderLength - timeIdx
		target = baseDate.AddDate(0, 0, -daysAgo)
	} else {
		daysAhead := timeIdx - features.EncoderLength
		target = baseDate.AddDate(0, 0, daysAhead)
	}
	return float64(target.YearDay())
}

// targetScale derives the graph's target_scale input. The group tier and the
// dynamic tier compute it from the (log-transformed, pre-normalization)
// close window; the scaler tier reuses the trained close stats.
func targetScale(window map[string][]float64, profile domain.NormalizationProfile) (center float64, scale float64) {
	closeVals, hasClose := window[features.TargetFeature]

	if profile.Method == domain.MethodStandardScaler {
		if s, ok := profile.PerFeature[features.TargetFeature]; ok {
			return s.Mean, s.Std
		}
	}

	if hasClose && len(closeVals) > 0 {
		mean, _ := stats.Mean(closeVals)
		std, _ := stats.StandardDeviation(closeVals)
		return mean, std
	}

	return features.DefaultCloseValue, features.DefaultTargetScale
}
