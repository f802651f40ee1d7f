package calculator

import (
	"context"
	"cropcast/internal/domain"
	"cropcast/internal/features"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

const groupArtifactJson = `{
	"target_normalizer": {
		"metadata": {"transformation": "softplus"},
		"normalizer_params": {
			"center": 5.0,
			"scale": [0.5],
			"group_statistics": {
				"corn": {"mean": 0.2, "std": 0.1},
				"wheat": {"mean": 0.1, "std": 0.0}
			}
		}
	}
}`

const scalerArtifactJson = `{
	"scaler": {
		"mean_": [452.0, 450.0],
		"scale_": [1.41, 0.0],
		"feature_names_in_": ["close", "open"]
	}
}`

func Test_Resolve(t *testing.T) {
	ctx := context.Background()
	service := NewNormalizationService()

	t.Run("group normalizer wins", func(t *testing.T) {
		artifact, err := ParseArtifact([]byte(groupArtifactJson))
		require.NoError(t, err)

		profile, err := service.Resolve(ctx, artifact, domain.FeatureSeries{})
		require.NoError(t, err)

		require.Equal(t, domain.MethodGroupNormalizer, profile.Method)
		require.NotNil(t, profile.Group)
		require.Equal(t, "softplus", profile.Group.Transform)
		require.Equal(t, 5.0, profile.Group.Center)
		require.Equal(t, 0.5, profile.Group.Scale)
		require.Equal(t, domain.FeatureStats{Mean: 0.2, Std: 0.1}, profile.Group.GroupStats["corn"])
	})

	t.Run("zero group std clamps to one", func(t *testing.T) {
		artifact, err := ParseArtifact([]byte(groupArtifactJson))
		require.NoError(t, err)

		profile, err := service.Resolve(ctx, artifact, domain.FeatureSeries{})
		require.NoError(t, err)
		require.Equal(t, 1.0, profile.Group.GroupStats["wheat"].Std)
	})

	t.Run("group normalizer ignores a co-present scaler entry", func(t *testing.T) {
		combined := `{
			"target_normalizer": {
				"normalizer_params": {
					"center": 5.0,
					"scale": 0.5,
					"group_statistics": {"corn": {"mean": 0.2, "std": 0.1}}
				}
			},
			"scaler": {
				"mean_": [452.0],
				"scale_": [1.41],
				"feature_names_in_": ["open"]
			}
		}`
		artifact, err := ParseArtifact([]byte(combined))
		require.NoError(t, err)

		profile, err := service.Resolve(ctx, artifact, domain.FeatureSeries{})
		require.NoError(t, err)
		require.Equal(t, domain.MethodGroupNormalizer, profile.Method)
		// non-target features stay raw under the group tier
		require.Empty(t, profile.PerFeature)
	})

	t.Run("named scaler", func(t *testing.T) {
		artifact, err := ParseArtifact([]byte(scalerArtifactJson))
		require.NoError(t, err)

		profile, err := service.Resolve(ctx, artifact, domain.FeatureSeries{})
		require.NoError(t, err)

		require.Equal(t, domain.MethodStandardScaler, profile.Method)
		require.Equal(t, domain.FeatureStats{Mean: 452.0, Std: 1.41}, profile.PerFeature["close"])
		// zero std clamps
		require.Equal(t, domain.FeatureStats{Mean: 450.0, Std: 1.0}, profile.PerFeature["open"])
	})

	t.Run("positional scaler aligns against fixed order", func(t *testing.T) {
		artifact := domain.PreprocessingArtifact{
			"scaler": map[string]interface{}{
				"mean_":  []interface{}{1.0, 2.0, 3.0},
				"scale_": []interface{}{0.1, 0.2, 0.3},
			},
		}
		profile, err := service.Resolve(ctx, artifact, domain.FeatureSeries{})
		require.NoError(t, err)

		require.Equal(t, domain.MethodStandardScaler, profile.Method)
		// first three normalization candidates are close, open, high
		require.Equal(t, domain.FeatureStats{Mean: 1.0, Std: 0.1}, profile.PerFeature["close"])
		require.Equal(t, domain.FeatureStats{Mean: 2.0, Std: 0.2}, profile.PerFeature["open"])
		require.Equal(t, domain.FeatureStats{Mean: 3.0, Std: 0.3}, profile.PerFeature["high"])
		require.Len(t, profile.PerFeature, 3)
	})

	t.Run("empty artifact falls back to dynamic stats", func(t *testing.T) {
		series := domain.FeatureSeries{Values: map[string][]float64{
			"close": constantSeries(450.0, features.EncoderLength),
		}}
		profile, err := service.Resolve(ctx, domain.PreprocessingArtifact{}, series)
		require.NoError(t, err)

		require.Equal(t, domain.MethodDynamic, profile.Method)
		// close stats come out on the log1p scale; zero std clamps to one
		stats := profile.PerFeature["close"]
		require.InDelta(t, math.Log1p(450.0), stats.Mean, 1e-9)
		require.Equal(t, 1.0, stats.Std)
	})

	t.Run("dynamic tier uses the most recent window", func(t *testing.T) {
		values := make([]float64, features.EncoderLength+10)
		for i := range values {
			values[i] = 100.0
		}
		for i := 10; i < len(values); i++ {
			values[i] = 200.0
		}
		series := domain.FeatureSeries{Values: map[string][]float64{"close": values}}

		profile, err := service.Resolve(ctx, domain.PreprocessingArtifact{}, series)
		require.NoError(t, err)
		stats := profile.PerFeature["close"]
		require.InDelta(t, math.Log1p(200.0), stats.Mean, 1e-9)
		require.Equal(t, 1.0, stats.Std)
	})

	t.Run("short windows are skipped", func(t *testing.T) {
		series := domain.FeatureSeries{Values: map[string][]float64{
			"close": constantSeries(450.0, features.EncoderLength),
			"open":  constantSeries(450.0, 10),
		}}
		profile, err := service.Resolve(ctx, domain.PreprocessingArtifact{}, series)
		require.NoError(t, err)
		_, ok := profile.PerFeature["open"]
		require.False(t, ok)
	})

	t.Run("nothing resolvable errors", func(t *testing.T) {
		_, err := service.Resolve(ctx, domain.PreprocessingArtifact{}, domain.FeatureSeries{})
		require.Error(t, err)
		require.ErrorContains(t, err, "no feature with a full encoder window")
	})

	t.Run("malformed normalizer entry is ignored", func(t *testing.T) {
		artifact := domain.PreprocessingArtifact{
			"target_normalizer": map[string]interface{}{
				"center": "not a number",
			},
		}
		series := domain.FeatureSeries{Values: map[string][]float64{
			"close": constantSeries(450.0, features.EncoderLength),
		}}
		profile, err := service.Resolve(ctx, artifact, series)
		require.NoError(t, err)
		require.Equal(t, domain.MethodDynamic, profile.Method)
	})
}

func constantSeries(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}
