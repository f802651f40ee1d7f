package calculator

import (
	"cropcast/internal/domain"
	"cropcast/internal/util"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Decode(t *testing.T) {
	baseDate := util.NewDate(2026, 8, 30)
	raw := domain.RawOutput{
		Median: []float64{6.1, 6.2, 6.3},
		Lower:  []float64{6.0, 6.1, 6.2},
		Upper:  []float64{6.2, 6.3, 6.4},
	}

	t.Run("group tier inverts the normalization chain", func(t *testing.T) {
		profile := domain.NormalizationProfile{
			Method: domain.MethodGroupNormalizer,
			Group: &domain.GroupNormalizerParams{
				Center: 1.0,
				Scale:  2.0,
				GroupStats: map[string]domain.FeatureStats{
					"corn": {Mean: 0.5, Std: 0.25},
				},
			},
		}
		out := Decode(raw, profile, "corn", baseDate)
		require.Len(t, out, 3)

		// 6.1 -> *0.25+0.5 -> *2+1 -> expm1
		want := math.Expm1((6.1*0.25+0.5)*2.0 + 1.0)
		require.InDelta(t, want, out[0].Price, 1e-9)
	})

	t.Run("scaler tier only undoes the log transform", func(t *testing.T) {
		profile := domain.NormalizationProfile{Method: domain.MethodStandardScaler}
		out := Decode(raw, profile, "corn", baseDate)

		require.InDelta(t, math.Expm1(6.1), out[0].Price, 1e-9)
		require.InDelta(t, math.Expm1(6.0), out[0].ConfLower, 1e-9)
		require.InDelta(t, math.Expm1(6.2), out[0].ConfUpper, 1e-9)
	})

	t.Run("dynamic tier only undoes the log transform", func(t *testing.T) {
		profile := domain.NormalizationProfile{Method: domain.MethodDynamic}
		out := Decode(raw, profile, "corn", baseDate)
		require.InDelta(t, math.Expm1(6.3), out[2].Price, 1e-9)
	})

	t.Run("dates start the day after the base date", func(t *testing.T) {
		profile := domain.NormalizationProfile{Method: domain.MethodDynamic}
		out := Decode(raw, profile, "corn", baseDate)

		require.Equal(t, util.NewDate(2026, 8, 31), out[0].Date)
		require.Equal(t, util.NewDate(2026, 9, 2), out[2].Date)
	})
}
