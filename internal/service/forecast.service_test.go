package service

import (
	"context"
	"cropcast/internal/calculator"
	"cropcast/internal/domain"
	"cropcast/internal/features"
	"cropcast/internal/util"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// stubBundleService serves a fixed bundle, no source behind it.
type stubBundleService struct {
	bundle *domain.ModelBundle
}

func (s stubBundleService) Current() *domain.ModelBundle { return s.bundle }

func (s stubBundleService) Load(ctx context.Context) error { return nil }

func (s stubBundleService) RefreshIfDue(ctx context.Context) {}

func (s stubBundleService) Refresh(ctx context.Context) {}

func (s stubBundleService) StartRefresher(ctx context.Context, _ time.Duration) {}

func (s stubBundleService) Close() {}

// echoGraph returns a constant horizon regardless of input.
type echoGraph struct {
	median, lower, upper float64
}

func (g echoGraph) Run(inputs domain.ModelInputs) (*domain.RawOutput, error) {
	n := features.DecoderLength
	out := &domain.RawOutput{
		Median: make([]float64, n),
		Lower:  make([]float64, n),
		Upper:  make([]float64, n),
	}
	for i := 0; i < n; i++ {
		out.Median[i] = g.median
		out.Lower[i] = g.lower
		out.Upper[i] = g.upper
	}
	return out, nil
}

func (g echoGraph) Close() error { return nil }

func forecastSeries() *domain.FeatureSeries {
	values := map[string][]float64{}
	for i, name := range features.NormalizationCandidates() {
		values[name] = make([]float64, features.EncoderLength)
		for j := range values[name] {
			values[name][j] = float64(i) + float64(j)*0.1 + 1.0
		}
	}
	return &domain.FeatureSeries{
		BaseDate: util.NewDate(2026, 8, 30),
		Values:   values,
	}
}

func Test_Predict(t *testing.T) {
	ctx := context.Background()

	newService := func(bundle *domain.ModelBundle) ForecastService {
		return NewForecastService(stubBundleService{bundle: bundle}, calculator.NewNormalizationService())
	}

	t.Run("no bundle loaded errors", func(t *testing.T) {
		service := newService(nil)
		_, err := service.Predict(ctx, ForecastInput{Commodity: "corn", Series: forecastSeries()})

		var infErr domain.InferenceError
		require.ErrorAs(t, err, &infErr)
	})

	t.Run("runs the full pipeline on the dynamic tier", func(t *testing.T) {
		bundle := &domain.ModelBundle{
			Version:  "20260829_tft",
			Graph:    echoGraph{median: 6.1, lower: 6.0, upper: 6.2},
			Artifact: domain.PreprocessingArtifact{},
		}
		service := newService(bundle)

		result, err := service.Predict(ctx, ForecastInput{
			Commodity: "corn",
			GroupID:   "corn",
			Series:    forecastSeries(),
		})
		require.NoError(t, err)

		require.Equal(t, "20260829_tft", result.BundleVersion)
		require.Equal(t, domain.MethodDynamic, result.Method)
		require.Len(t, result.Predictions, features.DecoderLength)

		// dynamic tier decodes with expm1 only
		require.InDelta(t, math.Expm1(6.1), result.Predictions[0].Price, 1e-9)
		require.InDelta(t, math.Expm1(6.0), result.Predictions[0].ConfLower, 1e-9)
		require.InDelta(t, math.Expm1(6.2), result.Predictions[0].ConfUpper, 1e-9)
		require.Equal(t, util.NewDate(2026, 8, 31), result.Predictions[0].Date)
	})

	t.Run("group artifact decodes through the inverse chain", func(t *testing.T) {
		artifact, err := calculator.ParseArtifact([]byte(`{
			"target_normalizer": {
				"normalizer_params": {
					"center": 1.0,
					"scale": 2.0,
					"group_statistics": {"corn": {"mean": 0.5, "std": 0.25}}
				}
			}
		}`))
		require.NoError(t, err)

		bundle := &domain.ModelBundle{
			Version:  "v1",
			Graph:    echoGraph{median: 1.0, lower: 0.9, upper: 1.1},
			Artifact: artifact,
		}
		service := newService(bundle)

		result, err := service.Predict(ctx, ForecastInput{
			Commodity: "corn",
			GroupID:   "corn",
			Series:    forecastSeries(),
		})
		require.NoError(t, err)
		require.Equal(t, domain.MethodGroupNormalizer, result.Method)

		want := math.Expm1((1.0*0.25+0.5)*2.0 + 1.0)
		require.InDelta(t, want, result.Predictions[0].Price, 1e-9)
	})

	t.Run("missing feature surfaces from the assembler", func(t *testing.T) {
		series := forecastSeries()
		delete(series.Values, "spi90d")

		bundle := &domain.ModelBundle{
			Version:  "v1",
			Graph:    echoGraph{},
			Artifact: domain.PreprocessingArtifact{},
		}
		_, err := newService(bundle).Predict(ctx, ForecastInput{Commodity: "corn", Series: series})

		var missing domain.MissingFeatureError
		require.ErrorAs(t, err, &missing)
	})

	t.Run("attribution flows through when impacts are supplied", func(t *testing.T) {
		bundle := &domain.ModelBundle{
			Version:  "v1",
			Graph:    echoGraph{median: 6.1, lower: 6.0, upper: 6.2},
			Artifact: domain.PreprocessingArtifact{},
		}
		result, err := newService(bundle).Predict(ctx, ForecastInput{
			Commodity: "corn",
			Series:    forecastSeries(),
			Impacts: map[string]float64{
				"pdsi":      0.6,
				"USD_Index": 0.4,
			},
		})
		require.NoError(t, err)

		require.Len(t, result.TopFactors, 2)
		require.Equal(t, "pdsi", result.TopFactors[0].Name)
		require.Equal(t, "Weather", result.TopFactors[0].Category)
		require.InDelta(t, 0.6, result.TopFactors[0].Ratio, 1e-9)
		require.Len(t, result.Categories, 2)
	})

	t.Run("no impacts means no attribution", func(t *testing.T) {
		bundle := &domain.ModelBundle{
			Version:  "v1",
			Graph:    echoGraph{median: 6.1, lower: 6.0, upper: 6.2},
			Artifact: domain.PreprocessingArtifact{},
		}
		result, err := newService(bundle).Predict(ctx, ForecastInput{Commodity: "corn", Series: forecastSeries()})
		require.NoError(t, err)
		require.Nil(t, result.TopFactors)
		require.Nil(t, result.Categories)
	})
}
