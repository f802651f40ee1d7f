package calculator

import (
	"context"
	"math"

	"github.com/montanaflynn/stats"

	"cropcast/internal/domain"
	"cropcast/internal/features"
	"cropcast/internal/logger"
)

// NormalizationService resolves which normalization strategy was used at
// training time and extracts its parameters. Resolution is deterministic and
// total: the dynamic tier is a universal fallback, so an error here means an
// internal invariant was violated (e.g. an empty feature window).
type NormalizationService interface {
	Resolve(ctx context.Context, artifact domain.PreprocessingArtifact, series domain.FeatureSeries) (domain.NormalizationProfile, error)
}

type normalizationServiceHandler struct{}

func NewNormalizationService() NormalizationService {
	return normalizationServiceHandler{}
}

func (h normalizationServiceHandler) Resolve(ctx context.Context, artifact domain.PreprocessingArtifact, series domain.FeatureSeries) (domain.NormalizationProfile, error) {
	log := logger.FromContext(ctx)

	// Tier 1: group normalizer. Wins unconditionally when present; a plain
	// scaler entry in the same artifact is ignored and non-target features
	// stay on their raw (post-log) scale, as at training time.
	if group, ok := parseGroupNormalizer(artifact); ok {
		log.Infow("resolved group normalizer from artifact",
			"transform", group.Transform,
			"groups", len(group.GroupStats),
		)
		return domain.NormalizationProfile{
			Method: domain.MethodGroupNormalizer,
			Group:  group,
		}, nil
	}

	// Tier 2: plain scaler.
	if spec, ok := parseScaler(artifact); ok {
		perFeature := alignScaler(ctx, spec)
		if len(perFeature) > 0 {
			log.Infow("resolved standard scaler from artifact", "features", len(perFeature))
			return domain.NormalizationProfile{
				Method:     domain.MethodStandardScaler,
				PerFeature: perFeature,
			}, nil
		}
	}

	// Tier 3: compute stats from the request's own encoder window.
	log.Warn("no trained scaler recoverable from artifact, computing normalization stats dynamically")
	perFeature, err := dynamicStats(series)
	if err != nil {
		return domain.NormalizationProfile{}, err
	}

	return domain.NormalizationProfile{
		Method:     domain.MethodDynamic,
		PerFeature: perFeature,
	}, nil
}

// alignScaler maps the scaler's mean/std arrays onto feature names. Without
// a name table the alignment is positional over the fixed feature order,
// which is brittle to order drift between training and serving - hence the
// loud log.
func alignScaler(ctx context.Context, spec *scalerSpec) map[string]domain.FeatureStats {
	log := logger.FromContext(ctx)
	out := map[string]domain.FeatureStats{}

	if len(spec.Names) > 0 {
		for i, name := range spec.Names {
			if i >= len(spec.Means) {
				break
			}
			out[name] = domain.FeatureStats{
				Mean: spec.Means[i],
				Std:  clampStd(spec.Stds[i]),
			}
		}
		return out
	}

	log.Warnw("scaler artifact has no feature-name table, aligning positionally against the fixed feature order",
		"scalerValues", len(spec.Means),
		"candidates", len(features.NormalizationCandidates()),
	)
	idx := 0
	for _, name := range features.Order {
		if features.ExcludedFromNormalization(name) {
			continue
		}
		if idx >= len(spec.Means) {
			break
		}
		out[name] = domain.FeatureStats{
			Mean: spec.Means[idx],
			Std:  clampStd(spec.Stds[idx]),
		}
		idx++
	}
	return out
}

// dynamicStats computes per-feature mean/std over the most recent encoder
// window of each normalization candidate present in the series. Price and
// volume columns get the same log1p the assembler applies, so the stats
// describe the values the model actually sees.
func dynamicStats(series domain.FeatureSeries) (map[string]domain.FeatureStats, error) {
	out := map[string]domain.FeatureStats{}

	logTransformed := map[string]bool{}
	for _, name := range features.LogTransformed {
		logTransformed[name] = true
	}

	for _, name := range features.NormalizationCandidates() {
		values, ok := series.Values[name]
		if !ok || len(values) < features.EncoderLength {
			continue
		}
		window := values[len(values)-features.EncoderLength:]
		if logTransformed[name] {
			transformed := make([]float64, len(window))
			for i, v := range window {
				transformed[i] = math.Log1p(v)
			}
			window = transformed
		}

		mean, err := stats.Mean(window)
		if err != nil {
			return nil, domain.NormalizationResolutionError{Reason: "empty encoder window for " + name}
		}
		std, err := stats.StandardDeviation(window)
		if err != nil {
			return nil, domain.NormalizationResolutionError{Reason: "empty encoder window for " + name}
		}

		out[name] = domain.FeatureStats{Mean: mean, Std: clampStd(std)}
	}

	if len(out) == 0 {
		return nil, domain.NormalizationResolutionError{Reason: "no feature with a full encoder window"}
	}
	return out, nil
}

func clampStd(std float64) float64 {
	if std == 0 {
		return 1.0
	}
	return std
}
