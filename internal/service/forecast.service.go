package service

import (
	"context"
	"cropcast/internal/calculator"
	"cropcast/internal/domain"
	"cropcast/internal/inference"
	"fmt"
)

type ForecastInput struct {
	Commodity string
	GroupID   string
	Series    *domain.FeatureSeries
	// Impacts are per-feature contribution magnitudes reported by the
	// upstream training job. We rank and aggregate them, never compute
	// them here.
	Impacts map[string]float64
}

type ForecastService interface {
	Predict(ctx context.Context, input ForecastInput) (*domain.PredictionResult, error)
}

func NewForecastService(
	bundleService BundleService,
	normalizationService calculator.NormalizationService,
) ForecastService {
	return forecastServiceHandler{
		BundleService:        bundleService,
		NormalizationService: normalizationService,
	}
}

type forecastServiceHandler struct {
	BundleService        BundleService
	NormalizationService calculator.NormalizationService
}

func (h forecastServiceHandler) Predict(ctx context.Context, input ForecastInput) (*domain.PredictionResult, error) {
	profile, endProfile := domain.GetProfile(ctx)
	defer endProfile()

	bundle := h.BundleService.Current()
	if bundle == nil {
		return nil, domain.InferenceError{Err: fmt.Errorf("no model bundle loaded")}
	}
	if input.Series == nil {
		return nil, fmt.Errorf("feature series is required")
	}

	_, endSpan := profile.StartNewSpan("resolve normalization")
	normProfile, err := h.NormalizationService.Resolve(ctx, bundle.Artifact, *input.Series)
	endSpan()
	if err != nil {
		return nil, err
	}

	_, endSpan = profile.StartNewSpan("assemble features")
	vector, err := calculator.Assemble(*input.Series, normProfile, input.GroupID)
	endSpan()
	if err != nil {
		return nil, err
	}

	_, endSpan = profile.StartNewSpan("run inference")
	raw, err := inference.Infer(bundle, *vector)
	endSpan()
	if err != nil {
		return nil, err
	}

	predictions := calculator.Decode(*raw, normProfile, input.GroupID, input.Series.BaseDate)
	topFactors, categories := calculator.BuildAttribution(input.Impacts)

	return &domain.PredictionResult{
		Commodity:     input.Commodity,
		BundleVersion: bundle.Version,
		Method:        normProfile.Method,
		Predictions:   predictions,
		TopFactors:    topFactors,
		Categories:    categories,
	}, nil
}
