package service

import (
	"context"
	"cropcast/internal/domain"
	"cropcast/internal/features"
	"fmt"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

const simulationHorizon = 60

type SimulationInput struct {
	Commodity string
	GroupID   string
	Series    *domain.FeatureSeries
	// Overrides pin a feature to a constant across the whole encoder
	// window. Keys must be overridable features.
	Overrides map[string]float64
}

type SimulationDay struct {
	Date           time.Time `json:"date"`
	OriginalPrice  float64   `json:"originalPrice"`
	SimulatedPrice float64   `json:"simulatedPrice"`
	Change         float64   `json:"change"`
	ChangePercent  float64   `json:"changePercent"`
}

type OverrideImpact struct {
	Feature      string  `json:"feature"`
	CurrentValue float64 `json:"currentValue"`
	NewValue     float64 `json:"newValue"`
	ValueChange  float64 `json:"valueChange"`
}

type SimulationSummary struct {
	TotalDays        int     `json:"totalDays"`
	AvgChange        float64 `json:"avgChange"`
	AvgChangePercent float64 `json:"avgChangePercent"`
	MaxChange        float64 `json:"maxChange"`
	MinChange        float64 `json:"minChange"`
}

type SimulationResult struct {
	Commodity     string            `json:"commodity"`
	BundleVersion string            `json:"bundleVersion"`
	Days          []SimulationDay   `json:"days"`
	Impacts       []OverrideImpact  `json:"impacts"`
	Summary       SimulationSummary `json:"summary"`
}

type SimulationService interface {
	Simulate(ctx context.Context, input SimulationInput) (*SimulationResult, error)
}

func NewSimulationService(forecastService ForecastService) SimulationService {
	return simulationServiceHandler{
		ForecastService: forecastService,
	}
}

type simulationServiceHandler struct {
	ForecastService ForecastService
}

func (h simulationServiceHandler) Simulate(ctx context.Context, input SimulationInput) (*SimulationResult, error) {
	if err := validateOverrides(input.Overrides); err != nil {
		return nil, err
	}
	if input.Series == nil {
		return nil, fmt.Errorf("feature series is required")
	}

	baseline, err := h.ForecastService.Predict(ctx, ForecastInput{
		Commodity: input.Commodity,
		GroupID:   input.GroupID,
		Series:    input.Series,
	})
	if err != nil {
		return nil, fmt.Errorf("baseline prediction failed: %w", err)
	}

	overridden := applyOverrides(input.Series, input.Overrides)
	simulated, err := h.ForecastService.Predict(ctx, ForecastInput{
		Commodity: input.Commodity,
		GroupID:   input.GroupID,
		Series:    overridden,
	})
	if err != nil {
		return nil, fmt.Errorf("simulated prediction failed: %w", err)
	}

	days := expandHorizon(baseline.Predictions, simulated.Predictions, input.Series.BaseDate)

	return &SimulationResult{
		Commodity:     input.Commodity,
		BundleVersion: simulated.BundleVersion,
		Days:          days,
		Impacts:       overrideImpacts(input.Series, input.Overrides),
		Summary:       summarize(days),
	}, nil
}

func validateOverrides(overrides map[string]float64) error {
	invalid := []string{}
	for name := range overrides {
		if !features.Overridable[name] {
			invalid = append(invalid, name)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return fmt.Errorf("features cannot be overridden: %v", invalid)
	}
	return nil
}

// applyOverrides returns a copy of the series with each overridden feature
// held constant across its window. The input series is never mutated -
// the baseline run reads it afterwards.
func applyOverrides(series *domain.FeatureSeries, overrides map[string]float64) *domain.FeatureSeries {
	out := &domain.FeatureSeries{
		BaseDate: series.BaseDate,
		Values:   make(map[string][]float64, len(series.Values)),
	}
	for name, values := range series.Values {
		if newValue, ok := overrides[name]; ok {
			constant := make([]float64, len(values))
			for i := range constant {
				constant[i] = newValue
			}
			out.Values[name] = constant
			continue
		}
		out.Values[name] = values
	}
	return out
}

// expandHorizon stretches the 7-day model output across the 60-day
// simulation horizon by cycling it. A rolling re-predict would be more
// faithful; this keeps a single inference per run.
func expandHorizon(original, simulated []domain.DailyPrediction, baseDate time.Time) []SimulationDay {
	n := len(original)
	if len(simulated) < n {
		n = len(simulated)
	}
	if n == 0 {
		return nil
	}

	days := make([]SimulationDay, 0, simulationHorizon)
	for len(days) < simulationHorizon {
		idx := len(days) % n
		originalPrice := original[idx].Price
		simulatedPrice := simulated[idx].Price
		change := simulatedPrice - originalPrice
		changePercent := 0.0
		if originalPrice != 0 {
			changePercent = change / originalPrice * 100
		}
		days = append(days, SimulationDay{
			Date:           baseDate.AddDate(0, 0, len(days)+1),
			OriginalPrice:  roundCents(originalPrice),
			SimulatedPrice: roundCents(simulatedPrice),
			Change:         roundCents(change),
			ChangePercent:  roundCents(changePercent),
		})
	}
	return days
}

func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func overrideImpacts(series *domain.FeatureSeries, overrides map[string]float64) []OverrideImpact {
	impacts := make([]OverrideImpact, 0, len(overrides))
	for name, newValue := range overrides {
		current := 0.0
		if values := series.Values[name]; len(values) > 0 {
			current = values[len(values)-1]
		}
		impacts = append(impacts, OverrideImpact{
			Feature:      name,
			CurrentValue: current,
			NewValue:     newValue,
			ValueChange:  newValue - current,
		})
	}
	sort.Slice(impacts, func(i, j int) bool { return impacts[i].Feature < impacts[j].Feature })
	return impacts
}

func summarize(days []SimulationDay) SimulationSummary {
	if len(days) == 0 {
		return SimulationSummary{}
	}
	changes := make([]float64, len(days))
	changePcts := make([]float64, len(days))
	for i, day := range days {
		changes[i] = day.Change
		changePcts[i] = day.ChangePercent
	}
	avgChange, _ := stats.Mean(changes)
	avgChangePct, _ := stats.Mean(changePcts)
	maxChange, _ := stats.Max(changes)
	minChange, _ := stats.Min(changes)

	return SimulationSummary{
		TotalDays:        len(days),
		AvgChange:        avgChange,
		AvgChangePercent: avgChangePct,
		MaxChange:        maxChange,
		MinChange:        minChange,
	}
}
