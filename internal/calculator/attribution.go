package calculator

import (
	"math"
	"sort"

	"cropcast/internal/domain"
	"cropcast/internal/features"
)

// TopFactorCount is the size of the ranked factor list.
const TopFactorCount = 20

// BuildAttribution turns a per-feature impact signal into the two derived
// structures: a ranked top-K factor list and a category-aggregated summary.
// Selection is by impact magnitude; ratios are computed against the selected
// set (factors) and against all categories present (summary), so each ratio
// column sums to 1 across its own entries.
//
// The impact signal itself is an input here, never computed; identical
// inputs always yield identical output (ties broken by name).
func BuildAttribution(impacts map[string]float64) ([]domain.FactorImpact, []domain.CategoryImpact) {
	if len(impacts) == 0 {
		return nil, nil
	}

	ranked := make([]domain.FactorImpact, 0, len(impacts))
	for name, impact := range impacts {
		ranked = append(ranked, domain.FactorImpact{
			Name:     name,
			Category: features.CategoryOf(name),
			Impact:   impact,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := math.Abs(ranked[i].Impact), math.Abs(ranked[j].Impact)
		if a != b {
			return a > b
		}
		return ranked[i].Name < ranked[j].Name
	})

	if len(ranked) > TopFactorCount {
		ranked = ranked[:TopFactorCount]
	}

	var impactTotal float64
	for _, f := range ranked {
		impactTotal += f.Impact
	}
	if impactTotal != 0 {
		for i := range ranked {
			ranked[i].Ratio = ranked[i].Impact / impactTotal
		}
	}

	byCategory := map[string]float64{}
	for _, f := range ranked {
		byCategory[f.Category] += f.Impact
	}
	var categoryTotal float64
	for _, sum := range byCategory {
		categoryTotal += sum
	}

	categories := make([]domain.CategoryImpact, 0, len(byCategory))
	for category, sum := range byCategory {
		c := domain.CategoryImpact{Category: category, ImpactSum: sum}
		if categoryTotal != 0 {
			c.Ratio = sum / categoryTotal
		}
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		a, b := math.Abs(categories[i].ImpactSum), math.Abs(categories[j].ImpactSum)
		if a != b {
			return a > b
		}
		return categories[i].Category < categories[j].Category
	})

	return ranked, categories
}
