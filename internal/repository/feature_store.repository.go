package repository

import (
	"cropcast/internal/domain"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
)

// FeatureRow is one observation in the long-format feature export:
// one (date, feature, value) triple per line.
type FeatureRow struct {
	Date    string  `csv:"date"`
	Feature string  `csv:"feature"`
	Value   float64 `csv:"value"`
}

type FeatureStoreRepository interface {
	Load(path string) (*domain.FeatureSeries, error)
}

func NewFeatureStoreRepository() FeatureStoreRepository {
	return &FeatureStoreRepositoryHandler{}
}

type FeatureStoreRepositoryHandler struct{}

func (h FeatureStoreRepositoryHandler) Load(path string) (*domain.FeatureSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feature file %s: %w", path, err)
	}
	defer f.Close()

	rows := []FeatureRow{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse feature file %s: %w", path, err)
	}

	// rows for a feature may arrive out of order; re-sort by date so
	// the series values line up positionally
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Feature != rows[j].Feature {
			return rows[i].Feature < rows[j].Feature
		}
		return rows[i].Date < rows[j].Date
	})

	series := &domain.FeatureSeries{
		Values: map[string][]float64{},
	}
	for _, row := range rows {
		date, err := time.Parse(time.DateOnly, row.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date %q in %s: %w", row.Date, path, err)
		}
		if date.After(series.BaseDate) {
			series.BaseDate = date
		}
		series.Values[row.Feature] = append(series.Values[row.Feature], row.Value)
	}

	return series, nil
}
