package service

import (
	"context"
	"cropcast/internal/domain"
	"cropcast/internal/features"
	"cropcast/internal/logger"
	"cropcast/internal/repository"
	"math"
	"math/rand"
	"strings"
	"time"
)

// symbolMap translates commodity names to futures symbols.
var symbolMap = map[string]string{
	"corn":  "ZC=F",
	"wheat": "ZW=F",
}

const emaSpan = 20

type MarketDataService interface {
	// BuildSeries assembles the full input series for a commodity:
	// market bars plus the exported feature file when one is
	// configured. Anything unavailable is filled with deterministic
	// synthetic values so the pipeline stays runnable in dev.
	BuildSeries(ctx context.Context, commodity string, days int) (*domain.FeatureSeries, error)
}

func NewMarketDataService(
	priceRepository repository.PriceRepository,
	featureStoreRepository repository.FeatureStoreRepository,
	featureFilePath string,
) MarketDataService {
	return marketDataServiceHandler{
		PriceRepository:        priceRepository,
		FeatureStoreRepository: featureStoreRepository,
		FeatureFilePath:        featureFilePath,
	}
}

type marketDataServiceHandler struct {
	PriceRepository        repository.PriceRepository
	FeatureStoreRepository repository.FeatureStoreRepository
	FeatureFilePath        string
}

func (h marketDataServiceHandler) BuildSeries(ctx context.Context, commodity string, days int) (*domain.FeatureSeries, error) {
	log := logger.FromContext(ctx)

	series := &domain.FeatureSeries{
		BaseDate: time.Now().UTC().Truncate(24 * time.Hour),
		Values:   map[string][]float64{},
	}

	if h.FeatureFilePath != "" && h.FeatureStoreRepository != nil {
		stored, err := h.FeatureStoreRepository.Load(h.FeatureFilePath)
		if err != nil {
			log.Warnf("failed to load feature file, will synthesize: %v", err)
		} else {
			series.Values = stored.Values
			if !stored.BaseDate.IsZero() {
				series.BaseDate = stored.BaseDate
			}
		}
	}

	if !hasPriceColumns(series.Values, days) {
		bars := h.fetchBars(ctx, commodity, days)
		applyBars(series.Values, bars)
	}
	if len(series.Values["EMA"]) < days {
		series.Values["EMA"] = computeEMA(series.Values["close"], emaSpan)
	}
	fillSynthetic(series.Values, days)

	return series, nil
}

func (h marketDataServiceHandler) fetchBars(ctx context.Context, commodity string, days int) []domain.PriceBar {
	log := logger.FromContext(ctx)

	symbol, ok := symbolMap[strings.ToLower(commodity)]
	if !ok {
		symbol = symbolMap["corn"]
	}

	end := time.Now().UTC()
	// pad the range so market holidays still leave enough bars
	start := end.AddDate(0, 0, -(days + 30))
	bars, err := h.PriceRepository.ListBars(symbol, start, end)
	if err != nil {
		log.Warnf("failed to fetch bars for %s, synthesizing prices: %v", symbol, err)
		return syntheticBars(end, days)
	}
	if len(bars) < days {
		log.Warnf("only %d bars for %s, need %d; synthesizing prices", len(bars), symbol, days)
		return syntheticBars(end, days)
	}
	return bars[len(bars)-days:]
}

func hasPriceColumns(values map[string][]float64, days int) bool {
	for _, name := range []string{"close", "open", "high", "low", "volume"} {
		if len(values[name]) < days {
			return false
		}
	}
	return true
}

func applyBars(values map[string][]float64, bars []domain.PriceBar) {
	closes := make([]float64, 0, len(bars))
	opens := make([]float64, 0, len(bars))
	highs := make([]float64, 0, len(bars))
	lows := make([]float64, 0, len(bars))
	volumes := make([]float64, 0, len(bars))
	for _, bar := range bars {
		closes = append(closes, bar.Close)
		opens = append(opens, bar.Open)
		highs = append(highs, bar.High)
		lows = append(lows, bar.Low)
		volumes = append(volumes, bar.Volume)
	}
	values["close"] = closes
	values["open"] = opens
	values["high"] = highs
	values["low"] = lows
	values["volume"] = volumes
}

func computeEMA(closes []float64, span int) []float64 {
	if len(closes) == 0 {
		return nil
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out := make([]float64, len(closes))
	out[0] = closes[0]
	for i := 1; i < len(closes); i++ {
		out[i] = alpha*closes[i] + (1-alpha)*out[i-1]
	}
	return out
}

// syntheticBars generates a plausible corn futures walk. Seeded so repeated
// dev runs see identical data.
func syntheticBars(end time.Time, days int) []domain.PriceBar {
	rng := rand.New(rand.NewSource(42))
	basePrice := features.DefaultCloseValue

	bars := make([]domain.PriceBar, 0, days)
	price := basePrice
	for i := 0; i < days; i++ {
		price = math.Max(400, math.Min(500, price+rng.NormFloat64()*5))
		bars = append(bars, domain.PriceBar{
			Date:   end.AddDate(0, 0, -(days - 1 - i)),
			Open:   price + rng.Float64()*4 - 2,
			High:   price + 2 + rng.Float64()*3,
			Low:    price - 2 - rng.Float64()*3,
			Close:  price,
			Volume: float64(50000 + rng.Intn(100000)),
		})
	}
	return bars
}

// fillSynthetic tops up any input feature the store didn't provide: news
// pca components random-walk, climate indices and hawkes intensities stay
// in their natural ranges.
func fillSynthetic(values map[string][]float64, days int) {
	rng := rand.New(rand.NewSource(42))

	uniform := func(lo, hi float64) []float64 {
		out := make([]float64, days)
		for i := range out {
			out[i] = lo + rng.Float64()*(hi-lo)
		}
		return out
	}

	for _, name := range features.NormalizationCandidates() {
		if len(values[name]) >= days {
			continue
		}
		switch {
		case strings.HasPrefix(name, "news_pca_"):
			walk := make([]float64, days)
			current := rng.NormFloat64()
			for i := range walk {
				current += rng.NormFloat64() * 0.1
				walk[i] = current
			}
			values[name] = walk
		case name == "pdsi":
			values[name] = uniform(-3, 3)
		case name == "spi30d" || name == "spi90d":
			values[name] = uniform(-1, 1)
		case name == "lambda_price" || name == "lambda_news":
			values[name] = uniform(0.1, 0.5)
		case name == "news_count":
			counts := make([]float64, days)
			for i := range counts {
				counts[i] = float64(5 + rng.Intn(10))
			}
			values[name] = counts
		case name == "10Y_Yield":
			values[name] = uniform(3.5, 4.5)
		case name == "USD_Index":
			values[name] = uniform(100, 110)
		}
	}
}
