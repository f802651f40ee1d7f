package repository

import (
	"cropcast/internal/domain"
	"fmt"
	"sync"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
)

type BarCache map[string][]domain.PriceBar

func (h PriceRepositoryHandler) GetFromCache(symbol string, start, end time.Time) []domain.PriceBar {
	h.ReadMutex.RLock()
	defer h.ReadMutex.RUnlock()
	bars, ok := h.Cache[cacheKey(symbol, start, end)]
	if !ok {
		return nil
	}
	return bars
}

func (h PriceRepositoryHandler) AddToCache(symbol string, start, end time.Time, bars []domain.PriceBar) {
	h.ReadMutex.Lock()
	h.Cache[cacheKey(symbol, start, end)] = bars
	h.ReadMutex.Unlock()
}

func cacheKey(symbol string, start, end time.Time) string {
	return fmt.Sprintf("%s|%s|%s", symbol, start.Format(time.DateOnly), end.Format(time.DateOnly))
}

type PriceRepository interface {
	ListBars(symbol string, start, end time.Time) ([]domain.PriceBar, error)
}

func NewPriceRepository() PriceRepository {
	return &PriceRepositoryHandler{
		Cache:     make(BarCache),
		ReadMutex: &sync.RWMutex{},
	}
}

type PriceRepositoryHandler struct {
	Cache     BarCache
	ReadMutex *sync.RWMutex
}

func (h PriceRepositoryHandler) ListBars(symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	if cached := h.GetFromCache(symbol, start, end); cached != nil {
		return cached, nil
	}

	params := &chart.Params{
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Symbol:   symbol,
		Interval: datetime.OneDay,
	}
	iter := chart.Get(params)

	bars := []domain.PriceBar{}
	for iter.Next() {
		bar := iter.Bar()
		bars = append(bars, domain.PriceBar{
			Date:   time.Unix(int64(bar.Timestamp), 0).UTC(),
			Open:   bar.Open.InexactFloat64(),
			High:   bar.High.InexactFloat64(),
			Low:    bar.Low.InexactFloat64(),
			Close:  bar.AdjClose.InexactFloat64(),
			Volume: float64(bar.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to get bars for %s: %w", symbol, err)
	}

	h.AddToCache(symbol, start, end, bars)

	return bars, nil
}
