package api

import (
	"context"
	"cropcast/internal/domain"
	"cropcast/internal/service"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type stubForecast struct {
	result *domain.PredictionResult
	err    error
	last   service.ForecastInput
}

func (s *stubForecast) Predict(ctx context.Context, input service.ForecastInput) (*domain.PredictionResult, error) {
	s.last = input
	return s.result, s.err
}

type stubMarketData struct {
	series *domain.FeatureSeries
	err    error
}

func (s *stubMarketData) BuildSeries(ctx context.Context, commodity string, days int) (*domain.FeatureSeries, error) {
	return s.series, s.err
}

func newTestRouter(handler ApiHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/predict", handler.predict)
	return router
}

func Test_predict(t *testing.T) {
	series := &domain.FeatureSeries{Values: map[string][]float64{}}

	t.Run("happy path fills defaults", func(t *testing.T) {
		forecast := &stubForecast{result: &domain.PredictionResult{
			Commodity:     "corn",
			BundleVersion: "v1",
			Method:        domain.MethodDynamic,
		}}
		handler := ApiHandler{
			ForecastService:   forecast,
			MarketDataService: &stubMarketData{series: series},
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/predict", strings.NewReader(`{}`))
		newTestRouter(handler).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "corn", forecast.last.Commodity)
		require.Equal(t, "corn", forecast.last.GroupID)

		var body domain.PredictionResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, "v1", body.BundleVersion)
	})

	t.Run("missing feature maps to 422", func(t *testing.T) {
		handler := ApiHandler{
			ForecastService:   &stubForecast{err: domain.MissingFeatureError{FeatureName: "pdsi"}},
			MarketDataService: &stubMarketData{series: series},
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/predict", strings.NewReader(`{"commodity": "wheat"}`))
		newTestRouter(handler).ServeHTTP(w, req)

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.Contains(t, w.Body.String(), "pdsi")
	})

	t.Run("malformed body maps to 400", func(t *testing.T) {
		handler := ApiHandler{
			ForecastService:   &stubForecast{},
			MarketDataService: &stubMarketData{series: series},
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/predict", strings.NewReader(`{`))
		newTestRouter(handler).ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("internal failures map to 500", func(t *testing.T) {
		handler := ApiHandler{
			ForecastService:   &stubForecast{err: domain.InferenceError{Err: context.DeadlineExceeded}},
			MarketDataService: &stubMarketData{series: series},
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/predict", strings.NewReader(`{}`))
		newTestRouter(handler).ServeHTTP(w, req)

		require.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
