package api

import (
	"cropcast/internal/domain"
	"cropcast/internal/features"
	"cropcast/internal/service"
	"fmt"

	"github.com/gin-gonic/gin"
)

type predictRequest struct {
	Commodity string `json:"commodity"`
	GroupID   string `json:"groupId"`
	// Impacts are optional per-feature attribution magnitudes from the
	// training pipeline. When absent the response carries no factor
	// breakdown.
	Impacts map[string]float64 `json:"impacts"`
}

func (m ApiHandler) predict(c *gin.Context) {
	var requestBody predictRequest
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		returnErrorJsonCode(err, c, 400)
		return
	}
	if requestBody.Commodity == "" {
		requestBody.Commodity = "corn"
	}
	if requestBody.GroupID == "" {
		requestBody.GroupID = requestBody.Commodity
	}

	series, err := m.MarketDataService.BuildSeries(c, requestBody.Commodity, features.EncoderLength)
	if err != nil {
		returnErrorJson(fmt.Errorf("failed to build feature series: %w", err), c)
		return
	}

	result, err := m.ForecastService.Predict(c, service.ForecastInput{
		Commodity: requestBody.Commodity,
		GroupID:   requestBody.GroupID,
		Series:    series,
		Impacts:   requestBody.Impacts,
	})
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	c.JSON(200, result)
}

func (m ApiHandler) health(c *gin.Context) {
	status := "ok"
	var bundle *domain.ModelBundle
	if m.BundleService != nil {
		bundle = m.BundleService.Current()
	}
	if bundle == nil {
		status = "no bundle loaded"
		c.JSON(503, gin.H{"status": status})
		return
	}
	c.JSON(200, gin.H{
		"status":        status,
		"bundleVersion": bundle.Version,
	})
}
