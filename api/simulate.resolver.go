package api

import (
	"cropcast/internal/features"
	"cropcast/internal/service"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

type simulateRequest struct {
	Commodity string             `json:"commodity"`
	GroupID   string             `json:"groupId"`
	Overrides map[string]float64 `json:"featureOverrides"`
}

func (m ApiHandler) simulate(c *gin.Context) {
	var requestBody simulateRequest
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

	result, err := m.SimulationService.Simulate(c, service.SimulationInput{
		Commodity: requestBody.Commodity,
		GroupID:   requestBody.GroupID,
		Series:    series,
		Overrides: requestBody.Overrides,
	})
	if err != nil {
		if strings.Contains(err.Error(), "cannot be overridden") {
			returnErrorJsonCode(err, c, 400)
			return
		}
		returnErrorJson(err, c)
		return
	}

	c.JSON(200, result)
}
