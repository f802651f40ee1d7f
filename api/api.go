package api

import (
	"cropcast/internal/domain"
	"cropcast/internal/logger"
	"cropcast/internal/service"
	"errors"
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ApiHandler struct {
	ForecastService   service.ForecastService
	SimulationService service.SimulationService
	BundleService     service.BundleService
	MarketDataService service.MarketDataService
}

func (m ApiHandler) StartApi(port int) error {
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(m.logRequestMiddleware)

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(200, map[string]string{"message": "welcome to cropcast"})
	})
	router.GET("/health", m.health)
	router.POST("/predict", m.predict)
	router.POST("/simulate", m.simulate)
	router.GET("/bundle", m.bundleStatus)
	router.POST("/bundle/refresh", m.refreshBundle)

	return router.Run(fmt.Sprintf(":%d", port))
}

func returnErrorJson(err error, c *gin.Context) {
	code := 500
	var missingErr domain.MissingFeatureError
	var resolutionErr domain.NormalizationResolutionError
	switch {
	case errors.As(err, &missingErr), errors.As(err, &resolutionErr):
		code = 422
	}
	returnErrorJsonCode(err, c, code)
}

func returnErrorJsonCode(err error, c *gin.Context, code int) {
	logger.Error(err)
	c.AbortWithStatusJSON(code, gin.H{
		"error": err.Error(),
	})
}

func (m ApiHandler) logRequestMiddleware(ctx *gin.Context) {
	requestID := uuid.NewString()
	log := logger.FromContext(ctx).With("requestId", requestID)
	ctx.Set(logger.ContextKey, log)

	start := time.Now().UTC()
	ctx.Next()

	log.Infow("handled request",
		"method", ctx.Request.Method,
		"route", ctx.Request.URL.Path,
		"status", ctx.Writer.Status(),
		"durationMs", time.Since(start).Milliseconds(),
		"ip", ctx.ClientIP(),
	)
}
