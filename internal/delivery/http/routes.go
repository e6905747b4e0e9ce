package http

import (
	"github.com/formulary/backend/config"
	"github.com/formulary/backend/internal/infrastructure/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger logging.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(MetricsMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check and metrics stay outside the rate limit
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst))
	{
		v1.POST("/ingredients/parse", handler.ParseIngredients)

		dosages := v1.Group("/dosages")
		{
			dosages.POST("/format", handler.FormatDosage)
			dosages.POST("/summary", handler.SummarizeDosages)
		}

		v1.GET("/herbs/resolve", handler.ResolveHerb)
		v1.GET("/herbs/suggest", handler.SuggestHerbs)

		formulas := v1.Group("/formulas")
		{
			formulas.POST("/containing", handler.FormulasContaining)
			formulas.GET("/compare", handler.CompareFormulas)
			formulas.GET("/:name/resolution", handler.ResolveFormula)
			formulas.POST("/:name/delta", handler.FormulaDelta)
		}

		v1.POST("/records/refresh", handler.RefreshRecords)
	}

	return router
}
