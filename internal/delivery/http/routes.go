package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vitalsync/backend/config"
	"github.com/vitalsync/backend/internal/observability"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, metrics *observability.Metrics) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	if metrics != nil {
		router.Use(MetricsMiddleware(metrics))
	}
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.POST("/nutrition/analyze", handler.AnalyzeNutrition)
		v1.GET("/foods/search", handler.SearchFoods)

		users := v1.Group("/users/:userId")
		{
			users.POST("/food", handler.LogFood)
			users.POST("/food/usda/:fdcId", handler.ImportUSDAFood)
			users.POST("/food/search", handler.LogFoodByName)
			users.POST("/nutrition/report", handler.NutritionReport)

			users.POST("/activity", handler.RecordActivity)
			users.GET("/activity/window", handler.ActivityWindow)
			users.GET("/activity/daily", handler.DailyActivity)
			users.GET("/activity/nearest", handler.NearestActivity)

			users.GET("/overview", handler.Overview)
		}

		calendar := v1.Group("/calendar")
		{
			calendar.GET("/today", handler.CalendarToday)
			calendar.GET("/week", handler.CalendarWeek)
			calendar.GET("/month", handler.CalendarMonth)
			calendar.GET("/range", handler.CalendarRange)
		}
	}

	return router
}
