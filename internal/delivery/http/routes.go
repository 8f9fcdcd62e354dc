package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/smartswap/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger zerolog.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		products := v1.Group("/products")
		{
			products.POST("", handler.CreateProduct)
			products.POST("/bulk", handler.CreateProductsBulk)
			products.GET("", handler.ListProducts)
			products.GET("/:id", handler.GetProduct)
			products.PUT("/:id", handler.UpdateProduct)
			products.DELETE("/:id", handler.DeleteProduct)
		}

		rules := v1.Group("/rules")
		{
			rules.POST("", handler.CreateRule)
			rules.GET("", handler.ListRules)
			rules.GET("/:id", handler.GetRule)
			rules.PUT("/:id", handler.UpdateRule)
			rules.DELETE("/:id", handler.DeleteRule)
		}

		v1.POST("/suggestions", handler.Suggest)

		swaps := v1.Group("/swaps")
		{
			swaps.POST("/execute", handler.ExecuteSwap)
			swaps.GET("", handler.ListSwaps)
			swaps.GET("/:id", handler.GetSwap)
			swaps.PUT("/:id", handler.UpdateSwap)
			swaps.DELETE("/:id", handler.DeleteSwap)
		}

		feedback := v1.Group("/feedback")
		{
			feedback.POST("", handler.SubmitFeedback)
			feedback.GET("", handler.ListFeedback)
			feedback.GET("/:id", handler.GetFeedback)
			feedback.PUT("/:id", handler.UpdateFeedback)
			feedback.DELETE("/:id", handler.DeleteFeedback)
		}

		v1.GET("/stats/retailer", handler.RetailerStats)
		v1.POST("/embeddings/generate", handler.GenerateEmbeddings)
	}

	return router
}
