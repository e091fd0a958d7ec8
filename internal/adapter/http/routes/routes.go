package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lutheralien/to-do-api/internal/adapter/http/handler"
	"github.com/lutheralien/to-do-api/internal/adapter/http/helper"
	"github.com/lutheralien/to-do-api/internal/core/port"
	"github.com/lutheralien/to-do-api/internal/core/telemetry"
	. "github.com/lutheralien/to-do-api/pkg/config"
	"github.com/lutheralien/to-do-api/pkg/middlewares"
)

type HandlersConfig struct {
	TodoHandler   *handler.TodoHandler
	HealthHandler *handler.HealthHandler
}

func SetupRouterWithConfig(handlers HandlersConfig, metrics *telemetry.AppMetrics, logger *LokiLogger, config *AppConfig, cache port.CacheRepository) *gin.Engine {
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(recovery(logger))
	middlewares.SetupGinMiddlewareWithConfig(router, metrics, logger, config, cache)

	setupRoutes(router, handlers)

	return router
}

// SetupRouterForTests wires the routes without rate limiting or caching.
func SetupRouterForTests(handlers HandlersConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(recovery(NewNopLogger()))
	router.Use(middlewares.CorsMiddleware())

	setupRoutes(router, handlers)

	return router
}

func setupRoutes(router *gin.Engine, handlers HandlersConfig) {
	router.HandleMethodNotAllowed = false

	if handlers.HealthHandler != nil {
		router.GET("/health", handlers.HealthHandler.Health)
	}

	if handlers.TodoHandler != nil {
		router.GET("/", handlers.TodoHandler.NotFound)

		todos := router.Group("/todos")
		{
			todos.GET("", handlers.TodoHandler.GetAllTodos)
			todos.POST("", handlers.TodoHandler.CreateTodo)
			todos.GET("/:id", handlers.TodoHandler.GetTodo)
			todos.PUT("/:id", handlers.TodoHandler.UpdateTodo)
			todos.DELETE("/:id", handlers.TodoHandler.DeleteTodo)
		}

		router.NoRoute(handlers.TodoHandler.NotFound)
	}
}

func recovery(logger *LokiLogger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.ErrorWithTrace(c.Request.Context(), "Recovered from panic",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path))

		helper.SendInternalError(c)
		c.Abort()
	})
}
