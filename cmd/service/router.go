package main

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"garden-alert-service/internal/handlers"
	"garden-alert-service/internal/middleware"
	"garden-alert-service/pkg/response"
)

func initRouter(
	logger *zap.Logger,
	health *handlers.HealthChecker,
	metricsHandler *handlers.MetricsHandler,
	wsHandler *handlers.SubscriberHandler,
) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())

	router.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "no such route")
	})

	router.GET("/health", health.Handle)
	router.GET("/metrics", metricsHandler.Handle)
	router.GET("/metrics/prometheus", metricsHandler.Prometheus)
	router.GET("/ws", wsHandler.Handle)

	return router
}
