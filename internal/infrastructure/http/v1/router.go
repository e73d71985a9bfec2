// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"salesreports/internal/infrastructure/http/v1/handlers"
	"salesreports/internal/infrastructure/http/v1/middleware"
	"salesreports/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Database backs the readiness and info probes
	Database handlers.Database

	// Reports serves the sales report endpoints
	Reports handlers.SalesReporter

	// Logger for request logging
	Logger *logger.Logger

	// Location the date query parameters are read in
	Location *time.Location

	// CurrencyExponent is the number of decimal places of exported amounts
	CurrencyExponent int32

	// Version is reported by /health/info
	Version string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Database, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	{
		registerReportRoutes(v1, cfg)
	}

	return router
}

// registerReportRoutes registers sales report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	reportsHandler := handlers.NewReportsHandler(baseHandler, cfg.Reports, cfg.Location, cfg.CurrencyExponent)
	reportsHandler.RegisterRoutes(rg.Group("/reports/sales"))
}
