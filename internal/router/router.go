package router

import (
	"github.com/gin-gonic/gin"

	"docbench/internal/config"
	"docbench/internal/handler"
	"docbench/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	benchmarkH *handler.BenchmarkHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	v1.GET("/analyzers", benchmarkH.ListAnalyzers)

	benchmark := v1.Group("/benchmark")
	benchmark.POST("/runs", benchmarkH.CreateRun)
	benchmark.GET("/runs", benchmarkH.ListRuns)
	benchmark.GET("/runs/:id", benchmarkH.GetRun)
	benchmark.GET("/runs/:id/export", benchmarkH.ExportRun)

	return r
}
