package router

import (
	"github.com/gin-gonic/gin"

	"spotter/internal/handler"
	"spotter/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	productH *handler.ProductHandler,
	runH *handler.RunHandler,
	healthH *handler.HealthHandler,
	corsOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(corsOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")
	v1.GET("/products", productH.List)
	v1.GET("/runs", runH.List)

	return r
}
