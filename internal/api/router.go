package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "scifind-backend/docs"
	"scifind-backend/internal/api/handlers"
	"scifind-backend/internal/api/middleware"
	"scifind-backend/internal/services"
)

// NewRouter builds the HTTP surface of spec 6: GET /search, the
// per-paper detail/related/annotation endpoints, the bookmark/notes
// listing endpoints, and the ambient health/swagger/docs routes.
func NewRouter(
	searchService services.SearchServiceInterface,
	paperService services.PaperServiceInterface,
	healthHandler *handlers.HealthHandler,
	logger *slog.Logger,
) *gin.Engine {
	// Set Gin mode based on environment
	if gin.Mode() == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CorsMiddleware(middleware.DefaultCorsConfig()))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.StructuredLoggingMiddleware(logger))
	router.Use(gin.Recovery())

	// Register health endpoints first (without auth)
	healthHandler.RegisterRoutes(router)

	searchHandler := handlers.NewSearchHandler(searchService, logger)
	paperHandler := handlers.NewPaperHandler(paperService, logger)

	router.GET("/search", searchHandler.Search)

	router.GET("/paper/:id", paperHandler.GetPaper)
	router.GET("/paper/:id/related", paperHandler.Related)
	router.PUT("/paper/:id/select", paperHandler.Select)
	router.PUT("/paper/:id/comment", paperHandler.Comment)

	router.GET("/papers/bookmarked", paperHandler.Bookmarked)
	router.GET("/papers/with-notes", paperHandler.WithNotes)

	// Swagger documentation endpoints
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/swagger", func(c *gin.Context) {
		c.Redirect(301, "/swagger/index.html")
	})

	// Legacy documentation endpoint (JSON index pointing at the Swagger UI)
	router.GET("/docs", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message":      "scifind backend API documentation",
			"version":      "1.0.0",
			"swagger_ui":   "/swagger/index.html",
			"openapi_spec": "/swagger/doc.json",
			"endpoints": gin.H{
				"health":    "/health",
				"search":    "/search",
				"paper":     "/paper/:id",
				"related":   "/paper/:id/related",
				"select":    "/paper/:id/select",
				"comment":   "/paper/:id/comment",
				"saved":     "/papers/bookmarked",
				"annotated": "/papers/with-notes",
			},
			"mcp_server": gin.H{
				"description": "this server also supports Model Context Protocol",
				"methods":     []string{"search", "get_paper", "list_capabilities", "get_schema", "ping"},
			},
		})
	})

	// Root endpoint
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "scifind backend",
			"version": "1.0.0",
			"status":  "running",
			"docs":    "/docs",
			"health":  "/health",
		})
	})

	return router
}
