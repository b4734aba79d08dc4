package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yeah-genie/chalk-backend/internal/handlers"
	"github.com/yeah-genie/chalk-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler     *handlers.AuthHandler
	AuthMiddleware  *middleware.AuthMiddleware
	StudentHandler  *handlers.StudentHandler
	SessionHandler  *handlers.SessionHandler
	AnalysisHandler *handlers.AnalysisHandler
	TaxonomyHandler *handlers.TaxonomyHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("chalk-backend"))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	// Students
	api.POST("/students", cfg.StudentHandler.Register)
	api.GET("/students", cfg.StudentHandler.List)
	api.DELETE("/students/:id", cfg.StudentHandler.Delete)
	api.GET("/students/:id/mastery", cfg.StudentHandler.Mastery)
	api.GET("/students/:id/sessions", cfg.SessionHandler.ListForStudent)
	// Sessions
	api.POST("/sessions", cfg.SessionHandler.Schedule)
	api.GET("/sessions/:id", cfg.SessionHandler.Get)
	api.POST("/sessions/:id/cancel", cfg.SessionHandler.Cancel)
	api.POST("/sessions/analyze", cfg.AnalysisHandler.AnalyzeSession)
	api.GET("/sessions/:id/analysis-progress", cfg.AnalysisHandler.Progress)
	// Taxonomy review
	api.GET("/taxonomy/proposals", cfg.TaxonomyHandler.ListPending)
	api.POST("/taxonomy/proposals/:id/approve", cfg.TaxonomyHandler.Approve)
	api.POST("/taxonomy/proposals/:id/reject", cfg.TaxonomyHandler.Reject)

	return router
}
