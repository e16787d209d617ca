package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/brightpath/brightpath-backend/internal/handlers"
	"github.com/brightpath/brightpath-backend/internal/logger"
)

type RouterConfig struct {
	RecommendationHandler *handlers.RecommendationHandler
	CourseHandler         *handlers.CourseHandler
	AllowOrigins          []string
	Log                   *logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(cfg.Log))

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/courses", cfg.CourseHandler.ListCourses)

		api.POST("/students/:studentId/recommendations", cfg.RecommendationHandler.GenerateRecommendations)
		api.POST("/students/:studentId/recommendations/by-type", cfg.RecommendationHandler.GenerateRecommendationsByType)
		api.GET("/students/:studentId/recommendations", cfg.RecommendationHandler.ListSavedRecommendations)
		api.PATCH("/recommendations/:id/status", cfg.RecommendationHandler.UpdateStatus)

		api.POST("/skill-gaps/matches", cfg.RecommendationHandler.MatchSkillGaps)
	}

	return router
}
