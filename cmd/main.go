package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/brightpath/brightpath-backend/internal/config"
	"github.com/brightpath/brightpath-backend/internal/db"
	"github.com/brightpath/brightpath-backend/internal/handlers"
	"github.com/brightpath/brightpath-backend/internal/logger"
	"github.com/brightpath/brightpath-backend/internal/openai"
	"github.com/brightpath/brightpath-backend/internal/repos"
	"github.com/brightpath/brightpath-backend/internal/server"
	"github.com/brightpath/brightpath-backend/internal/services"
	"github.com/brightpath/brightpath-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded", "error", err)
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	courseRepo := repos.NewCourseRepo(thePG, log)
	recommendationRepo := repos.NewRecommendationRepo(thePG, log)

	// Recommender config
	cfgPath := utils.GetEnv("RECOMMENDER_CONFIG_PATH", "", log)
	recommenderCfg, err := config.Load(cfgPath, log)
	if err != nil {
		log.Error("Recommender config load failed", "error", err, "path", cfgPath)
		os.Exit(1)
	}

	// Embedding client. Startup survives a missing key: the engine then
	// serves keyword-fallback recommendations only.
	var embedder services.Embedder
	openaiClient, err := openai.NewClient(log)
	if err != nil {
		log.Warn("Embedding client unavailable, keyword fallback only", "error", err)
	} else {
		embedder = openaiClient
	}

	// Services
	log.Info("Setting up Services from main...")
	recommendationService := services.NewRecommendationService(thePG, log, recommenderCfg, embedder, courseRepo, recommendationRepo)
	skillGapService := services.NewSkillGapService(thePG, log, recommenderCfg, embedder, courseRepo)
	catalogService := services.NewCourseCatalogService(thePG, log, courseRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	recommendationHandler := handlers.NewRecommendationHandler(log, recommendationService, skillGapService)
	courseHandler := handlers.NewCourseHandler(log, catalogService)

	// Router
	log.Info("Setting up router from main...")
	allowOrigins := strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000", log), ",")
	router := server.NewRouter(server.RouterConfig{
		RecommendationHandler: recommendationHandler,
		CourseHandler:         courseHandler,
		AllowOrigins:          allowOrigins,
		Log:                   log,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
