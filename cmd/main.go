package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yeah-genie/chalk-backend/internal/db"
	"github.com/yeah-genie/chalk-backend/internal/handlers"
	"github.com/yeah-genie/chalk-backend/internal/logger"
	"github.com/yeah-genie/chalk-backend/internal/middleware"
	"github.com/yeah-genie/chalk-backend/internal/observability"
	"github.com/yeah-genie/chalk-backend/internal/repos"
	"github.com/yeah-genie/chalk-backend/internal/server"
	"github.com/yeah-genie/chalk-backend/internal/services"
	"github.com/yeah-genie/chalk-backend/internal/utils"
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

	// Tracing
	ctx := context.Background()
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "chalk-backend",
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if shutdownOTel != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOTel(shutdownCtx)
		}()
	}

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)

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
	tutorRepo := repos.NewTutorRepo(thePG, log)
	studentRepo := repos.NewStudentRepo(thePG, log)
	sessionRepo := repos.NewSessionRepo(thePG, log)
	sessionTopicRepo := repos.NewSessionTopicRepo(thePG, log)
	masteryRepo := repos.NewStudentMasteryRepo(thePG, log)
	proposalRepo := repos.NewTaxonomyProposalRepo(thePG, log)
	kbRepo := repos.NewKnowledgeBaseRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Warn("Could not init BucketService", "error", err)
	}
	transcriber, err := services.NewTranscriber(log)
	if err != nil {
		log.Error("Could not init Transcriber", "error", err)
		os.Exit(1)
	}
	defer transcriber.Close()
	extractionClient, err := services.NewExtractionClient(log)
	if err != nil {
		log.Error("Could not init ExtractionClient", "error", err)
		os.Exit(1)
	}
	progressStore, err := services.NewRedisProgressStore(log)
	if err != nil {
		log.Warn("Redis unavailable, tracking analysis progress in memory", "error", err)
		progressStore = services.NewMemoryProgressStore()
	}
	graphMirror, err := services.NewGraphMirror(log)
	if err != nil {
		log.Warn("Could not init GraphMirror", "error", err)
	}

	authService := services.NewAuthService(thePG, log, tutorRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
	studentService := services.NewStudentService(thePG, log, studentRepo, kbRepo)
	masteryService := services.NewMasteryService(thePG, log, masteryRepo)
	sessionService := services.NewSessionService(thePG, log, sessionRepo, studentRepo)
	taxonomyService := services.NewTaxonomyService(thePG, log, proposalRepo, kbRepo, graphMirror)
	analysisService := services.NewAnalysisService(
		thePG,
		log,
		studentRepo,
		sessionRepo,
		sessionTopicRepo,
		kbRepo,
		proposalRepo,
		masteryService,
		sessionService,
		transcriber,
		extractionClient,
		bucketService,
		progressStore,
	)

	// Curriculum seed
	seedPath := utils.GetEnv("CURRICULUM_SEED_PATH", "seed/curriculum.yaml", log)
	seeder := services.NewCurriculumSeeder(thePG, log, kbRepo)
	if err := seeder.SeedFromFile(ctx, seedPath); err != nil {
		log.Warn("Curriculum seed failed", "path", seedPath, "error", err)
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	studentHandler := handlers.NewStudentHandler(studentService, masteryService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	analysisHandler := handlers.NewAnalysisHandler(log, analysisService)
	taxonomyHandler := handlers.NewTaxonomyHandler(taxonomyService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:     authHandler,
		AuthMiddleware:  authMiddleware,
		StudentHandler:  studentHandler,
		SessionHandler:  sessionHandler,
		AnalysisHandler: analysisHandler,
		TaxonomyHandler: taxonomyHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
