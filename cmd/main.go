package main

import (
	"context"
	"fmt"
	"os"

	"github.com/safefloor/safefloor-backend/internal/db"
	"github.com/safefloor/safefloor-backend/internal/handlers"
	"github.com/safefloor/safefloor-backend/internal/logger"
	"github.com/safefloor/safefloor-backend/internal/repos"
	"github.com/safefloor/safefloor-backend/internal/server"
	"github.com/safefloor/safefloor-backend/internal/services"
	"github.com/safefloor/safefloor-backend/internal/utils"
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
	log.Info("Loading environment variables from main...")
	port := utils.GetEnv("PORT", "8080", log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	policyRepo := repos.NewRoomPolicyRepo(thePG, log)
	entryRepo := repos.NewEntryRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	policyCache, err := services.NewRedisPolicyCache(log)
	if err != nil {
		log.Warn("Could not init policy cache, lookups go straight to Postgres", "error", err)
		policyCache = nil
	}
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Warn("Could not init BucketService, images and badges disabled", "error", err)
		bucketService = nil
	}
	detectorService, err := services.NewDetectorService(log)
	if err != nil {
		log.Warn("Could not init DetectorService, image entries record empty observations", "error", err)
		detectorService = nil
	}
	aiClient, err := services.NewOpenAIClient(log)
	if err != nil {
		log.Warn("Could not init OpenAIClient, reports use plain narratives", "error", err)
		aiClient = nil
	}

	// Badge rendering only needs the font; the bucket is optional and gates
	// storage, not the GET endpoint.
	badgeService, err := services.NewBadgeService(thePG, log, userRepo, bucketService)
	if err != nil {
		log.Warn("Could not init BadgeService, users created without badges", "error", err)
		badgeService = nil
	}

	policyService := services.NewPolicyService(thePG, log, policyRepo, policyCache)
	userService := services.NewUserService(thePG, log, userRepo, badgeService)
	entryService := services.NewEntryService(thePG, log, entryRepo, userRepo, policyService, detectorService, bucketService)
	reportService := services.NewReportService(thePG, log, entryService, aiClient)

	// Seed policies
	seeds, err := services.LoadSeedPolicies(log)
	if err != nil {
		log.Error("Seed file unreadable", "error", err)
		os.Exit(1)
	}
	created, err := policyService.SeedDefaults(context.Background(), seeds)
	if err != nil {
		log.Error("Seeding room policies failed", "error", err)
		os.Exit(1)
	}
	log.Info("Room policies seeded", "created", created)

	// Handlers
	log.Info("Setting up handlers from main...")
	userHandler := handlers.NewUserHandler(log, userService, entryService, badgeService)
	roomHandler := handlers.NewRoomHandler(log, policyService, entryService)
	policyHandler := handlers.NewPolicyHandler(log, policyService, entryService)
	entryHandler := handlers.NewEntryHandler(log, entryService)
	reportHandler := handlers.NewReportHandler(log, reportService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		Log:           log,
		UserHandler:   userHandler,
		RoomHandler:   roomHandler,
		PolicyHandler: policyHandler,
		EntryHandler:  entryHandler,
		ReportHandler: reportHandler,
	})

	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
