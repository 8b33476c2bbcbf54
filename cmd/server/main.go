package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tomatyss/knotter/internal/handlers"
	"github.com/tomatyss/knotter/internal/middleware"
	"github.com/tomatyss/knotter/internal/repositories"
	"github.com/tomatyss/knotter/internal/services"
	"github.com/tomatyss/knotter/pkg/clock"
	"github.com/tomatyss/knotter/pkg/config"
	"github.com/tomatyss/knotter/pkg/database"
	"github.com/tomatyss/knotter/pkg/logger"
)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.AppConfig

	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	loc, err := time.LoadLocation(cfg.Engine.Timezone)
	if err != nil {
		logger.Fatalf("Failed to load timezone %q: %v", cfg.Engine.Timezone, err)
	}
	clk := clock.System(loc)

	// Initialize repositories
	contactRepo := repositories.NewContactRepository(db)
	emailRepo := repositories.NewContactEmailRepository(db)
	tagRepo := repositories.NewTagRepository(db)
	interactionRepo := repositories.NewInteractionRepository(db)
	dateRepo := repositories.NewContactDateRepository(db)
	candidateRepo := repositories.NewMergeCandidateRepository(db)
	linkedRepo := repositories.NewLinkedRecordRepository(db)

	// Initialize services
	dueService := services.NewDueService()
	filterService := services.NewFilterService()
	contactService := services.NewContactService(db, contactRepo, emailRepo, tagRepo,
		candidateRepo, dueService, filterService, clk, cfg.Engine.SoonWindowDays)
	interactionService := services.NewInteractionService(db, interactionRepo, contactRepo, dueService, clk)
	dateService := services.NewContactDateService(dateRepo, contactRepo, clk)
	candidateService := services.NewMergeCandidateService(candidateRepo, contactRepo, clk)
	mergeService := services.NewMergeService(db, contactRepo, emailRepo, tagRepo,
		interactionRepo, dateRepo, linkedRepo, candidateRepo, clk)
	scanService := services.NewScanService(db, contactRepo, candidateRepo, candidateService)
	loopService := services.NewLoopService(db, contactRepo, tagRepo, clk)
	exportService := services.NewExportService(contactService)

	// Initialize handlers
	contactHandler := handlers.NewContactHandler(contactService, interactionService, dateService, exportService)
	mergeHandler := handlers.NewMergeHandler(candidateService, mergeService, scanService)
	loopHandler := handlers.NewLoopHandler(loopService, cfg.Engine.LoopPolicyPath)

	// Initialize router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	setupRoutes(router, contactHandler, mergeHandler, loopHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Infof("Server starting on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown: %v", err)
	}
	logger.Info("Server stopped")
}

func setupRoutes(router *gin.Engine, contactHandler *handlers.ContactHandler,
	mergeHandler *handlers.MergeHandler, loopHandler *handlers.LoopHandler) {
	router.POST("/contacts", contactHandler.CreateContact)
	router.GET("/contacts", contactHandler.ListContacts)
	router.GET("/contacts/due", contactHandler.ListDueContacts)
	router.GET("/contacts/:id", contactHandler.GetContact)
	router.PUT("/contacts/:id", contactHandler.UpdateContact)
	router.DELETE("/contacts/:id", contactHandler.DeleteContact)
	router.POST("/contacts/:id/archive", contactHandler.SetArchived(true))
	router.POST("/contacts/:id/unarchive", contactHandler.SetArchived(false))
	router.POST("/contacts/:id/tags", contactHandler.AddTag)
	router.DELETE("/contacts/:id/tags/:name", contactHandler.RemoveTag)
	router.POST("/contacts/:id/touchpoint", contactHandler.ScheduleTouchpoint)
	router.POST("/contacts/:id/touchpoint/cadence", contactHandler.ScheduleByCadence)
	router.DELETE("/contacts/:id/touchpoint", contactHandler.ClearTouchpoint)
	router.POST("/contacts/:id/interactions", contactHandler.LogInteraction)
	router.GET("/contacts/:id/interactions", contactHandler.ListInteractions)
	router.POST("/contacts/:id/touch", contactHandler.TouchContact)
	router.POST("/contacts/:id/dates", contactHandler.UpsertDate)
	router.GET("/contacts/:id/dates", contactHandler.ListDates)
	router.GET("/dates/upcoming", contactHandler.ListUpcomingDates)
	router.POST("/export", contactHandler.ExportContacts)

	router.POST("/candidates", mergeHandler.CreateCandidate)
	router.GET("/candidates", mergeHandler.ListCandidates)
	router.POST("/candidates/:id/dismiss", mergeHandler.DismissCandidate)
	router.POST("/merge", mergeHandler.MergeContacts)
	router.POST("/scan/same-names", mergeHandler.ScanSameNames)

	router.POST("/loops/apply", loopHandler.ApplyPolicy)
}
