package main

import (
	"context"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/hiro4859/syukatsu-base-v2/internal/app"
	"github.com/hiro4859/syukatsu-base-v2/internal/auth"
	"github.com/hiro4859/syukatsu-base-v2/internal/config"
	"github.com/hiro4859/syukatsu-base-v2/internal/database"
	"github.com/hiro4859/syukatsu-base-v2/internal/handlers"
	"github.com/hiro4859/syukatsu-base-v2/internal/logging"
	"github.com/hiro4859/syukatsu-base-v2/internal/services"
	"github.com/hiro4859/syukatsu-base-v2/internal/store"
)

const imageBaseURL = "/api/v1/images/"

func main() {
	ctx := context.Background()

	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}

	// 2. Database
	db, err := database.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		logger.WithError(err).Fatal("database connection failed")
	}
	if err := database.Migrate(db, logger); err != nil {
		logger.WithError(err).Fatal("migration failed")
	}

	// 3. Sessions
	revoker, err := auth.NewRevoker(ctx, cfg.RedisURL)
	if err != nil {
		logger.WithError(err).Fatal("token revocation store unavailable")
	}
	broker := auth.NewBroker()
	events, stop := broker.Subscribe()
	defer stop()
	go logSessionEvents(logger, events)

	tokens := auth.NewTokens([]byte(cfg.JWTSecret), cfg.SessionTTL)

	// 4. Services
	clock := services.SystemClock(cfg.Location)
	model, err := services.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.WithError(err).Warn("entry sheet review disabled")
		model = nil
	}

	h := &handlers.Handler{
		Resolver:    app.NewResolver(db, cfg.Location),
		Auth:        services.NewAuthService(db, tokens, revoker, broker, logger),
		Companies:   services.NewCompanyService(logger, clock, imageBaseURL),
		Tasks:       services.NewTaskService(logger, clock),
		Deadlines:   services.NewDeadlineService(logger, clock),
		Steps:       services.NewSelectionStepService(logger),
		EntrySheets: services.NewEntrySheetService(logger),
		Analysis:    services.NewAnalysisService(logger, clock),
		Profiles:    services.NewProfileService(logger),
		Review:      services.NewReviewService(model, logger),
		Images:      store.PublicObjects(db),
		Log:         logger,
	}

	// 5. Router and CORS
	r := gin.Default()
	r.MaxMultipartMemory = 8 << 20
	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	h.Register(r.Group("/api/v1"))

	logger.WithField("port", cfg.Port).Info("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}

func logSessionEvents(l *log.Logger, events <-chan auth.Event) {
	for ev := range events {
		entry := l.WithField("event", ev.Type)
		if ev.Session != nil {
			entry = entry.WithField("user_id", ev.Session.User.ID)
		}
		entry.Info("session changed")
	}
}
