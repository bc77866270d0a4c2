package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"keystone/auth"
	"keystone/cache"
	"keystone/chat"
	"keystone/config"
	"keystone/content"
	"keystone/database"
	"keystone/entities"
	"keystone/handlers"
	"keystone/leads"
	"keystone/llm"
	"keystone/logging"
	"keystone/media"
	"keystone/purge"
	"keystone/state"
)

const devUploadDir = "./uploads"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer logging.Install(logger)()

	if !cfg.DevMode() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create context with timeout for initial connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := database.Open(ctx, cfg.Store.Driver, cfg.Store.URL)
	if err != nil {
		zap.S().Fatalw("Failed to open store", "driver", cfg.Store.Driver, "error", err)
	}
	defer store.Close()

	cred, err := entities.CredentialFromKey(cfg.Store.ServiceRoleKey, cfg.DevMode())
	if err != nil {
		zap.S().Fatalw("Service credential unavailable", "error", err)
	}
	serviceClient, err := entities.NewServiceClient(store, cred)
	if err != nil {
		zap.S().Fatalw("Failed to build service client", "error", err)
	}

	var notifier *leads.Notifier
	if cfg.CRM.WebhookURL != "" {
		notifier = leads.NewNotifier(cfg.CRM.WebhookURL, cfg.CRM.FormKey, cfg.CRM.QueueSize, nil)
		defer notifier.Close()
	} else {
		zap.S().Info("CRM_WEBHOOK_URL not set, leads are stored only")
	}

	var backend llm.Backend
	gemini, err := llm.NewGemini(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
	switch {
	case err == nil:
		backend = gemini
	case errors.Is(err, llm.ErrUnavailable):
		zap.S().Warn("GEMINI_API_KEY not set, chat is disabled")
	default:
		zap.S().Fatalw("Failed to create LLM client", "error", err)
	}

	var (
		uploader  media.Uploader
		uploadDir string
	)
	if cfg.Media.CloudinaryURL != "" {
		uploader, err = media.NewCloudinary(cfg.Media.CloudinaryURL, cfg.Media.Folder)
	} else {
		zap.S().Warnw("CLOUDINARY_URL not set, storing uploads on disk", "dir", devUploadDir)
		uploadDir = devUploadDir
		uploader, err = media.NewDiskUploader(devUploadDir, "/uploads")
	}
	if err != nil {
		zap.S().Fatalw("Failed to set up uploads", "error", err)
	}

	qc := cache.New(cfg.Cache.Capacity, cfg.Cache.TTL)
	deps := handlers.Deps{
		Store:   store,
		Cache:   qc,
		Auth:    auth.NewService(store, cfg.Auth.SessionTTL),
		Content: content.NewService(store, qc),
		Leads:   leads.NewService(store, notifier),
		Chat:    chat.NewService(llm.New(backend), state.NewMemoryStore(cfg.Auth.SessionTTL)),
		Media:   media.NewService(uploader, cfg.Media.MaxBytes),
		Purger: purge.New(serviceClient, purge.Config{
			PageSize:   cfg.Reset.PageSize,
			ChunkSize:  cfg.Reset.ChunkSize,
			ChunkDelay: cfg.Reset.ChunkDelay,
			PageDelay:  cfg.Reset.PageDelay,
			MaxDeletes: cfg.Reset.MaxDeletes,
		}),
		UploadDir:      uploadDir,
		MaxUploadBytes: cfg.Media.MaxBytes,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(deps, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.S().Infow("Server starting", "addr", srv.Addr, "driver", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatalw("Server failed", "error", err)
		}
	}()

	stop, release := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer release()
	<-stop.Done()

	zap.S().Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.S().Errorw("Graceful shutdown failed", "error", err)
	}
}
