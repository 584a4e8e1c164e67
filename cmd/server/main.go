package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brgykiosk/fulfillment/internal/config"
	"github.com/brgykiosk/fulfillment/internal/gcp"
	"github.com/brgykiosk/fulfillment/internal/receipt"
	"github.com/brgykiosk/fulfillment/internal/render"
	"github.com/brgykiosk/fulfillment/internal/server"
	"github.com/brgykiosk/fulfillment/internal/services"
	"github.com/brgykiosk/fulfillment/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("Server exited with error.", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	firestoreClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return err
	}
	defer firestoreClient.Close()

	driveService, err := gcp.NewDriveService(ctx, cfg.DriveCredentialsFile)
	if err != nil {
		return err
	}

	var archiver services.Archiver
	if cfg.ArchiveBucket != "" {
		storageClient, err := gcp.NewStorageClient(ctx)
		if err != nil {
			return err
		}
		defer storageClient.Close()
		archiver = &gcp.Archive{Bucket: storageClient.Bucket(cfg.ArchiveBucket)}
	}

	requests := store.NewRequests(firestoreClient, cfg.RequestsCollection)
	allocator := &store.Allocator{Counters: store.NewCounters(firestoreClient, cfg.CountersCollection)}
	gateway := &services.DriveGateway{Service: driveService, FolderID: cfg.DriveFolderID, Log: logger}

	engine := &render.Engine{
		Converter:       &render.HTTPConverter{BaseURL: cfg.ConverterURL, Client: &http.Client{}},
		SofficeBin:      cfg.SofficeBin,
		ScratchRoot:     cfg.ScratchDir,
		PrimaryTimeout:  cfg.PrimaryTimeout,
		FallbackTimeout: cfg.FallbackTimeout,
		Log:             logger,
	}
	compositor := &render.ImageCompositor{AssetDir: cfg.TemplateDir, Log: logger}

	handlers := &server.Handlers{
		Orchestrator: &services.Orchestrator{
			Store:      requests,
			Allocator:  allocator,
			Renderer:   engine,
			Compositor: compositor,
			Remote:     gateway,
			Archive:    archiver,
			Log:        logger,
		},
		Reconcile: &services.ReconcileService{Store: requests, Remote: gateway, Log: logger},
		Lifecycle: &services.LifecycleService{Store: requests, Remote: gateway, Log: logger},
		Remote:    gateway,
		Printer:   &receipt.Printer{Name: cfg.PrinterName},
		Log:       logger,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.NewRouter(handlers, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening.", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("Shutting down.", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
