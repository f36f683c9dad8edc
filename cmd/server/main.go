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

	"resale-console/internal/api"
	"resale-console/internal/config"
	"resale-console/internal/database"
	"resale-console/internal/logging"
	"resale-console/internal/logs"
	"resale-console/internal/storage"
	"resale-console/internal/store"
	"resale-console/internal/workflow"
	"resale-console/internal/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	gin.SetMode(cfg.Server.Mode)

	writer, err := logs.NewDailyWriter(cfg.Log.Dir)
	if err != nil {
		slog.Error("failed to open log directory", "dir", cfg.Log.Dir, "error", err)
		os.Exit(1)
	}
	defer writer.Close()

	hub := ws.NewHub()
	level := new(slog.LevelVar)
	level.Set(logging.ParseLevel(cfg.Log.Level))
	logging.Setup(level, os.Stderr, logs.NewHandler(writer, hub, level))
	logger := logging.WithModule("Server")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.SyncSettings(db, cfg); err != nil {
		logger.Error("failed to synchronize settings", "error", err)
		os.Exit(1)
	}
	level.Set(logging.ParseLevel(cfg.Log.Level))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	archive, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	router := api.NewRouter(api.Deps{
		Config:    cfg,
		DB:        db,
		Hub:       hub,
		Storage:   archive,
		Workflows: store.NewWorkflows(db, workflow.WithIDGenerator(workflow.TimeIDs(time.Now))),
		LogLevel:  level,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Server.Port, "db_driver", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	} else {
		logger.Info("server gracefully stopped")
	}
	stopHub()
}
