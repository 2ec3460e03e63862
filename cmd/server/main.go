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

	"github.com/joho/godotenv"

	"github.com/arfacturas8-ai/crm-calendar/config"
	"github.com/arfacturas8-ai/crm-calendar/internal/clients/caldav"
	"github.com/arfacturas8-ai/crm-calendar/internal/feed"
	"github.com/arfacturas8-ai/crm-calendar/internal/service"
	"github.com/arfacturas8-ai/crm-calendar/internal/storage"
	"github.com/arfacturas8-ai/crm-calendar/internal/web"
)

func main() {
	// Load .env first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewFallbackStore(cfg.FallbackPath)
	if err != nil {
		logger.Error("init fallback store", "error", err)
		os.Exit(1)
	}

	remote, err := caldav.NewClient(logger, cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword, cfg.CalendarPath)
	if err != nil {
		logger.Error("init CalDAV client", "error", err)
		os.Exit(1)
	}

	events := service.NewEventService(logger, remote, store)
	publisher := feed.NewPublisher(logger, remote, cfg.FeedToken)
	server := web.NewServer(logger, events, publisher)

	httpServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: server.Handler(),
	}

	go func() {
		logger.Info("calendar sync server started", "port", cfg.ServerPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
