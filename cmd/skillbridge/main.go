package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/davepi/skillbridge/internal/config"
	"github.com/davepi/skillbridge/internal/eventfeed"
	"github.com/davepi/skillbridge/internal/httpapi"
	"github.com/davepi/skillbridge/internal/logger"
	"github.com/davepi/skillbridge/internal/n8n"
	"github.com/davepi/skillbridge/internal/observability"
	"github.com/davepi/skillbridge/internal/skill"
)

func main() {
	// A missing .env is fine; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info"})
		fallback.Fatal().Err(err).Msg("config error")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	webhook := n8n.NewClient(cfg.WebhookURL, cfg.WebhookAPIKey, cfg.WebhookTimeout, log)
	feed := eventfeed.New()
	router := skill.NewRouter(webhook, metrics, feed, log, cfg.HistoryRetention, cfg.HistoryWindow)

	api := httpapi.New(cfg, router, feed, metrics, log)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Info().Str("addr", cfg.BindAddr).Str("webhook", cfg.WebhookURL).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		_ = httpServer.Close()
	}

	log.Info().Msg("shutdown complete")
}
