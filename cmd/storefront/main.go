package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Md-Rabbi-95/Khalab/internal/config"
	"github.com/Md-Rabbi-95/Khalab/internal/db"
	"github.com/Md-Rabbi-95/Khalab/internal/notifier"
	"github.com/Md-Rabbi-95/Khalab/internal/order"
	"github.com/Md-Rabbi-95/Khalab/internal/transport"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "storefront").Logger()

	log.Info().Msg("Storefront starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pg, err := db.New(ctx, cfg.Postgres)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	var mailer order.Notifier = notifier.Noop{}
	if cfg.SMTP.Host != "" {
		mailer = notifier.NewMailer(cfg.SMTP, cfg.Store.Name)
	} else {
		log.Warn().Msg("SMTP_HOST not set, order emails disabled")
	}

	router := transport.NewRouter(pg.Pool, cfg, mailer)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
