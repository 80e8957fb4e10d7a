package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/planora/planora-backend/internal/planning/consumers"
	"github.com/planora/planora-backend/internal/planning/events"
	"github.com/planora/planora-backend/internal/planning/repository"
	"github.com/planora/planora-backend/internal/planning/service"
	"github.com/planora/planora-backend/pkg/config"
	"github.com/planora/planora-backend/pkg/database"
	"github.com/planora/planora-backend/pkg/httputil"
	"github.com/planora/planora-backend/pkg/logger"
	"github.com/planora/planora-backend/pkg/messaging"
)

func main() {
	cfg, err := config.LoadWithValidation("summary-worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("summary-worker", cfg.Server.Environment)
	log.Info().Msg("starting Summary Worker")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	publisher, err := events.NewPlanningEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	slotRepo := repository.NewSlotRepository(db)
	summaryRepo := repository.NewSummaryRepository(db)
	summaryService := service.NewSummaryService(db, slotRepo, summaryRepo, publisher, log)

	consumer, err := consumers.NewSlotEventConsumer(rmq, summaryService, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create slot event consumer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := consumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start slot event consumer")
	}

	// Health endpoint only; the worker has no API surface.
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Recoverer(log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "summary-worker",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("health endpoint listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
