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
	"github.com/go-chi/cors"

	authhandler "github.com/planora/planora-backend/internal/auth/handler"
	"github.com/planora/planora-backend/internal/auth/jwt"
	authrepository "github.com/planora/planora-backend/internal/auth/repository"
	authservice "github.com/planora/planora-backend/internal/auth/service"
	"github.com/planora/planora-backend/internal/planning/consumers"
	"github.com/planora/planora-backend/internal/planning/events"
	"github.com/planora/planora-backend/internal/planning/handler"
	"github.com/planora/planora-backend/internal/planning/repository"
	"github.com/planora/planora-backend/internal/planning/service"
	"github.com/planora/planora-backend/pkg/config"
	"github.com/planora/planora-backend/pkg/database"
	"github.com/planora/planora-backend/pkg/httputil"
	"github.com/planora/planora-backend/pkg/logger"
	"github.com/planora/planora-backend/pkg/messaging"
)

func main() {
	cfg, err := config.LoadWithValidation("planning-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("planning-service", cfg.Server.Environment)
	log.Info().Msg("starting Planning Service")

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

	// Repositories
	accountRepo := authrepository.NewAccountRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	planningRepo := repository.NewPlanningRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	summaryRepo := repository.NewSummaryRepository(db)
	roleRepo := repository.NewRoleRepository(db)

	// Services
	accessService := service.NewAccessService(roleRepo, publisher, log)
	jwtManager := jwt.NewManager(&cfg.JWT)
	authService := authservice.NewAuthService(accountRepo, jwtManager, accessService, log.Logger)
	employeeService := service.NewEmployeeService(employeeRepo, log)
	taskService := service.NewTaskService(taskRepo, log)
	planningService := service.NewPlanningService(db, planningRepo, slotRepo, availabilityRepo, leaveRepo, publisher, log)
	slotService := service.NewSlotService(db, slotRepo, planningRepo, availabilityRepo, leaveRepo, summaryRepo, publisher, log)
	availabilityService := service.NewAvailabilityService(availabilityRepo, employeeRepo, log)
	leaveService := service.NewLeaveService(leaveRepo, employeeRepo, publisher, log)
	summaryService := service.NewSummaryService(db, slotRepo, summaryRepo, publisher, log)

	// Keeps the permission cache coherent when another instance changes a role.
	accessConsumer, err := consumers.NewAccessEventConsumer(rmq, accessService, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create access event consumer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := accessConsumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start access event consumer")
	}

	// Handlers
	authHandler := authhandler.NewAuthHandler(authService)
	employeeHandler := handler.NewEmployeeHandler(employeeService, log)
	taskHandler := handler.NewTaskHandler(taskService, log)
	planningHandler := handler.NewPlanningHandler(planningService, log)
	slotHandler := handler.NewSlotHandler(slotService, log)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityService, log)
	leaveHandler := handler.NewLeaveHandler(leaveService, log)
	summaryHandler := handler.NewSummaryHandler(summaryService, log)
	accessHandler := handler.NewAccessHandler(accessService, log)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "planning-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// Public auth routes
	r.Route("/api/v1/auth", func(r chi.Router) {
		authHandler.Routes(r)
		r.Group(func(r chi.Router) {
			r.Use(httputil.Auth(jwtManager))
			authHandler.ProtectedRoutes(r)
		})
	})

	// Authenticated API
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httputil.Auth(jwtManager))

		r.Route("/employees", employeeHandler.Routes)
		r.Route("/tasks", taskHandler.Routes)
		r.Route("/plannings", planningHandler.Routes)
		r.Route("/slots", slotHandler.Routes)
		r.Route("/availabilities", availabilityHandler.Routes)
		r.Route("/leaves", leaveHandler.Routes)
		r.Route("/summaries", summaryHandler.Routes)
		r.Route("/access", accessHandler.Routes)
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
