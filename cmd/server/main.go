package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/inboxx/inboxx/internal/api"
	"github.com/inboxx/inboxx/internal/attachment"
	"github.com/inboxx/inboxx/internal/cleanup"
	"github.com/inboxx/inboxx/internal/config"
	"github.com/inboxx/inboxx/internal/health"
	"github.com/inboxx/inboxx/internal/inbound"
	"github.com/inboxx/inboxx/internal/inbox"
	"github.com/inboxx/inboxx/internal/logger"
	"github.com/inboxx/inboxx/internal/message"
	"github.com/inboxx/inboxx/internal/metrics"
	"github.com/inboxx/inboxx/internal/middleware"
	"github.com/inboxx/inboxx/internal/parser"
	"github.com/inboxx/inboxx/internal/repository"
	"github.com/inboxx/inboxx/internal/sanitizer"
	"github.com/inboxx/inboxx/internal/storage"
)

const (
	rateLimit       = 100
	rateLimitWindow = time.Minute
)

func main() {
	log := logger.New(logger.DefaultConfig())

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := repository.Connect(ctx, cfg.Database.URL)
	cancel()
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	blobs := storage.NewService(&cfg.Storage)

	inboxRepo := repository.NewInboxRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	eventRepo := repository.NewEventRepository(db)

	responder := api.NewResponder(log, cfg.Server.IsProduction())

	inboundService := inbound.NewService(
		blobs,
		inboxRepo,
		messageRepo,
		attachmentRepo,
		eventRepo,
		parser.NewEmailParser(),
		cfg.Mail.Domain,
		cfg.Mail.Retention,
		log,
	)
	inboxService := inbox.NewService(inboxRepo, messageRepo, attachmentRepo)
	messageService := message.NewService(messageRepo, attachmentRepo, blobs, sanitizer.NewHTMLSanitizer())
	attachmentService := attachment.NewService(attachmentRepo, blobs)
	cleanupService := cleanup.NewService(blobs, messageRepo, inboxRepo, eventRepo, log)

	inboundHandler := inbound.NewHandler(inboundService, responder, log)
	inboxHandler := inbox.NewHandler(inboxService, responder, log)
	messageHandler := message.NewHandler(messageService, responder, log)
	attachmentHandler := attachment.NewHandler(attachmentService, responder, log)
	cleanupHandler := cleanup.NewHandler(cleanupService, responder, log)
	healthHandler := health.NewHandler(db, responder, log)

	rateLimiter := middleware.NewRateLimiter(rateLimit, rateLimitWindow)

	dbStats := metrics.NewDBStatsCollector(db, log)
	dbStats.Start(15 * time.Second)
	defer dbStats.Stop()

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.RequestLogger(log))
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimiter.Middleware(responder))

		inbound.RegisterRoutes(r, inboundHandler)
		inbox.RegisterRoutes(r, inboxHandler)
		message.RegisterRoutes(r, messageHandler)
		attachment.RegisterRoutes(r, attachmentHandler)
		cleanup.RegisterRoutes(r, cleanupHandler)
	})

	var scheduler *cleanup.Scheduler
	if cfg.Cleanup.Interval > 0 {
		scheduler = cleanup.NewScheduler(cleanupService, cfg.Cleanup.Interval, log)
		if err := scheduler.Start(); err != nil {
			log.Error("Failed to start cleanup scheduler", "error", err)
			os.Exit(1)
		}
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Starting server", "addr", cfg.Server.Addr(), "env", cfg.Server.Env, "domain", cfg.Mail.Domain)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
