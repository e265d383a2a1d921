package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"buildportal/internal/adapters"
	"buildportal/internal/directory"
	"buildportal/internal/dispatch"
	"buildportal/internal/docstore"
	apphttp "buildportal/internal/http"
	"buildportal/internal/http/router"
	"buildportal/internal/invoice"
	"buildportal/internal/messaging"
	messagingsvc "buildportal/internal/messaging/service"
	"buildportal/internal/quotation"
	"buildportal/internal/workflow"
	"buildportal/platform/config"
	"buildportal/platform/db"
	"buildportal/platform/events"
	"buildportal/platform/logger"
	"buildportal/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	store := docstore.NewPostgresStore(pool)

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Participant directory backs recipient resolution and message validation
	dir := directory.NewService(directory.NewRepository(store))

	rateLimiter := initRateLimiter(cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	quotationModule := quotation.NewModule(store, eventBus, val)
	invoiceModule := invoice.NewModule(store, eventBus, val)
	workflowModule := workflow.NewModule(store, dir, eventBus, val, log)
	messagingModule := messaging.NewModule(store, dir, rateLimiter, val, log)

	// Anti-Corruption Layer: adapters keep cross-module dependencies narrow.
	quotationSource := adapters.NewQuotationSourceAdapter(quotationModule.Repository())
	invoiceModule.Service().SetQuotationSource(quotationSource)
	quotationModule.SetInvoiceConverter(invoiceModule.Service())

	// Optional asynq dispatcher for out-of-process message delivery
	if cfg.GetRedisURL() != "" {
		dispatchClient, err := dispatch.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize dispatch client", "error", err)
			panic("failed to initialize dispatch client: " + err.Error())
		}
		defer dispatchClient.Close()
		workflowModule.Service().SetDispatcher(dispatchClient)
		log.Info("dispatch client initialized", "queue", cfg.GetDispatchQueueName())
	} else {
		log.Info("dispatch client disabled, workflow messages stay in-app only")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			quotationModule,
			invoiceModule,
			workflowModule,
			messagingModule,
		},
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initRateLimiter selects the message rate-limiter backend from config.
func initRateLimiter(cfg config.RateLimitConfig, log *logger.Logger) messagingsvc.RateLimiter {
	if cfg.UseRedisRateLimiter() {
		opts, err := redis.ParseURL(cfg.GetRedisURL())
		if err != nil {
			log.Error("invalid redis URL for rate limiter", "error", err)
			panic("invalid redis URL for rate limiter: " + err.Error())
		}
		log.Info("rate limiter backend selected", "backend", "redis")
		return messagingsvc.NewRedisRateLimiter(redis.NewClient(opts))
	}
	log.Info("rate limiter backend selected", "backend", "memory")
	return messagingsvc.NewMemoryRateLimiter()
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return fmt.Errorf("%s: %w", name, lastErr)
}
