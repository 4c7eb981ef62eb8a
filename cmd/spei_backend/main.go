package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/dispersa-mx/spei_ledger/internal/core/services"
	"github.com/dispersa-mx/spei_ledger/internal/dto"
	"github.com/dispersa-mx/spei_ledger/internal/gateways/spei"
	"github.com/dispersa-mx/spei_ledger/internal/handlers"
	"github.com/dispersa-mx/spei_ledger/internal/middleware"
	"github.com/dispersa-mx/spei_ledger/internal/platform/cache"
	"github.com/dispersa-mx/spei_ledger/internal/platform/config"
	"github.com/dispersa-mx/spei_ledger/internal/repositories/database/pgsql"
	"github.com/dispersa-mx/spei_ledger/internal/utils/signing"
	"github.com/dispersa-mx/spei_ledger/pkg/database"
	"github.com/dispersa-mx/spei_ledger/pkg/scheduler"

	portssvc "github.com/dispersa-mx/spei_ledger/internal/core/ports/services"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(logger, cfg.DatabaseURL); err != nil {
		logger.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Shared state for webhook dedup and rate-limit counters: Redis when
	// configured, in-process otherwise (single instance only).
	var dedupCache cache.Store
	var rateStore limiter.Store
	if cfg.RedisURL != "" {
		redisStore, err := cache.NewRedisStore(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Error("Failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		dedupCache = redisStore
		rateStore, err = sredis.NewStoreWithOptions(redisStore.Client(), limiter.StoreOptions{
			Prefix:   "ratelimit",
			MaxRetry: 3,
		})
		if err != nil {
			logger.Error("Failed to initialize Redis rate-limit store", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Redis dedup cache and rate-limit store connected.")
	} else {
		dedupCache = cache.NewMemoryStore()
		rateStore = memorystore.NewStore()
		logger.Warn("Running with in-process dedup cache and rate counters; not safe for multiple instances.")
	}

	signer := signing.NewSigner(cfg.TxnSigningKey)
	if !signer.Enabled() {
		logger.Warn("Transaction signing disabled; integrity verification will report missing signatures.")
	}

	txnRepo := pgsql.NewTransactionRepository(dbPool)
	accountRepo := pgsql.NewClabeAccountRepository(dbPool)
	webhookRepo := pgsql.NewWebhookRepository(dbPool)
	commissionRepo := pgsql.NewCommissionRepository(dbPool)
	auditRepo := pgsql.NewAuditRepository(dbPool)

	gateway := spei.NewLogGateway()

	auditSvc := services.NewAuditService(auditRepo)
	transferSvc := services.NewTransferService(txnRepo, accountRepo, gateway, signer, auditSvc, cfg.GracePeriod)
	balanceSvc := services.NewBalanceService(txnRepo, accountRepo)
	commissionSvc := services.NewCommissionService(commissionRepo, accountRepo, txnRepo, gateway, signer)
	webhookSvc := services.NewWebhookService(webhookRepo, txnRepo, accountRepo, commissionSvc, auditSvc, dedupCache, signer)

	container := &portssvc.ServiceContainer{
		Transfer:   transferSvc,
		Balance:    balanceSvc,
		Webhook:    webhookSvc,
		Commission: commissionSvc,
		Audit:      auditSvc,
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := dto.RegisterCustomValidators(); err != nil {
		logger.Error("Failed to register validators", slog.String("error", err.Error()))
		os.Exit(1)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())

	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, container, rateStore)

	jobs := scheduler.New(logger)
	jobCtx := middleware.WithLogger(context.Background(), logger)
	jobs.Every("sweep-expired-holds", cfg.SweepInterval, func(ctx context.Context) error {
		_, err := transferSvc.SweepExpired(middleware.WithLogger(ctx, logger))
		return err
	})
	jobs.DailyAt("commission-cutoff", cfg.CutoffHour, func(ctx context.Context) error {
		_, err := commissionSvc.RunDailyCutoff(middleware.WithLogger(ctx, logger), time.Now().UTC())
		return err
	})
	jobs.Start(jobCtx)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	jobs.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", slog.String("error", err.Error()))
	}
	logger.Info("Server stopped.")
}

// runMigrations applies pending schema migrations through a temporary
// database/sql connection compatible with the pgx pool.
func runMigrations(logger *slog.Logger, databaseURL string) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
