package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"

	portssvc "github.com/dispersa-mx/spei_ledger/internal/core/ports/services"
	"github.com/dispersa-mx/spei_ledger/internal/middleware"
	"github.com/dispersa-mx/spei_ledger/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using
// interfaces. rateStore backs the webhook rate limiter; nil falls back to a
// process-local store.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	rateStore limiter.Store,
) {
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	r.GET("/", getHome)

	setupWebhookRoutes(r, cfg, services, rateStore)
	setupAPIV1Routes(r, cfg, services)
}

// setupAPIV1Routes configures the authenticated /api/v1 group.
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))

	registerTransferRoutes(v1, services.Transfer)
	registerAccountRoutes(v1, services.Balance)
	registerCommissionRoutes(v1, services.Commission)
	registerAuditRoutes(v1, services.Audit)
}

// setupWebhookRoutes configures the partner-facing /webhooks group: source
// trust gate first, then rate limiting, then the handlers.
func setupWebhookRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	rateStore limiter.Store,
) {
	rate, err := limiter.NewRateFromFormatted(cfg.WebhookRateLimit)
	if err != nil {
		slog.Warn("Invalid webhook rate limit, using default", slog.String("configured", cfg.WebhookRateLimit))
		rate, _ = limiter.NewRateFromFormatted("60-M")
	}
	if rateStore == nil {
		rateStore = memorystore.NewStore()
	}
	limiterInstance := limiter.New(rateStore, rate)

	webhooks := r.Group("/webhooks",
		middleware.WebhookSourceMiddleware(cfg.WebhookAllowedIPs, cfg.TrustedProxies, services.Audit),
		middleware.RateLimit(limiterInstance),
	)
	registerWebhookRoutes(webhooks, services.Webhook)
}
