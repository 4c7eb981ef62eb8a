package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dispersa-mx/spei_ledger/internal/apperrors"
	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	portssvc "github.com/dispersa-mx/spei_ledger/internal/core/ports/services"
	"github.com/dispersa-mx/spei_ledger/internal/dto"
	"github.com/dispersa-mx/spei_ledger/internal/middleware"
)

const maxWebhookBody = 1 << 20 // 1 MiB

// webhookHandler receives the banking partner's notifications. Source trust
// and rate limiting are applied by middleware before requests land here.
type webhookHandler struct {
	webhookService portssvc.WebhookSvcFacade
}

func newWebhookHandler(ws portssvc.WebhookSvcFacade) *webhookHandler {
	return &webhookHandler{webhookService: ws}
}

// registerWebhookRoutes registers the partner-facing webhook endpoints.
func registerWebhookRoutes(rg *gin.RouterGroup, webhookService portssvc.WebhookSvcFacade) {
	h := newWebhookHandler(webhookService)

	rg.POST("/deposit", h.deposit)
	rg.POST("/order-status", h.orderStatus)
}

func (h *webhookHandler) readBody(c *gin.Context) ([]byte, bool) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil || len(raw) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty or unreadable body"})
		return nil, false
	}
	return raw, true
}

func (h *webhookHandler) deposit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	raw, ok := h.readBody(c)
	if !ok {
		return
	}

	event, err := dto.ParseDepositPayload(raw)
	if err != nil {
		logger.Warn("Malformed deposit payload", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sourceIP := middleware.GetVerifiedClientIP(c)
	outcome, err := h.webhookService.ProcessDeposit(c.Request.Context(), event, raw, sourceIP)
	h.respond(c, outcome, err)
}

func (h *webhookHandler) orderStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	raw, ok := h.readBody(c)
	if !ok {
		return
	}

	event, err := dto.ParseOrderStatusPayload(raw)
	if err != nil {
		logger.Warn("Malformed order status payload", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sourceIP := middleware.GetVerifiedClientIP(c)
	outcome, err := h.webhookService.ProcessOrderStatus(c.Request.Context(), event, raw, sourceIP)
	h.respond(c, outcome, err)
}

// respond maps webhook outcomes to HTTP. Duplicates answer 200 so the partner
// stops retrying an already handled notification.
func (h *webhookHandler) respond(c *gin.Context, outcome domain.WebhookOutcome, err error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrMalformedWebhookPayload):
			c.JSON(http.StatusBadRequest, gin.H{"result": string(outcome), "error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"result": string(outcome), "error": "Unknown order"})
		case errors.Is(err, apperrors.ErrInvalidStateTransition):
			c.JSON(http.StatusConflict, gin.H{"result": string(outcome), "error": "Status update not applicable"})
		default:
			logger.Error("Webhook processing failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"result": string(outcome), "error": "Processing failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": string(outcome)})
}
