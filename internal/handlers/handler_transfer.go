package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dispersa-mx/spei_ledger/internal/apperrors"
	portssvc "github.com/dispersa-mx/spei_ledger/internal/core/ports/services"
	"github.com/dispersa-mx/spei_ledger/internal/dto"
	"github.com/dispersa-mx/spei_ledger/internal/middleware"
)

// transferHandler handles HTTP requests for outgoing transfers.
type transferHandler struct {
	transferService portssvc.TransferSvcFacade
}

func newTransferHandler(ts portssvc.TransferSvcFacade) *transferHandler {
	return &transferHandler{transferService: ts}
}

// registerTransferRoutes registers routes related to transfers.
func registerTransferRoutes(rg *gin.RouterGroup, transferService portssvc.TransferSvcFacade) {
	h := newTransferHandler(transferService)

	transfers := rg.Group("/transfers")
	{
		transfers.POST("", h.createTransfer)
		transfers.GET("/:id", h.getTransfer)
		transfers.POST("/:id/cancel", h.cancelTransfer)
		transfers.POST("/:id/retry", h.retryTransfer)
		transfers.GET("/:id/transitions", h.listTransitions)
	}
}

func (h *transferHandler) createTransfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateTransfer", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Actor user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txn, err := h.transferService.CreateOutgoing(c.Request.Context(), req, actor, c.ClientIP())
	if err != nil {
		var insufficient *apperrors.InsufficientFundsError
		switch {
		case errors.As(err, &insufficient):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":     "Insufficient funds",
				"available": insufficient.Available.StringFixed(2),
			})
		case errors.Is(err, apperrors.ErrLockConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Account is busy, retry shortly"})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create transfer", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create transfer"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToTransferResponse(txn))
}

func (h *transferHandler) getTransfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("id")

	txn, err := h.transferService.GetTransaction(c.Request.Context(), transactionID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		case errors.Is(err, apperrors.ErrSignatureMissing), errors.Is(err, apperrors.ErrSignatureMismatch):
			// The row is returned anyway: a tampered transaction must be
			// visible, flagged, not hidden.
			resp := dto.ToTransferResponse(txn)
			c.JSON(http.StatusOK, gin.H{"transaction": resp, "integrity": err.Error()})
		default:
			logger.Error("Failed to get transaction", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get transaction"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToTransferResponse(txn))
}

func (h *transferHandler) cancelTransfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("id")

	actor, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	err := h.transferService.Cancel(c.Request.Context(), transactionID, actor, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		case errors.Is(err, apperrors.ErrInvalidStateTransition):
			c.JSON(http.StatusConflict, gin.H{"error": "Transaction is no longer cancelable"})
		default:
			logger.Error("Failed to cancel transaction", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel transaction"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "canceled"})
}

func (h *transferHandler) retryTransfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("id")

	actor, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	err := h.transferService.RetryFailed(c.Request.Context(), transactionID, actor, c.ClientIP())
	if err != nil {
		var insufficient *apperrors.InsufficientFundsError
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		case errors.As(err, &insufficient):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":     "Insufficient funds",
				"available": insufficient.Available.StringFixed(2),
			})
		case errors.Is(err, apperrors.ErrLockConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Account is busy, retry shortly"})
		case errors.Is(err, apperrors.ErrInvalidStateTransition):
			c.JSON(http.StatusConflict, gin.H{"error": "Only failed transactions can be retried"})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to retry transaction", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retry transaction"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "retried"})
}

func (h *transferHandler) listTransitions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("id")

	entries, err := h.transferService.ListTransitions(c.Request.Context(), transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
			return
		}
		logger.Error("Failed to list transitions", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transitions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transitions": dto.ToTransitionResponseSlice(entries)})
}
