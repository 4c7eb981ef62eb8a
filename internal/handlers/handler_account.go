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

// accountHandler serves derived sub-account balances.
type accountHandler struct {
	balanceService portssvc.BalanceSvcFacade
}

func newAccountHandler(bs portssvc.BalanceSvcFacade) *accountHandler {
	return &accountHandler{balanceService: bs}
}

// registerAccountRoutes registers routes related to sub-accounts.
func registerAccountRoutes(rg *gin.RouterGroup, balanceService portssvc.BalanceSvcFacade) {
	h := newAccountHandler(balanceService)

	accounts := rg.Group("/accounts")
	{
		accounts.GET("/:id/balance", h.getBalance)
	}
}

func (h *accountHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	clabeAccountID := c.Param("id")

	balance, err := h.balanceService.Balance(c.Request.Context(), clabeAccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		logger.Error("Failed to derive balance", slog.String("clabe_account_id", clabeAccountID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to derive balance"})
		return
	}

	c.JSON(http.StatusOK, dto.ToBalanceResponse(balance))
}
