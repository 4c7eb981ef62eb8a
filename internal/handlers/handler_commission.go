package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/dispersa-mx/spei_ledger/internal/core/ports/services"
	"github.com/dispersa-mx/spei_ledger/internal/middleware"
)

// commissionHandler exposes the manual cutoff trigger. The scheduler runs the
// cutoff daily; this endpoint exists for catch-up after incidents.
type commissionHandler struct {
	commissionService portssvc.CommissionSvcFacade
}

func newCommissionHandler(cs portssvc.CommissionSvcFacade) *commissionHandler {
	return &commissionHandler{commissionService: cs}
}

// registerCommissionRoutes registers routes related to commission cutoffs.
func registerCommissionRoutes(rg *gin.RouterGroup, commissionService portssvc.CommissionSvcFacade) {
	h := newCommissionHandler(commissionService)

	rg.POST("/commissions/cutoff", h.runCutoff)
}

func (h *commissionHandler) runCutoff(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	actor, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	logger.Info("Manual cutoff triggered", slog.String("actor", actor), slog.String("date", date.Format("2006-01-02")))

	summary, err := h.commissionService.RunDailyCutoff(c.Request.Context(), date)
	if err != nil {
		logger.Error("Cutoff run failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cutoff run failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"companiesProcessed": summary.CompaniesProcessed,
		"cutoffsCreated":     summary.CutoffsCreated,
		"cutoffsSkipped":     summary.CutoffsSkipped,
		"cutoffsFailed":      summary.CutoffsFailed,
	})
}
