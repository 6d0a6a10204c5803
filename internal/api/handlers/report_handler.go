package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/creds"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/domain"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/service"
)

// ReportHandler serves the product-level profitability reports.
type ReportHandler struct {
	store   creds.Store
	reports *service.ReportService
}

func NewReportHandler(store creds.Store, reports *service.ReportService) *ReportHandler {
	return &ReportHandler{store: store, reports: reports}
}

type belowCostRequest struct {
	USDRate      decimal.Decimal `json:"usdRate"`
	WarehouseIDs []string        `json:"warehouseIds"`
}

func (h *ReportHandler) BelowCost(c *gin.Context) {
	var req belowCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	token, ok := moySkladToken(c, h.store)
	if !ok {
		return
	}

	report, err := h.reports.BelowCost(c.Request.Context(), token, req.USDRate)
	if err != nil {
		upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type lowMarginRequest struct {
	USDRate          decimal.Decimal `json:"usdRate"`
	MinMarginPercent decimal.Decimal `json:"minMarginPercent"`
	WarehouseIDs     []string        `json:"warehouseIds"`
}

func (h *ReportHandler) LowMargin(c *gin.Context) {
	var req lowMarginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	token, ok := moySkladToken(c, h.store)
	if !ok {
		return
	}

	report, err := h.reports.LowMargin(c.Request.Context(), token, req.USDRate, req.MinMarginPercent)
	if err != nil {
		upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Runs exposes the report-run history recorded by the run log.
func (h *ReportHandler) Runs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	runs, err := h.reports.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		upstreamError(c, err)
		return
	}
	if runs == nil {
		runs = []domain.ReportRun{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}
