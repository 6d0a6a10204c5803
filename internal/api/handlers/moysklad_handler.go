package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/creds"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/moysklad"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/service"
)

// MoySkladHandler proxies the MoySklad collections for the session's token.
type MoySkladHandler struct {
	store   creds.Store
	reports *service.ReportService
}

func NewMoySkladHandler(store creds.Store, reports *service.ReportService) *MoySkladHandler {
	return &MoySkladHandler{store: store, reports: reports}
}

func (h *MoySkladHandler) GetWarehouses(c *gin.Context) {
	token, ok := moySkladToken(c, h.store)
	if !ok {
		return
	}

	warehouses, err := h.reports.Warehouses(c.Request.Context(), token)
	if err != nil {
		upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"warehouses": warehouses, "count": len(warehouses)})
}

func (h *MoySkladHandler) GetProducts(c *gin.Context) {
	token, ok := moySkladToken(c, h.store)
	if !ok {
		return
	}

	products, err := h.reports.Products(c.Request.Context(), token)
	if err != nil {
		upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

type salesRequest struct {
	DateFrom     string   `json:"dateFrom" binding:"required"`
	DateTo       string   `json:"dateTo" binding:"required"`
	WarehouseIDs []string `json:"warehouseIds"`
}

func (h *MoySkladHandler) GetSales(c *gin.Context) {
	var req salesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dateFrom and dateTo are required"})
		return
	}
	if _, err := moysklad.ParsePeriod(req.DateFrom, req.DateTo); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, ok := moySkladToken(c, h.store)
	if !ok {
		return
	}

	summary, err := h.reports.Sales(c.Request.Context(), token, moysklad.SalesQuery{
		DateFrom:     req.DateFrom,
		DateTo:       req.DateTo,
		WarehouseIDs: req.WarehouseIDs,
	})
	if err != nil {
		upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type salesPositionsRequest struct {
	DateFrom     string          `json:"dateFrom" binding:"required"`
	DateTo       string          `json:"dateTo" binding:"required"`
	WarehouseIDs []string        `json:"warehouseIds"`
	USDRate      decimal.Decimal `json:"usdRate"`
}

func (h *MoySkladHandler) GetSalesPositions(c *gin.Context) {
	var req salesPositionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dateFrom and dateTo are required"})
		return
	}
	if _, err := moysklad.ParsePeriod(req.DateFrom, req.DateTo); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, ok := moySkladToken(c, h.store)
	if !ok {
		return
	}

	report, err := h.reports.SalesPositions(c.Request.Context(), token, service.PositionsRequest{
		DateFrom:     req.DateFrom,
		DateTo:       req.DateTo,
		WarehouseIDs: req.WarehouseIDs,
		USDRate:      req.USDRate,
	})
	if err != nil {
		upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
