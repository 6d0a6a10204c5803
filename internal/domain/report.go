package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BelowCostItem is a product whose normalized sale price is below its
// normalized cost price. Loss is always positive for emitted items.
type BelowCostItem struct {
	Product
	BuyPriceUZS  decimal.Decimal `json:"buyPriceUZS"`
	SalePriceUZS decimal.Decimal `json:"salePriceUZS"`
	Loss         decimal.Decimal `json:"loss"`
}

type BelowCostSummary struct {
	TotalProducts int             `json:"totalProducts"`
	TotalLoss     decimal.Decimal `json:"totalLoss"`
	// SkippedUSD counts items whose USD prices normalized to zero because
	// no exchange rate was supplied; they are excluded from the pass.
	SkippedUSD int `json:"skippedUSD,omitempty"`
}

// LowMarginItem is a product with a non-negative margin percent below the
// caller-chosen threshold.
type LowMarginItem struct {
	Product
	BuyPriceUZS   decimal.Decimal `json:"buyPriceUZS"`
	SalePriceUZS  decimal.Decimal `json:"salePriceUZS"`
	Margin        decimal.Decimal `json:"margin"`
	MarginPercent decimal.Decimal `json:"marginPercent"`
}

type LowMarginSummary struct {
	TotalProducts    int             `json:"totalProducts"`
	TotalMargin      decimal.Decimal `json:"totalMargin"`
	AvgMarginPercent decimal.Decimal `json:"avgMarginPercent"`
	SkippedUSD       int             `json:"skippedUSD,omitempty"`
}

// BelowCostPosition is a sales line sold below cost; loss metrics carry the
// per-unit loss and the quantity-weighted total.
type BelowCostPosition struct {
	SalesPosition
	PurchasePriceUZS decimal.Decimal `json:"purchasePriceUZS"`
	SalePriceUZS     decimal.Decimal `json:"salePriceUZS"`
	Loss             decimal.Decimal `json:"loss"`
	LossTotal        decimal.Decimal `json:"lossTotal"`
}

type PositionsSummary struct {
	TotalPositions int             `json:"totalPositions"`
	TotalLoss      decimal.Decimal `json:"totalLoss"`
	TotalQuantity  decimal.Decimal `json:"totalQuantity"`
}

// ProductSalesAggregate groups sale positions of one product.
type ProductSalesAggregate struct {
	ProductID         string              `json:"productId"`
	ProductName       string              `json:"productName"`
	ProductCode       string              `json:"productCode"`
	TotalQuantity     decimal.Decimal     `json:"totalQuantity"`
	TotalSales        decimal.Decimal     `json:"totalSales"`
	TotalCost         decimal.Decimal     `json:"totalCost"`
	BelowCostQuantity decimal.Decimal     `json:"belowCostQuantity"`
	BelowCostSales    decimal.Decimal     `json:"belowCostSales"`
	BelowCostLoss     decimal.Decimal     `json:"belowCostLoss"`
	HasBelowCost      bool                `json:"hasBelowCost"`
	MinSalePrice      decimal.Decimal     `json:"minSalePrice"`
	MaxSalePrice      decimal.Decimal     `json:"maxSalePrice"`
	AvgSalePrice      decimal.Decimal     `json:"avgSalePrice"`
	Positions         []BelowCostPosition `json:"positions"`
}

// ReportRun is the audit-log record of one report request. Only run
// metadata is recorded; product and position data is never persisted.
type ReportRun struct {
	ID         int64     `json:"id" db:"id"`
	Kind       string    `json:"kind" db:"kind"`
	DateFrom   string    `json:"date_from" db:"date_from"`
	DateTo     string    `json:"date_to" db:"date_to"`
	ItemCount  int       `json:"item_count" db:"item_count"`
	MatchCount int       `json:"match_count" db:"match_count"`
	DurationMS int64     `json:"duration_ms" db:"duration_ms"`
	Error      string    `json:"error,omitempty" db:"error_text"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
