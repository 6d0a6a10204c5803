// internal/domain/models.go
package domain

import "github.com/shopspring/decimal"

// Warehouse represents a MoySklad store entity.
type Warehouse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Product is a catalog entry with its cost and sale prices. Products are
// fetched fresh per analysis request and are immutable once parsed.
type Product struct {
	ID        string `json:"id"`
	Name      string `json:"productName"`
	Code      string `json:"productCode"`
	BuyPrice  Money  `json:"buyPrice"`
	SalePrice Money  `json:"salePrice"`
}

// SalesPosition is one line of a retail sale document. PurchasePrice may be
// inherited from the parent product when the document line omits it.
type SalesPosition struct {
	ID              string          `json:"id"`
	DocumentID      string          `json:"documentId"`
	DocumentName    string          `json:"documentName"`
	DocumentNumber  string          `json:"documentNumber"`
	SaleDate        string          `json:"saleDate"`
	ProductID       string          `json:"productId"`
	ProductName     string          `json:"productName"`
	ProductCode     string          `json:"productCode"`
	Quantity        decimal.Decimal `json:"quantity"`
	SalePrice       decimal.Decimal `json:"salePrice"`
	DiscountPercent decimal.Decimal `json:"discount"`
	PurchasePrice   Money           `json:"purchasePrice"`
}

// EffectiveSalePrice applies the line discount multiplicatively.
func (p SalesPosition) EffectiveSalePrice() decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	return p.SalePrice.Mul(hundred.Sub(p.DiscountPercent)).Div(hundred)
}

// SalesSummary aggregates the profitability report over a period.
type SalesSummary struct {
	Actual       decimal.Decimal `json:"actual"`
	GrossSales   decimal.Decimal `json:"grossSales"`
	Returns      decimal.Decimal `json:"returns"`
	ReturnsCount int             `json:"returnsCount"`
	CheckCount   int             `json:"checkCount"`
	AverageCheck decimal.Decimal `json:"averageCheck"`
}
