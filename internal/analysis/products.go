// Package analysis holds the pure classification passes over normalized
// products and sales positions. Everything here is deterministic and free of
// I/O; progress reporting is the only observable side channel.
package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/currency"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/domain"
)

// DefaultMinMarginPercent is applied when callers do not choose a threshold.
var DefaultMinMarginPercent = decimal.NewFromInt(10)

var hundred = decimal.NewFromInt(100)

// Progress is invoked after each processed chunk with the number of items
// classified so far, the total, and a stage label. Chunking affects only
// observability, never the result.
type Progress func(done, total int, stage string)

const progressChunk = 100

func report(p Progress, done, total int, stage string) {
	if p != nil && (done%progressChunk == 0 || done == total) {
		p(done, total, stage)
	}
}

// BelowCostProducts emits every product whose normalized sale price is
// strictly below its normalized cost price. Products missing either price
// (or whose USD price dropped to zero for lack of a rate) are excluded from
// the pass entirely.
func BelowCostProducts(products []domain.Product, usdRate decimal.Decimal, progress Progress) ([]domain.BelowCostItem, domain.BelowCostSummary) {
	items := make([]domain.BelowCostItem, 0)
	summary := domain.BelowCostSummary{TotalLoss: decimal.Zero}

	total := len(products)
	for i, p := range products {
		report(progress, i+1, total, "below-cost")

		if !p.BuyPrice.IsPositive() || !p.SalePrice.IsPositive() {
			continue
		}
		if currency.Dropped(p.BuyPrice, usdRate) || currency.Dropped(p.SalePrice, usdRate) {
			summary.SkippedUSD++
			continue
		}

		buyUZS := currency.NormalizeMoney(p.BuyPrice, usdRate)
		saleUZS := currency.NormalizeMoney(p.SalePrice, usdRate)
		if !buyUZS.IsPositive() || !saleUZS.IsPositive() || !saleUZS.LessThan(buyUZS) {
			continue
		}

		loss := buyUZS.Sub(saleUZS)
		items = append(items, domain.BelowCostItem{
			Product:      p,
			BuyPriceUZS:  buyUZS,
			SalePriceUZS: saleUZS,
			Loss:         loss,
		})
		summary.TotalLoss = summary.TotalLoss.Add(loss)
	}

	summary.TotalProducts = len(items)
	return items, summary
}

// LowMarginProducts emits products whose margin percent sits in
// [0, threshold). Negative margins belong to the below-cost pass, so for any
// threshold <= 100 the two passes partition the problem population.
func LowMarginProducts(products []domain.Product, usdRate, threshold decimal.Decimal, progress Progress) ([]domain.LowMarginItem, domain.LowMarginSummary) {
	if !threshold.IsPositive() {
		threshold = DefaultMinMarginPercent
	}

	items := make([]domain.LowMarginItem, 0)
	summary := domain.LowMarginSummary{
		TotalMargin:      decimal.Zero,
		AvgMarginPercent: decimal.Zero,
	}

	total := len(products)
	percentSum := decimal.Zero
	for i, p := range products {
		report(progress, i+1, total, "low-margin")

		if !p.BuyPrice.IsPositive() || !p.SalePrice.IsPositive() {
			continue
		}
		if currency.Dropped(p.BuyPrice, usdRate) || currency.Dropped(p.SalePrice, usdRate) {
			summary.SkippedUSD++
			continue
		}

		buyUZS := currency.NormalizeMoney(p.BuyPrice, usdRate)
		saleUZS := currency.NormalizeMoney(p.SalePrice, usdRate)
		if !buyUZS.IsPositive() || !saleUZS.IsPositive() {
			continue
		}

		margin := saleUZS.Sub(buyUZS)
		marginPercent := margin.Div(buyUZS).Mul(hundred)
		if marginPercent.IsNegative() || !marginPercent.LessThan(threshold) {
			continue
		}

		items = append(items, domain.LowMarginItem{
			Product:       p,
			BuyPriceUZS:   buyUZS,
			SalePriceUZS:  saleUZS,
			Margin:        margin,
			MarginPercent: marginPercent,
		})
		summary.TotalMargin = summary.TotalMargin.Add(margin)
		percentSum = percentSum.Add(marginPercent)
	}

	summary.TotalProducts = len(items)
	if len(items) > 0 {
		summary.AvgMarginPercent = percentSum.Div(decimal.NewFromInt(int64(len(items))))
	}
	return items, summary
}
