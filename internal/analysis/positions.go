package analysis

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/currency"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/domain"
)

// checkPosition normalizes one sales line. The sale side of a retail
// position is already in UZS; only the purchase price carries a currency.
func checkPosition(pos domain.SalesPosition, usdRate decimal.Decimal) domain.BelowCostPosition {
	purchaseUZS := currency.NormalizeMoney(pos.PurchasePrice, usdRate)
	saleUZS := pos.EffectiveSalePrice()

	out := domain.BelowCostPosition{
		SalesPosition:    pos,
		PurchasePriceUZS: purchaseUZS,
		SalePriceUZS:     saleUZS,
		Loss:             decimal.Zero,
		LossTotal:        decimal.Zero,
	}
	if saleUZS.LessThan(purchaseUZS) {
		out.Loss = purchaseUZS.Sub(saleUZS)
		out.LossTotal = out.Loss.Mul(pos.Quantity)
	}
	return out
}

// BelowCostPositions emits the sales lines sold below their purchase price.
// Lines without a positive purchase price are excluded from the pass.
func BelowCostPositions(positions []domain.SalesPosition, usdRate decimal.Decimal, progress Progress) ([]domain.BelowCostPosition, domain.PositionsSummary) {
	items := make([]domain.BelowCostPosition, 0)
	summary := domain.PositionsSummary{
		TotalLoss:     decimal.Zero,
		TotalQuantity: decimal.Zero,
	}

	total := len(positions)
	for i, pos := range positions {
		report(progress, i+1, total, "below-cost-positions")

		if !pos.PurchasePrice.IsPositive() {
			continue
		}
		checked := checkPosition(pos, usdRate)
		if !checked.PurchasePriceUZS.IsPositive() || checked.Loss.IsZero() {
			continue
		}

		items = append(items, checked)
		summary.TotalLoss = summary.TotalLoss.Add(checked.LossTotal)
		summary.TotalQuantity = summary.TotalQuantity.Add(pos.Quantity)
	}

	summary.TotalPositions = len(items)
	return items, summary
}

// GroupPositionsByProduct aggregates sale positions per product, tracking
// totals, the min/max/avg sale price and the below-cost share. Output order
// is deterministic (by product id) even though the accumulation is map-based.
func GroupPositionsByProduct(positions []domain.SalesPosition, usdRate decimal.Decimal) []domain.ProductSalesAggregate {
	byProduct := make(map[string]*domain.ProductSalesAggregate)

	for _, pos := range positions {
		checked := checkPosition(pos, usdRate)

		key := pos.ProductID
		if key == "" {
			key = pos.ProductCode
		}
		if key == "" {
			key = pos.ID
		}

		agg, ok := byProduct[key]
		if !ok {
			agg = &domain.ProductSalesAggregate{
				ProductID:         key,
				ProductName:       pos.ProductName,
				ProductCode:       pos.ProductCode,
				TotalQuantity:     decimal.Zero,
				TotalSales:        decimal.Zero,
				TotalCost:         decimal.Zero,
				BelowCostQuantity: decimal.Zero,
				BelowCostSales:    decimal.Zero,
				BelowCostLoss:     decimal.Zero,
				MinSalePrice:      checked.SalePriceUZS,
				MaxSalePrice:      checked.SalePriceUZS,
				AvgSalePrice:      decimal.Zero,
			}
			byProduct[key] = agg
		}

		agg.TotalQuantity = agg.TotalQuantity.Add(pos.Quantity)
		agg.TotalSales = agg.TotalSales.Add(checked.SalePriceUZS.Mul(pos.Quantity))
		agg.TotalCost = agg.TotalCost.Add(checked.PurchasePriceUZS.Mul(pos.Quantity))
		if checked.SalePriceUZS.LessThan(agg.MinSalePrice) {
			agg.MinSalePrice = checked.SalePriceUZS
		}
		if checked.SalePriceUZS.GreaterThan(agg.MaxSalePrice) {
			agg.MaxSalePrice = checked.SalePriceUZS
		}
		agg.Positions = append(agg.Positions, checked)

		if checked.Loss.IsPositive() {
			agg.HasBelowCost = true
			agg.BelowCostQuantity = agg.BelowCostQuantity.Add(pos.Quantity)
			agg.BelowCostSales = agg.BelowCostSales.Add(checked.SalePriceUZS.Mul(pos.Quantity))
			agg.BelowCostLoss = agg.BelowCostLoss.Add(checked.LossTotal)
		}
	}

	out := make([]domain.ProductSalesAggregate, 0, len(byProduct))
	for _, agg := range byProduct {
		if agg.TotalQuantity.IsPositive() {
			agg.AvgSalePrice = agg.TotalSales.Div(agg.TotalQuantity)
		}
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
