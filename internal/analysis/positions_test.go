package analysis

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/domain"
)

func position(id, productID, price, discount, purchase, qty string) domain.SalesPosition {
	return domain.SalesPosition{
		ID:              id,
		ProductID:       productID,
		ProductName:     "product " + productID,
		Quantity:        d(qty),
		SalePrice:       d(price),
		DiscountPercent: d(discount),
		PurchasePrice:   domain.Money{Amount: d(purchase), Currency: domain.CurrencyFromCode("UZS")},
	}
}

func TestEffectiveSalePrice(t *testing.T) {
	pos := position("1", "p", "100000", "15", "0", "1")
	assert.True(t, pos.EffectiveSalePrice().Equal(d("85000")))

	noDiscount := position("2", "p", "100000", "0", "0", "1")
	assert.True(t, noDiscount.EffectiveSalePrice().Equal(d("100000")))
}

func TestBelowCostPositions(t *testing.T) {
	positions := []domain.SalesPosition{
		// 90000 effective sale vs 100000 purchase: loss 10000 x 3 pcs
		position("1", "a", "100000", "10", "100000", "3"),
		// profitable line
		position("2", "b", "120000", "0", "100000", "2"),
		// no purchase price: excluded, not classified
		position("3", "c", "50000", "0", "0", "1"),
	}

	items, summary := BelowCostPositions(positions, decimal.Zero, nil)

	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].ID)
	assert.True(t, items[0].Loss.Equal(d("10000")))
	assert.True(t, items[0].LossTotal.Equal(d("30000")))

	assert.Equal(t, 1, summary.TotalPositions)
	assert.True(t, summary.TotalLoss.Equal(d("30000")))
	assert.True(t, summary.TotalQuantity.Equal(d("3")))
}

func TestGroupPositionsByProduct(t *testing.T) {
	positions := []domain.SalesPosition{
		position("1", "a", "100000", "10", "100000", "3"), // below cost
		position("2", "a", "150000", "0", "100000", "1"),  // profitable, same product
		position("3", "b", "80000", "0", "50000", "2"),
	}

	groups := GroupPositionsByProduct(positions, decimal.Zero)
	require.Len(t, groups, 2)

	a := groups[0]
	assert.Equal(t, "a", a.ProductID)
	assert.True(t, a.HasBelowCost)
	assert.True(t, a.TotalQuantity.Equal(d("4")))
	// 90000*3 + 150000*1
	assert.True(t, a.TotalSales.Equal(d("420000")), "totalSales = %s", a.TotalSales)
	assert.True(t, a.MinSalePrice.Equal(d("90000")))
	assert.True(t, a.MaxSalePrice.Equal(d("150000")))
	assert.True(t, a.AvgSalePrice.Equal(d("105000")))
	assert.True(t, a.BelowCostQuantity.Equal(d("3")))
	assert.True(t, a.BelowCostLoss.Equal(d("30000")))

	b := groups[1]
	assert.Equal(t, "b", b.ProductID)
	assert.False(t, b.HasBelowCost)
}
