package analysis

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func uzs(s string) domain.Money {
	return domain.Money{Amount: d(s), Currency: domain.CurrencyFromCode("UZS")}
}

func usd(s string) domain.Money {
	return domain.Money{Amount: d(s), Currency: domain.CurrencyFromCode("USD")}
}

func product(id, buy, sale string) domain.Product {
	return domain.Product{ID: id, Name: "product " + id, Code: "c-" + id, BuyPrice: uzs(buy), SalePrice: uzs(sale)}
}

func TestBelowCostProducts(t *testing.T) {
	products := []domain.Product{
		product("a", "100000", "90000"),  // sold below cost, loss 10000
		product("b", "100000", "105000"), // profitable
		product("c", "0", "50000"),       // no cost price, excluded
		product("d", "100000", "100000"), // break-even is not below cost
	}

	items, summary := BelowCostProducts(products, decimal.Zero, nil)

	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)
	assert.True(t, items[0].Loss.Equal(d("10000")), "loss = %s", items[0].Loss)
	assert.Equal(t, 1, summary.TotalProducts)
	assert.True(t, summary.TotalLoss.Equal(d("10000")))
}

func TestBelowCostProducts_USDConversion(t *testing.T) {
	p := domain.Product{ID: "x", BuyPrice: usd("10"), SalePrice: uzs("90000")}

	// rate 12650: buy = 126500 UZS, above the 90000 sale, so below cost
	items, _ := BelowCostProducts([]domain.Product{p}, d("12650"), nil)
	require.Len(t, items, 1)
	assert.True(t, items[0].Loss.Equal(d("36500")))

	// without a rate the USD cost normalizes to zero and the item is
	// skipped, not classified
	items, summary := BelowCostProducts([]domain.Product{p}, decimal.Zero, nil)
	assert.Empty(t, items)
	assert.Equal(t, 1, summary.SkippedUSD)
}

func TestLowMarginProducts(t *testing.T) {
	products := []domain.Product{
		product("a", "100000", "90000"),  // negative margin goes to the below-cost pass
		product("b", "100000", "105000"), // 5% margin
		product("c", "100000", "125000"), // 25% margin, above threshold
		product("d", "0", "50000"),       // missing cost, excluded
		product("e", "100000", "100000"), // exactly 0% margin
	}

	items, summary := LowMarginProducts(products, decimal.Zero, d("10"), nil)

	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID)
	assert.True(t, items[0].MarginPercent.Equal(d("5")), "marginPercent = %s", items[0].MarginPercent)
	assert.Equal(t, "e", items[1].ID)
	assert.True(t, items[1].MarginPercent.IsZero())

	assert.Equal(t, 2, summary.TotalProducts)
	assert.True(t, summary.TotalMargin.Equal(d("5000")))
	assert.True(t, summary.AvgMarginPercent.Equal(d("2.5")), "avg = %s", summary.AvgMarginPercent)
}

func TestLowMarginProducts_DefaultThreshold(t *testing.T) {
	products := []domain.Product{product("b", "100000", "105000")}

	items, _ := LowMarginProducts(products, decimal.Zero, decimal.Zero, nil)
	require.Len(t, items, 1)
}

// The two passes must partition the problem population: no product may
// appear in both result sets for thresholds <= 100.
func TestPassesAreDisjoint(t *testing.T) {
	products := []domain.Product{
		product("a", "100000", "90000"),
		product("b", "100000", "105000"),
		product("c", "100000", "100000"),
		product("d", "100000", "199000"),
		product("e", "50", "40"),
	}

	below, _ := BelowCostProducts(products, decimal.Zero, nil)
	low, _ := LowMarginProducts(products, decimal.Zero, d("100"), nil)

	seen := make(map[string]bool)
	for _, item := range below {
		seen[item.ID] = true
	}
	for _, item := range low {
		assert.False(t, seen[item.ID], "product %s in both passes", item.ID)
	}
}

func TestProgressChunking(t *testing.T) {
	products := make([]domain.Product, 250)
	for i := range products {
		products[i] = product("p", "100", "90")
	}

	var calls []int
	progress := func(done, total int, stage string) {
		assert.Equal(t, "below-cost", stage)
		assert.Equal(t, 250, total)
		calls = append(calls, done)
	}

	withProgress, _ := BelowCostProducts(products, decimal.Zero, progress)
	without, _ := BelowCostProducts(products, decimal.Zero, nil)

	assert.Equal(t, []int{100, 200, 250}, calls)
	// chunking is observability only
	assert.Equal(t, len(without), len(withProgress))
}
