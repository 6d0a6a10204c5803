package gap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/domain"
)

func stockFile(name string, rows ...domain.StockRow) domain.StockFile {
	return domain.StockFile{Name: name, Rows: rows}
}

func TestAnalyzeBasicGaps(t *testing.T) {
	warehouse := []domain.StockFile{stockFile("warehouse.xlsx",
		domain.StockRow{Code: "A", Name: "Товар А", Quantity: 10},
		domain.StockRow{Code: "B", Name: "Товар Б", Quantity: 5},
	)}
	stores := []domain.StockFile{
		stockFile("store1.xlsx", domain.StockRow{Code: "A", Quantity: 3}),
		stockFile("store2.xlsx"),
	}

	gaps := Analyze(warehouse, stores)
	require.Len(t, gaps, 2)

	assert.Equal(t, "store1.xlsx", gaps[0].StoreName)
	require.Len(t, gaps[0].Items, 1)
	assert.Equal(t, "B", gaps[0].Items[0].Code)

	assert.Equal(t, "store2.xlsx", gaps[1].StoreName)
	require.Len(t, gaps[1].Items, 2)
	assert.Equal(t, "A", gaps[1].Items[0].Code)
	assert.Equal(t, "B", gaps[1].Items[1].Code)
}

func TestAnalyzeOmitsStoresWithoutGaps(t *testing.T) {
	warehouse := []domain.StockFile{stockFile("w", domain.StockRow{Code: "A", Quantity: 1})}
	stores := []domain.StockFile{
		stockFile("full", domain.StockRow{Code: "A", Quantity: 2}),
		stockFile("empty"),
	}

	gaps := Analyze(warehouse, stores)
	require.Len(t, gaps, 1)
	assert.Equal(t, "empty", gaps[0].StoreName)
}

func TestBuildWarehouseAggregation(t *testing.T) {
	files := []domain.StockFile{
		stockFile("w1",
			domain.StockRow{Code: "A-1", Name: "Дрель", Quantity: 4, Region: "Бухара"},
			domain.StockRow{Code: "zero", Quantity: 0},
			domain.StockRow{Code: "neg", Quantity: -2},
		),
		stockFile("w2",
			domain.StockRow{Code: " a-1 ", Name: "Дрель", Quantity: 6},
		),
	}

	items := BuildWarehouse(files)
	require.Len(t, items, 1)

	item := items["a-1"]
	assert.Equal(t, 10.0, item.Available, "quantities summed across files")
	assert.Equal(t, "Дрель", item.Name)
	assert.Equal(t, "Бухара", item.Region)
}

func TestAnalyzeCodeNormalization(t *testing.T) {
	warehouse := []domain.StockFile{stockFile("w", domain.StockRow{Code: "ABC-123", Quantity: 1})}
	stores := []domain.StockFile{stockFile("s", domain.StockRow{Code: "  abc-123 ", Quantity: 1})}

	assert.Empty(t, Analyze(warehouse, stores), "codes match after trim+lowercase")
}

func TestAnalyzeZeroQuantityDoesNotCountAsPresent(t *testing.T) {
	warehouse := []domain.StockFile{stockFile("w", domain.StockRow{Code: "A", Quantity: 5})}
	stores := []domain.StockFile{stockFile("s", domain.StockRow{Code: "A", Quantity: 0})}

	gaps := Analyze(warehouse, stores)
	require.Len(t, gaps, 1)
	assert.Equal(t, "A", gaps[0].Items[0].Code)
}
