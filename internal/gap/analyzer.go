package gap

import (
	"sort"
	"strings"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/domain"
)

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// BuildWarehouse aggregates warehouse files into one availability map.
// Repeated codes sum their quantities; rows without positive quantity do
// not contribute. Descriptive fields keep the first non-empty value seen.
func BuildWarehouse(files []domain.StockFile) map[string]domain.WarehouseItem {
	items := make(map[string]domain.WarehouseItem)
	for _, file := range files {
		for _, row := range file.Rows {
			if row.Quantity <= 0 {
				continue
			}
			key := normalizeCode(row.Code)
			item, ok := items[key]
			if !ok {
				item = domain.WarehouseItem{Code: row.Code}
			}
			item.Available += row.Quantity
			if item.Name == "" {
				item.Name = row.Name
			}
			if item.Region == "" {
				item.Region = row.Region
			}
			if item.Manufacturer == "" {
				item.Manufacturer = row.Manufacturer
			}
			items[key] = item
		}
	}
	return items
}

// Analyze finds, for every store file independently, the warehouse items
// whose code the store does not stock. Stores with no gaps are omitted.
func Analyze(warehouseFiles, storeFiles []domain.StockFile) []domain.StoreGap {
	warehouse := BuildWarehouse(warehouseFiles)

	keys := make([]string, 0, len(warehouse))
	for key := range warehouse {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var gaps []domain.StoreGap
	for _, store := range storeFiles {
		present := make(map[string]bool, len(store.Rows))
		for _, row := range store.Rows {
			if row.Quantity > 0 {
				present[normalizeCode(row.Code)] = true
			}
		}

		var missing []domain.WarehouseItem
		for _, key := range keys {
			if !present[key] {
				missing = append(missing, warehouse[key])
			}
		}
		if len(missing) == 0 {
			continue
		}
		gaps = append(gaps, domain.StoreGap{StoreName: store.Name, Items: missing})
	}
	return gaps
}
