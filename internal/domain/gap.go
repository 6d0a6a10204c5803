package domain

// StockRow is one parsed spreadsheet line: a stock-keeping unit with the
// quantity the sheet reports for it.
type StockRow struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	Region       string  `json:"region,omitempty"`
	Manufacturer string  `json:"manufacturer,omitempty"`
}

// StockFile is a parsed spreadsheet identified by its upload filename.
type StockFile struct {
	Name string     `json:"name"`
	Rows []StockRow `json:"rows"`
}

// WarehouseItem is the availability of one SKU aggregated across all
// warehouse files, keyed by normalized (trimmed, lowercased) code.
type WarehouseItem struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Available    float64 `json:"available"`
	Region       string  `json:"region,omitempty"`
	Manufacturer string  `json:"manufacturer,omitempty"`
}

// StoreGap lists the warehouse items entirely absent from one store file.
// Stores without gaps are omitted from results.
type StoreGap struct {
	StoreName string          `json:"storeName"`
	Items     []WarehouseItem `json:"items"`
}
