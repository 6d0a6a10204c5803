// Package gap parses warehouse and store stock spreadsheets and finds the
// assortment each store is missing relative to the warehouse.
package gap

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/domain"
)

// headerScanLimit bounds the search for the real header row; exports often
// start with a few banner rows above the table.
const headerScanLimit = 20

var headerTokens = []string{"код", "code", "артикул"}

// column synonyms, checked in order. Warehouse exports report availability
// as "Доступно" or "В наличии", store exports as "Доступно" or "Остаток".
var (
	codeHeaders         = []string{"код", "code", "артикул"}
	nameHeaders         = []string{"название", "наименование", "name"}
	qtyWarehouseHeaders = []string{"доступно", "в наличии"}
	qtyStoreHeaders     = []string{"доступно", "остаток"}
	regionHeaders       = []string{"регион"}
	manufacturerHeaders = []string{"производитель"}
)

// Kind selects which quantity column synonyms apply to a sheet.
type Kind int

const (
	Warehouse Kind = iota
	Store
)

// ParseSheet reads the first sheet of an xlsx stream into stock rows.
func ParseSheet(name string, r io.Reader, kind Kind) (domain.StockFile, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return domain.StockFile{}, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.StockFile{}, fmt.Errorf("%s: workbook has no sheets", name)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return domain.StockFile{}, fmt.Errorf("read %s: %w", name, err)
	}
	if len(rows) == 0 {
		return domain.StockFile{}, fmt.Errorf("%s: sheet is empty", name)
	}

	headerRow := findHeaderRow(rows)
	cols := mapColumns(rows[headerRow], kind)
	if cols.code < 0 {
		return domain.StockFile{}, fmt.Errorf("%s: no code column found", name)
	}
	if cols.qty < 0 {
		return domain.StockFile{}, fmt.Errorf("%s: no quantity column found", name)
	}

	file := domain.StockFile{Name: name}
	for _, row := range rows[headerRow+1:] {
		code := strings.TrimSpace(cell(row, cols.code))
		if code == "" {
			continue
		}
		file.Rows = append(file.Rows, domain.StockRow{
			Code:         code,
			Name:         strings.TrimSpace(cell(row, cols.name)),
			Quantity:     parseQuantity(cell(row, cols.qty)),
			Region:       strings.TrimSpace(cell(row, cols.region)),
			Manufacturer: strings.TrimSpace(cell(row, cols.manufacturer)),
		})
	}

	log.Debug().Str("file", name).Int("header_row", headerRow).Int("rows", len(file.Rows)).Msg("parsed stock sheet")
	return file, nil
}

// findHeaderRow scans the leading rows for a cell matching a known header
// token and falls back to the first row.
func findHeaderRow(rows [][]string) int {
	limit := min(headerScanLimit, len(rows))
	for i := 0; i < limit; i++ {
		for _, c := range rows[i] {
			h := strings.ToLower(strings.TrimSpace(c))
			for _, token := range headerTokens {
				if h == token {
					return i
				}
			}
		}
	}
	return 0
}

type columns struct {
	code         int
	name         int
	qty          int
	region       int
	manufacturer int
}

func mapColumns(header []string, kind Kind) columns {
	qtyHeaders := qtyWarehouseHeaders
	if kind == Store {
		qtyHeaders = qtyStoreHeaders
	}
	return columns{
		code:         findColumn(header, codeHeaders),
		name:         findColumn(header, nameHeaders),
		qty:          findColumn(header, qtyHeaders),
		region:       findColumn(header, regionHeaders),
		manufacturer: findColumn(header, manufacturerHeaders),
	}
}

// findColumn honors the synonym order: the first synonym that matches any
// header cell wins, so "Доступно" beats "Остаток" even when both exist.
func findColumn(header []string, synonyms []string) int {
	for _, syn := range synonyms {
		for i, c := range header {
			if strings.ToLower(strings.TrimSpace(c)) == syn {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// parseQuantity tolerates the comma decimal separator and grouping spaces
// the upstream locale produces. Unparseable cells count as zero.
func parseQuantity(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
