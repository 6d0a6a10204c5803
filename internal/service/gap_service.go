package service

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/domain"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/gap"
)

var ErrNoSheets = errors.New("at least one warehouse and one store file are required")

// SheetInput is one uploaded spreadsheet, identified by its filename.
type SheetInput struct {
	Name   string
	Reader io.Reader
}

type GapService struct{}

func NewGapService() *GapService {
	return &GapService{}
}

// Analyze parses the uploaded sheets and reports, per store, the warehouse
// assortment the store is missing. Any unparseable sheet fails the whole
// request.
func (s *GapService) Analyze(warehouse, store []SheetInput) ([]domain.StoreGap, error) {
	if len(warehouse) == 0 || len(store) == 0 {
		return nil, ErrNoSheets
	}

	warehouseFiles, err := parseSheets(warehouse, gap.Warehouse)
	if err != nil {
		return nil, err
	}
	storeFiles, err := parseSheets(store, gap.Store)
	if err != nil {
		return nil, err
	}

	gaps := gap.Analyze(warehouseFiles, storeFiles)
	log.Info().
		Int("warehouse_files", len(warehouseFiles)).
		Int("store_files", len(storeFiles)).
		Int("stores_with_gaps", len(gaps)).
		Msg("gap analysis complete")
	return gaps, nil
}

func parseSheets(inputs []SheetInput, kind gap.Kind) ([]domain.StockFile, error) {
	files := make([]domain.StockFile, 0, len(inputs))
	for _, in := range inputs {
		file, err := gap.ParseSheet(in.Name, in.Reader, kind)
		if err != nil {
			return nil, fmt.Errorf("parse sheet: %w", err)
		}
		files = append(files, file)
	}
	return files, nil
}
