// Package service orchestrates report generation: validate inputs, collect
// from the upstream APIs, normalize and classify, record the run.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/analysis"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/domain"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/moysklad"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/repository/postgres"
)

var (
	ErrNegativeRate      = errors.New("usdRate must not be negative")
	ErrNegativeThreshold = errors.New("minMarginPercent must not be negative")
)

// MoySkladAPI is the slice of the MoySklad client the services consume.
// Implemented by *moysklad.Client; faked in tests.
type MoySkladAPI interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Stores(ctx context.Context) ([]domain.Warehouse, error)
	SalesPositions(ctx context.Context, q moysklad.PositionsQuery) ([]domain.SalesPosition, error)
	SalesSummary(ctx context.Context, q moysklad.SalesQuery) (domain.SalesSummary, error)
}

// MoySkladFactory builds a client bound to one session's token.
type MoySkladFactory func(token string) MoySkladAPI

// BelowCostReport is the payload of one below-cost product report.
type BelowCostReport struct {
	Items   []domain.BelowCostItem  `json:"items"`
	Summary domain.BelowCostSummary `json:"summary"`
}

// LowMarginReport is the payload of one low-margin product report.
type LowMarginReport struct {
	Items   []domain.LowMarginItem  `json:"items"`
	Summary domain.LowMarginSummary `json:"summary"`
}

// PositionsRequest selects sale documents for the positions report.
type PositionsRequest struct {
	DateFrom     string
	DateTo       string
	WarehouseIDs []string

	// USDRate enables the position-level below-cost analysis on top of
	// the raw positions. Zero leaves the analysis out.
	USDRate decimal.Decimal
}

// PositionsReport carries the assembled positions and, when a USD rate was
// supplied, their below-cost classification and per-product grouping.
type PositionsReport struct {
	Positions []domain.SalesPosition         `json:"positions"`
	BelowCost []domain.BelowCostPosition     `json:"belowCost,omitempty"`
	Summary   *domain.PositionsSummary       `json:"summary,omitempty"`
	ByProduct []domain.ProductSalesAggregate `json:"byProduct,omitempty"`
}

type ReportService struct {
	newClient MoySkladFactory
	runs      *postgres.RunRepository
	deadline  time.Duration
}

// NewReportService wires the factory and the optional run log. runs may be
// nil; the repository is nil-safe.
func NewReportService(factory MoySkladFactory, runs *postgres.RunRepository, deadline time.Duration) *ReportService {
	return &ReportService{newClient: factory, runs: runs, deadline: deadline}
}

func (s *ReportService) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.deadline > 0 {
		return context.WithTimeout(ctx, s.deadline)
	}
	return context.WithCancel(ctx)
}

func (s *ReportService) Warehouses(ctx context.Context, token string) ([]domain.Warehouse, error) {
	return s.newClient(token).Stores(ctx)
}

func (s *ReportService) Products(ctx context.Context, token string) ([]domain.Product, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()
	return s.newClient(token).Products(ctx)
}

func (s *ReportService) Sales(ctx context.Context, token string, q moysklad.SalesQuery) (domain.SalesSummary, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()
	return s.newClient(token).SalesSummary(ctx, q)
}

// BelowCost runs the below-cost product report for one session.
func (s *ReportService) BelowCost(ctx context.Context, token string, usdRate decimal.Decimal) (BelowCostReport, error) {
	if usdRate.IsNegative() {
		return BelowCostReport{}, ErrNegativeRate
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	started := time.Now()
	products, err := s.newClient(token).Products(ctx)
	if err != nil {
		s.recordRun(ctx, "below-cost", started, 0, 0, err)
		return BelowCostReport{}, fmt.Errorf("below-cost report: %w", err)
	}

	items, summary := analysis.BelowCostProducts(products, usdRate, s.logProgress("below-cost"))
	if summary.SkippedUSD > 0 {
		log.Warn().Int("skipped_usd", summary.SkippedUSD).Msg("products with USD prices skipped: no conversion rate")
	}

	s.recordRun(ctx, "below-cost", started, len(products), len(items), nil)
	return BelowCostReport{Items: items, Summary: summary}, nil
}

// LowMargin runs the low-margin product report. A zero threshold selects
// the default minimum margin percent.
func (s *ReportService) LowMargin(ctx context.Context, token string, usdRate, threshold decimal.Decimal) (LowMarginReport, error) {
	if usdRate.IsNegative() {
		return LowMarginReport{}, ErrNegativeRate
	}
	if threshold.IsNegative() {
		return LowMarginReport{}, ErrNegativeThreshold
	}
	if threshold.IsZero() {
		threshold = analysis.DefaultMinMarginPercent
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	started := time.Now()
	products, err := s.newClient(token).Products(ctx)
	if err != nil {
		s.recordRun(ctx, "low-margin", started, 0, 0, err)
		return LowMarginReport{}, fmt.Errorf("low-margin report: %w", err)
	}

	items, summary := analysis.LowMarginProducts(products, usdRate, threshold, s.logProgress("low-margin"))
	if summary.SkippedUSD > 0 {
		log.Warn().Int("skipped_usd", summary.SkippedUSD).Msg("products with USD prices skipped: no conversion rate")
	}

	s.recordRun(ctx, "low-margin", started, len(products), len(items), nil)
	return LowMarginReport{Items: items, Summary: summary}, nil
}

// SalesPositions assembles the positions for a period and optionally runs
// the position-level below-cost analysis over them.
func (s *ReportService) SalesPositions(ctx context.Context, token string, req PositionsRequest) (PositionsReport, error) {
	if req.USDRate.IsNegative() {
		return PositionsReport{}, ErrNegativeRate
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	started := time.Now()
	positions, err := s.newClient(token).SalesPositions(ctx, moysklad.PositionsQuery{
		DateFrom:     req.DateFrom,
		DateTo:       req.DateTo,
		WarehouseIDs: req.WarehouseIDs,
	})
	if err != nil {
		s.recordRunPeriod(ctx, "sales-positions", req.DateFrom, req.DateTo, started, 0, 0, err)
		return PositionsReport{}, fmt.Errorf("sales positions: %w", err)
	}

	report := PositionsReport{Positions: positions}
	if req.USDRate.IsPositive() {
		belowCost, summary := analysis.BelowCostPositions(positions, req.USDRate, s.logProgress("positions"))
		report.BelowCost = belowCost
		report.Summary = &summary
		report.ByProduct = analysis.GroupPositionsByProduct(positions, req.USDRate)
	}

	s.recordRunPeriod(ctx, "sales-positions", req.DateFrom, req.DateTo, started, len(positions), len(report.BelowCost), nil)
	return report, nil
}

// RecentRuns returns the latest report-run records, newest first. An empty
// list comes back when the run log is disabled.
func (s *ReportService) RecentRuns(ctx context.Context, limit int) ([]domain.ReportRun, error) {
	return s.runs.RecentRuns(ctx, limit)
}

func (s *ReportService) logProgress(stage string) analysis.Progress {
	return func(done, total int, _ string) {
		log.Debug().Str("report", stage).Int("done", done).Int("total", total).Msg("analysis progress")
	}
}

func (s *ReportService) recordRun(ctx context.Context, kind string, started time.Time, itemCount, matchCount int, runErr error) {
	s.recordRunPeriod(ctx, kind, "", "", started, itemCount, matchCount, runErr)
}

func (s *ReportService) recordRunPeriod(ctx context.Context, kind, dateFrom, dateTo string, started time.Time, itemCount, matchCount int, runErr error) {
	if s.runs == nil {
		return
	}
	run := domain.ReportRun{
		Kind:       kind,
		DateFrom:   dateFrom,
		DateTo:     dateTo,
		ItemCount:  itemCount,
		MatchCount: matchCount,
		DurationMS: time.Since(started).Milliseconds(),
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	// the run log must not inherit a deadline that already expired
	s.runs.SaveRun(context.WithoutCancel(ctx), run)
}
