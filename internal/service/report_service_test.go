package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/domain"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/moysklad"
)

type fakeMoySklad struct {
	token     string
	products  []domain.Product
	positions []domain.SalesPosition
	err       error
}

func (f *fakeMoySklad) Products(context.Context) ([]domain.Product, error) {
	return f.products, f.err
}

func (f *fakeMoySklad) Stores(context.Context) ([]domain.Warehouse, error) {
	return []domain.Warehouse{{ID: "w1", Name: "Склад"}}, f.err
}

func (f *fakeMoySklad) SalesPositions(_ context.Context, q moysklad.PositionsQuery) ([]domain.SalesPosition, error) {
	return f.positions, f.err
}

func (f *fakeMoySklad) SalesSummary(context.Context, moysklad.SalesQuery) (domain.SalesSummary, error) {
	return domain.SalesSummary{}, f.err
}

func uzs(v int64) domain.Money {
	return domain.Money{Amount: decimal.NewFromInt(v)}
}

func serviceWith(fake *fakeMoySklad) *ReportService {
	return NewReportService(func(token string) MoySkladAPI {
		fake.token = token
		return fake
	}, nil, 0)
}

func TestBelowCostReport(t *testing.T) {
	fake := &fakeMoySklad{products: []domain.Product{
		{ID: "a", Name: "A", BuyPrice: uzs(100000), SalePrice: uzs(90000)},
		{ID: "b", Name: "B", BuyPrice: uzs(100000), SalePrice: uzs(105000)},
	}}
	svc := serviceWith(fake)

	report, err := svc.BelowCost(context.Background(), "tok", decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, "tok", fake.token, "token handed to the client factory")

	require.Len(t, report.Items, 1)
	assert.Equal(t, "a", report.Items[0].Product.ID)
	assert.True(t, report.Items[0].Loss.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, 1, report.Summary.TotalProducts)
}

func TestLowMarginDefaultThreshold(t *testing.T) {
	fake := &fakeMoySklad{products: []domain.Product{
		{ID: "b", Name: "B", BuyPrice: uzs(100000), SalePrice: uzs(105000)},
	}}
	svc := serviceWith(fake)

	// zero threshold falls back to the default 10 percent
	report, err := svc.LowMargin(context.Background(), "tok", decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.True(t, report.Items[0].MarginPercent.Equal(decimal.NewFromInt(5)))
}

func TestReportValidation(t *testing.T) {
	svc := serviceWith(&fakeMoySklad{})
	negative := decimal.NewFromInt(-1)

	_, err := svc.BelowCost(context.Background(), "tok", negative)
	assert.ErrorIs(t, err, ErrNegativeRate)

	_, err = svc.LowMargin(context.Background(), "tok", negative, decimal.Zero)
	assert.ErrorIs(t, err, ErrNegativeRate)

	_, err = svc.LowMargin(context.Background(), "tok", decimal.Zero, negative)
	assert.ErrorIs(t, err, ErrNegativeThreshold)
}

func TestReportUpstreamErrorPropagates(t *testing.T) {
	upstream := errors.New("boom")
	svc := serviceWith(&fakeMoySklad{err: upstream})

	_, err := svc.BelowCost(context.Background(), "tok", decimal.Zero)
	assert.ErrorIs(t, err, upstream)
}

func TestSalesPositionsWithAnalysis(t *testing.T) {
	fake := &fakeMoySklad{positions: []domain.SalesPosition{
		{
			ID:            "pos-1",
			ProductID:     "p1",
			ProductName:   "X",
			Quantity:      decimal.NewFromInt(2),
			SalePrice:     decimal.NewFromInt(9000),
			PurchasePrice: uzs(10000),
		},
	}}
	svc := serviceWith(fake)

	t.Run("without rate returns raw positions", func(t *testing.T) {
		report, err := svc.SalesPositions(context.Background(), "tok", PositionsRequest{
			DateFrom: "01.01.25", DateTo: "31.01.25",
		})
		require.NoError(t, err)
		assert.Len(t, report.Positions, 1)
		assert.Empty(t, report.BelowCost)
		assert.Nil(t, report.Summary)
	})

	t.Run("with rate includes below-cost analysis", func(t *testing.T) {
		report, err := svc.SalesPositions(context.Background(), "tok", PositionsRequest{
			DateFrom: "01.01.25", DateTo: "31.01.25",
			USDRate: decimal.NewFromInt(12000),
		})
		require.NoError(t, err)
		require.Len(t, report.BelowCost, 1)
		assert.True(t, report.BelowCost[0].Loss.Equal(decimal.NewFromInt(1000)))
		assert.True(t, report.BelowCost[0].LossTotal.Equal(decimal.NewFromInt(2000)))
		require.NotNil(t, report.Summary)
		require.Len(t, report.ByProduct, 1)
	})
}
