package moysklad

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/domain"
)

// SalesQuery selects the profitability report period and warehouses.
type SalesQuery struct {
	DateFrom     string
	DateTo       string
	WarehouseIDs []string
}

// SalesSummary builds the period summary from the by-product profitability report:
// gross sales and returns summed over every report row, check and return
// counts taken from the document collections' server-reported totals.
func (c *Client) SalesSummary(ctx context.Context, q SalesQuery) (domain.SalesSummary, error) {
	period, err := ParsePeriod(q.DateFrom, q.DateTo)
	if err != nil {
		return domain.SalesSummary{}, err
	}

	params := url.Values{}
	params.Set("momentFrom", period.From)
	params.Set("momentTo", period.To)
	resource := c.url("/report/profit/byproduct") + "?" + filterQuery(params, c.storeFilter(q.WarehouseIDs))

	rows, err := collectPages[rawProfitRow](ctx, c, resource, productPageLimit, c.cfg.ProductPageDelay)
	if err != nil {
		return domain.SalesSummary{}, fmt.Errorf("fetch profit report: %w", err)
	}

	gross := decimal.Zero
	returns := decimal.Zero
	for _, row := range rows {
		gross = gross.Add(decimal.NewFromFloat(row.SellSum).Div(minorUnits))
		returns = returns.Add(decimal.NewFromFloat(row.ReturnSum).Div(minorUnits))
	}

	// counts come from cheap meta.size probes; a failed probe degrades
	// the summary instead of failing it
	checkCount := c.documentCount(ctx, "/entity/retaildemand", period, q.WarehouseIDs)
	returnsCount := c.documentCount(ctx, "/entity/retailsalesreturn", period, q.WarehouseIDs)

	summary := domain.SalesSummary{
		Actual:       gross.Sub(returns),
		GrossSales:   gross,
		Returns:      returns,
		ReturnsCount: returnsCount,
		CheckCount:   checkCount,
	}
	// average check is over net sales, not gross
	if checkCount > 0 {
		summary.AverageCheck = summary.Actual.Div(decimal.NewFromInt(int64(checkCount)))
	}
	return summary, nil
}

// documentCount probes a document collection with limit=1 and reads the
// server-reported total from meta.size.
func (c *Client) documentCount(ctx context.Context, path string, period Period, warehouseIDs []string) int {
	clauses := []string{"moment>=" + period.From, "moment<=" + period.To}
	clauses = append(clauses, c.storeFilter(warehouseIDs)...)

	params := url.Values{}
	params.Set("limit", "1")
	probe := c.url(path) + "?" + filterQuery(params, clauses)

	var resp listResponse[struct{}]
	if err := c.http.GetJSON(ctx, probe, c.header(), &resp); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("document count probe failed")
		return 0
	}
	return resp.Meta.Size
}
