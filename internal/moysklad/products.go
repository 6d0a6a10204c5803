package moysklad

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/domain"
)

// Products fetches the whole product catalog, page by page, resolving the
// heterogeneous price fields into normalized Money values.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	rows, err := collectPages[rawProduct](ctx, c, c.url("/entity/product"), productPageLimit, c.cfg.ProductPageDelay)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}

	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toDomain())
	}
	log.Info().Int("count", len(products)).Msg("fetched product catalog")
	return products, nil
}

// Stores fetches the warehouse list.
func (c *Client) Stores(ctx context.Context) ([]domain.Warehouse, error) {
	var resp listResponse[rawStore]
	if err := c.http.GetJSON(ctx, c.url("/entity/store"), c.header(), &resp); err != nil {
		return nil, fmt.Errorf("fetch stores: %w", err)
	}

	warehouses := make([]domain.Warehouse, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		warehouses = append(warehouses, domain.Warehouse{
			ID:      row.ID,
			Name:    row.Name,
			Address: row.Address,
		})
	}
	return warehouses, nil
}

// storeFilter builds the semicolon-joined store=<href> filter clauses.
func (c *Client) storeFilter(warehouseIDs []string) []string {
	clauses := make([]string, 0, len(warehouseIDs))
	for _, id := range warehouseIDs {
		clauses = append(clauses, "store="+c.url("/entity/store/"+id))
	}
	return clauses
}

// filterQuery encodes MoySklad's filter syntax: clauses joined by ';'
// inside a single filter query parameter.
func filterQuery(params url.Values, clauses []string) string {
	if len(clauses) > 0 {
		params.Set("filter", strings.Join(clauses, ";"))
	}
	return params.Encode()
}
