package moysklad

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/domain"
)

// PositionsQuery selects retail sale documents for position assembly.
// Dates are DD.MM.YY; the period is optional, warehouse filtering too.
type PositionsQuery struct {
	DateFrom     string
	DateTo       string
	WarehouseIDs []string
}

// SalesPositions assembles the line positions of every retail sale document
// in the query period. Positions embedded by the upstream (expand=positions)
// are used directly; otherwise each document's positions are fetched in
// bounded concurrent batches. Purchase prices missing from a line are
// inherited from the parent product through a per-request memoized lookup.
func (c *Client) SalesPositions(ctx context.Context, q PositionsQuery) ([]domain.SalesPosition, error) {
	resource, err := c.positionsResource(q)
	if err != nil {
		return nil, err
	}

	// cache is scoped to this call; hrefs are fetched at most once
	cache := make(map[string]*rawProduct)
	var all []domain.SalesPosition

	offset := 0
	for {
		if offset > 0 {
			if err := c.sleep(ctx, c.cfg.DocumentPageDelay); err != nil {
				return nil, err
			}
		}

		pageURL := fmt.Sprintf("%s&limit=%d&offset=%d", resource, documentPageLimit, offset)
		var page listResponse[rawDocument]
		if err := c.http.GetJSON(ctx, pageURL, c.header(), &page); err != nil {
			return nil, fmt.Errorf("documents page at offset %d: %w", offset, err)
		}

		positions, err := c.pagePositions(ctx, page.Rows)
		if err != nil {
			return nil, err
		}

		if err := c.resolvePurchasePrices(ctx, positions, cache); err != nil {
			return nil, err
		}

		for _, pp := range positions {
			all = append(all, c.assemble(pp, cache))
		}

		if len(page.Rows) < documentPageLimit || offset+len(page.Rows) >= page.Meta.Size {
			break
		}
		offset += documentPageLimit
	}

	log.Info().Int("count", len(all)).Msg("assembled sales positions")
	return all, nil
}

func (c *Client) positionsResource(q PositionsQuery) (string, error) {
	params := url.Values{}
	params.Set("expand", "positions")

	var clauses []string
	if q.DateFrom != "" || q.DateTo != "" {
		period, err := ParsePeriod(q.DateFrom, q.DateTo)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, "moment>="+period.From, "moment<="+period.To)
	}
	clauses = append(clauses, c.storeFilter(q.WarehouseIDs)...)

	return c.url("/entity/retaildemand") + "?" + filterQuery(params, clauses), nil
}

type docPosition struct {
	pos rawPosition
	doc rawDocument
}

// pagePositions extracts the line positions of one documents page. The
// decision is per document: embedded positions are used as-is, the rest are
// fetched a bounded batch at a time, so a mixed page loses nothing.
func (c *Client) pagePositions(ctx context.Context, docs []rawDocument) ([]docPosition, error) {
	fetched := make([][]rawPosition, len(docs))
	var missing []int
	for i, doc := range docs {
		if doc.Positions != nil {
			fetched[i] = doc.Positions.Rows
			continue
		}
		missing = append(missing, i)
	}

	batchSize := 2 * c.cfg.BatchSize
	for start := 0; start < len(missing); start += batchSize {
		end := min(start+batchSize, len(missing))

		g, gctx := errgroup.WithContext(ctx)
		for _, i := range missing[start:end] {
			i := i
			g.Go(func() error {
				posURL := c.url("/entity/retaildemand/" + docs[i].ID + "/positions")
				var resp listResponse[rawPosition]
				if err := c.http.GetJSON(gctx, posURL, c.header(), &resp); err != nil {
					// a single document's positions are not worth
					// aborting the page; matches upstream flakiness
					log.Warn().Err(err).Str("document", docs[i].ID).Msg("failed to fetch document positions")
					return nil
				}
				fetched[i] = resp.Rows
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		if end < len(missing) {
			if err := c.sleep(ctx, c.cfg.BatchDelay); err != nil {
				return nil, err
			}
		}
	}

	var out []docPosition
	for i, doc := range docs {
		for _, pos := range fetched[i] {
			out = append(out, docPosition{pos: pos, doc: doc})
		}
	}
	return out, nil
}

// resolvePurchasePrices memoizes product lookups for positions that lack
// their own purchase price. Each batch writes its results before the next
// batch starts, so cache access never races.
func (c *Client) resolvePurchasePrices(ctx context.Context, positions []docPosition, cache map[string]*rawProduct) error {
	var hrefs []string
	seen := make(map[string]bool)
	for _, pp := range positions {
		if pp.pos.PurchasePrice.hasValue() {
			continue
		}
		href := pp.pos.Assortment.href()
		if href == "" || seen[href] {
			continue
		}
		if _, ok := cache[href]; ok {
			continue
		}
		seen[href] = true
		hrefs = append(hrefs, href)
	}

	for start := 0; start < len(hrefs); start += c.cfg.BatchSize {
		end := min(start+c.cfg.BatchSize, len(hrefs))
		chunk := hrefs[start:end]
		results := make([]*rawProduct, len(chunk))

		g, gctx := errgroup.WithContext(ctx)
		for i, href := range chunk {
			i, href := i, href
			g.Go(func() error {
				if i > 0 {
					if err := c.sleep(gctx, time.Duration(i)*100*time.Millisecond); err != nil {
						return err
					}
				}
				var product rawProduct
				if err := c.http.GetJSON(gctx, href, c.header(), &product); err != nil {
					log.Warn().Err(err).Str("href", href).Msg("failed to fetch product for purchase price")
					return nil
				}
				results[i] = &product
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i, href := range chunk {
			if results[i] != nil {
				cache[href] = results[i]
			}
		}

		if end < len(hrefs) {
			if err := c.sleep(ctx, c.cfg.BatchDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Client) assemble(pp docPosition, cache map[string]*rawProduct) domain.SalesPosition {
	pos := pp.pos

	purchase := pos.PurchasePrice
	purchaseCurrency := domain.NoCurrency
	if purchase != nil && purchase.currency != nil {
		purchaseCurrency = purchase.currency.Ref()
	} else if pos.PurchasePriceCurrency != nil {
		purchaseCurrency = pos.PurchasePriceCurrency.Ref()
	}

	if !purchase.hasValue() {
		if product, ok := cache[pos.Assortment.href()]; ok && product != nil {
			inherited := product.toDomain()
			if inherited.BuyPrice.IsPositive() {
				return c.finish(pp, inherited.BuyPrice.Amount, inherited.BuyPrice.Currency)
			}
		}
	}

	return c.finish(pp, purchase.amount(), purchaseCurrency)
}

func (c *Client) finish(pp docPosition, purchaseAmount decimal.Decimal, purchaseCurrency domain.CurrencyRef) domain.SalesPosition {
	pos := pp.pos
	productName := pos.Assortment.Name
	if productName == "" {
		productName = "Неизвестный товар"
	}

	return domain.SalesPosition{
		ID:              pos.ID,
		DocumentID:      pp.doc.ID,
		DocumentName:    pp.doc.Name,
		DocumentNumber:  pp.doc.Number,
		SaleDate:        pp.doc.saleDate(),
		ProductID:       pos.Assortment.ID,
		ProductName:     productName,
		ProductCode:     pos.Assortment.Code,
		Quantity:        decimal.NewFromFloat(pos.Quantity),
		SalePrice:       decimal.NewFromFloat(pos.Price).Div(minorUnits),
		DiscountPercent: decimal.NewFromFloat(pos.Discount),
		PurchasePrice:   domain.Money{Amount: purchaseAmount, Currency: purchaseCurrency},
	}
}
