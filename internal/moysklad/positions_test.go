package moysklad

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSalesPositionsInline(t *testing.T) {
	var productFetches atomic.Int32
	var srvURL string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/entity/retaildemand":
			assert.Equal(t, "positions", r.URL.Query().Get("expand"))
			filter := r.URL.Query().Get("filter")
			assert.Contains(t, filter, "moment>=2025-01-01 00:00:00")
			assert.Contains(t, filter, "moment<=2025-01-31 23:59:59")

			writePage(w, 1, []map[string]any{{
				"id":     "doc-1",
				"name":   "Продажа 00001",
				"moment": "2025-01-15 12:30:00",
				"positions": map[string]any{
					"rows": []map[string]any{
						{
							"id":            "pos-1",
							"price":         1500000,
							"quantity":      2,
							"discount":      10,
							"purchasePrice": map[string]any{"value": 1200000},
							"assortment":    map[string]any{"id": "prod-1", "name": "Дрель", "code": "D-1"},
						},
						{
							// no purchase price, inherited from the product
							"id":       "pos-2",
							"price":    500000,
							"quantity": 1,
							"assortment": map[string]any{
								"id":   "prod-2",
								"name": "Молоток",
								"meta": map[string]any{"href": srvURL + "/entity/product/prod-2"},
							},
						},
						{
							// same product again, served from the memo cache
							"id":       "pos-3",
							"price":    520000,
							"quantity": 3,
							"assortment": map[string]any{
								"id":   "prod-2",
								"name": "Молоток",
								"meta": map[string]any{"href": srvURL + "/entity/product/prod-2"},
							},
						},
					},
				},
			}})

		case strings.HasPrefix(r.URL.Path, "/entity/product/"):
			productFetches.Add(1)
			w.Write([]byte(`{"id":"prod-2","name":"Молоток","buyPrice":{"value":300000},"salePrices":[{"value":500000}]}`))

		default:
			http.NotFound(w, r)
		}
	})

	c, srv := testClient(t, handler)
	srvURL = srv.URL

	positions, err := c.SalesPositions(context.Background(), PositionsQuery{
		DateFrom: "01.01.25",
		DateTo:   "31.01.25",
	})
	require.NoError(t, err)
	require.Len(t, positions, 3)

	first := positions[0]
	assert.Equal(t, "doc-1", first.DocumentID)
	assert.Equal(t, "2025-01-15 12:30:00", first.SaleDate)
	assert.True(t, first.SalePrice.Equal(decimal.NewFromInt(15000)))
	assert.True(t, first.PurchasePrice.Amount.Equal(decimal.NewFromInt(12000)))
	// 15000 * (100-10) / 100
	assert.True(t, first.EffectiveSalePrice().Equal(decimal.NewFromInt(13500)))

	second := positions[1]
	assert.True(t, second.PurchasePrice.Amount.Equal(decimal.NewFromInt(3000)), "inherited from product")

	third := positions[2]
	assert.True(t, third.PurchasePrice.Amount.Equal(decimal.NewFromInt(3000)))

	assert.EqualValues(t, 1, productFetches.Load(), "product resolved once per request")
}

func TestSalesPositionsPerDocumentFallback(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/entity/retaildemand":
			writePage(w, 2, []map[string]any{
				{"id": "doc-a", "name": "A", "moment": "2025-02-01 09:00:00"},
				{"id": "doc-b", "name": "B", "moment": "2025-02-02 09:00:00"},
			})
		case "/entity/retaildemand/doc-a/positions":
			writePage(w, 1, []map[string]any{{
				"id":            "pos-a1",
				"price":         100000,
				"quantity":      1,
				"purchasePrice": map[string]any{"value": 80000},
				"assortment":    map[string]any{"id": "p1", "name": "X"},
			}})
		case "/entity/retaildemand/doc-b/positions":
			// fetch failure for one document does not abort the page
			http.Error(w, "unavailable", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	})

	c, _ := testClient(t, handler)
	positions, err := c.SalesPositions(context.Background(), PositionsQuery{
		DateFrom: "01.02.25",
		DateTo:   "28.02.25",
	})
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "doc-a", positions[0].DocumentID)
	assert.True(t, positions[0].PurchasePrice.Amount.Equal(decimal.NewFromInt(800)))
}

func TestSalesPositionsMixedPage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/entity/retaildemand":
			// first document carries embedded positions, second does not
			writePage(w, 2, []map[string]any{
				{
					"id":     "doc-inline",
					"name":   "A",
					"moment": "2025-04-01 09:00:00",
					"positions": map[string]any{
						"rows": []map[string]any{{
							"id":            "pos-1",
							"price":         100000,
							"quantity":      1,
							"purchasePrice": map[string]any{"value": 60000},
							"assortment":    map[string]any{"id": "p1", "name": "X"},
						}},
					},
				},
				{"id": "doc-bare", "name": "B", "moment": "2025-04-02 09:00:00"},
			})
		case "/entity/retaildemand/doc-bare/positions":
			writePage(w, 1, []map[string]any{{
				"id":            "pos-2",
				"price":         200000,
				"quantity":      2,
				"purchasePrice": map[string]any{"value": 150000},
				"assortment":    map[string]any{"id": "p2", "name": "Y"},
			}})
		default:
			http.NotFound(w, r)
		}
	})

	c, _ := testClient(t, handler)
	positions, err := c.SalesPositions(context.Background(), PositionsQuery{
		DateFrom: "01.04.25",
		DateTo:   "30.04.25",
	})
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, "doc-inline", positions[0].DocumentID)
	assert.True(t, positions[0].SalePrice.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "doc-bare", positions[1].DocumentID)
	assert.True(t, positions[1].PurchasePrice.Amount.Equal(decimal.NewFromInt(1500)))
}

func TestSalesPositionsProductFetchFailureTolerated(t *testing.T) {
	var srvURL string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/entity/retaildemand":
			writePage(w, 1, []map[string]any{{
				"id":     "doc-1",
				"moment": "2025-03-01 10:00:00",
				"positions": map[string]any{
					"rows": []map[string]any{{
						"id":       "pos-1",
						"price":    200000,
						"quantity": 1,
						"assortment": map[string]any{
							"id":   "gone",
							"name": "Удалённый",
							"meta": map[string]any{"href": srvURL + "/entity/product/gone"},
						},
					}},
				},
			}})
		default:
			http.NotFound(w, r)
		}
	})

	c, srv := testClient(t, handler)
	srvURL = srv.URL

	positions, err := c.SalesPositions(context.Background(), PositionsQuery{
		DateFrom: "01.03.25",
		DateTo:   "31.03.25",
	})
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.True(t, positions[0].PurchasePrice.Amount.IsZero())
}
