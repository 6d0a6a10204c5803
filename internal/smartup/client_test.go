package smartup

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/httpx"
)

func testServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestEndpointSlashCleanup(t *testing.T) {
	tests := []struct {
		server string
		path   string
		want   string
	}{
		{"https://smartup.online", "/b/trade/products", "https://smartup.online/b/trade/products"},
		{"https://smartup.online/", "b/trade/products", "https://smartup.online/b/trade/products"},
		{"https://smartup.online///", "/b/trade/products", "https://smartup.online/b/trade/products"},
		{"", "", DefaultServerURL + DefaultAPIPath},
	}
	for _, tt := range tests {
		got := Credentials{ServerURL: tt.server, APIPath: tt.path}.endpoint()
		assert.Equal(t, tt.want, got)
	}
}

func TestBasicAuth(t *testing.T) {
	creds := Credentials{Login: "user", Password: "secret"}
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("user:secret"))
	assert.Equal(t, want, creds.BasicAuth())
}

func TestProductsShapes(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantTotal int
		wantFirst Product
	}{
		{
			name:      "rows with meta size",
			body:      `{"meta":{"size":120},"rows":[{"id":"1","code":"A-1","name":"Болт"}]}`,
			wantTotal: 120,
			wantFirst: Product{ID: "1", Code: "A-1", Name: "Болт"},
		},
		{
			name:      "items with total",
			body:      `{"total":3,"items":[{"product_id":7,"product_code":"B-2","product_name":"Гайка"}]}`,
			wantTotal: 3,
			wantFirst: Product{ID: "7", Code: "B-2", Name: "Гайка"},
		},
		{
			name:      "bare array",
			body:      `[{"id":"x","code":"C","short_name":"Шайба"}]`,
			wantTotal: 1,
			wantFirst: Product{ID: "x", Code: "C", Name: "Шайба"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, Credentials{Login: "u", Password: "p"}.BasicAuth(), r.Header.Get("Authorization"))
				w.Write([]byte(tt.body))
			}))

			c := NewClient(httpx.New(httpx.Options{MaxRetries: 1}), Credentials{
				Login: "u", Password: "p", ServerURL: srv.URL, APIPath: "/api/products",
			})
			list, err := c.Products(context.Background(), 50, 0, "")
			require.NoError(t, err)
			require.NotEmpty(t, list.Products)
			assert.Equal(t, tt.wantTotal, list.Total)
			assert.Equal(t, tt.wantFirst, list.Products[0])
		})
	}
}

func TestProductsQueryParams(t *testing.T) {
	srv := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "25", q.Get("limit"))
		assert.Equal(t, "50", q.Get("offset"))
		assert.Equal(t, "дрель", q.Get("search"))
		w.Write([]byte(`[]`))
	}))

	c := NewClient(nil, Credentials{Login: "u", Password: "p", ServerURL: srv.URL, APIPath: "/api"})
	list, err := c.Products(context.Background(), 25, 50, "дрель")
	require.NoError(t, err)
	assert.Empty(t, list.Products)
}

func TestTestConnection(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		srv := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"rows":[{"id":"1"},{"id":"2"}]}`))
		}))
		c := NewClient(nil, Credentials{ServerURL: srv.URL, APIPath: "/api"})

		status := c.TestConnection(context.Background())
		assert.True(t, status.OK)
		assert.Equal(t, http.StatusOK, status.StatusCode)
		assert.Equal(t, "rows", status.Shape)
		assert.Equal(t, 2, status.RowCount)
	})

	t.Run("auth failure reported not returned", func(t *testing.T) {
		srv := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}))
		c := NewClient(nil, Credentials{ServerURL: srv.URL, APIPath: "/api"})

		status := c.TestConnection(context.Background())
		assert.False(t, status.OK)
		assert.Equal(t, http.StatusUnauthorized, status.StatusCode)
	})
}
