// Package smartup implements the SmartUp (greenwhite) trade API client.
// The deployment surface varies between installations, so the client takes
// the server URL and API path as credentials and normalizes the several
// response shapes the installations return.
package smartup

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/httpx"
)

const (
	// DefaultServerURL and DefaultAPIPath match the common SmartUp
	// cloud deployment.
	DefaultServerURL = "https://smartup.online"
	DefaultAPIPath   = "/api/v1/products"
)

// Credentials carries everything needed to reach one SmartUp installation.
type Credentials struct {
	Login     string
	Password  string
	ServerURL string
	APIPath   string
}

// BasicAuth returns the Authorization header value for the credentials.
func (c Credentials) BasicAuth() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.Login+":"+c.Password))
}

// endpoint joins server URL and API path, tolerating stray slashes on
// either side.
func (c Credentials) endpoint() string {
	server := strings.TrimRight(c.ServerURL, "/")
	if server == "" {
		server = DefaultServerURL
	}
	path := c.APIPath
	if path == "" {
		path = DefaultAPIPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return server + path
}

// Product is a normalized SmartUp catalog row. Installations disagree on
// field naming, so every known alias is tried.
type Product struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// ProductList is a normalized catalog page.
type ProductList struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

// ConnectionStatus reports what a connection probe found.
type ConnectionStatus struct {
	OK         bool   `json:"ok"`
	StatusCode int    `json:"statusCode"`
	Endpoint   string `json:"endpoint"`
	Shape      string `json:"shape,omitempty"`
	RowCount   int    `json:"rowCount,omitempty"`
	Message    string `json:"message,omitempty"`
}

type Client struct {
	http  *httpx.Client
	creds Credentials
}

func NewClient(httpClient *httpx.Client, creds Credentials) *Client {
	if httpClient == nil {
		httpClient = httpx.New(httpx.Options{})
	}
	return &Client{http: httpClient, creds: creds}
}

func (c *Client) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", c.creds.BasicAuth())
	h.Set("Accept", "application/json")
	return h
}

// Products fetches one catalog page. Search is applied server side when the
// installation supports it; unknown parameters are ignored upstream.
func (c *Client) Products(ctx context.Context, limit, offset int, search string) (ProductList, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	if search != "" {
		params.Set("search", search)
	}

	endpoint := c.creds.endpoint()
	if q := params.Encode(); q != "" {
		endpoint += "?" + q
	}

	var body json.RawMessage
	if err := c.http.GetJSON(ctx, endpoint, c.header(), &body); err != nil {
		return ProductList{}, fmt.Errorf("fetch smartup products: %w", err)
	}

	rows, total, shape := normalizeBody(body)
	log.Debug().Str("shape", shape).Int("rows", len(rows)).Msg("smartup products page")

	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, normalizeRow(row))
	}
	if total == 0 {
		total = len(products)
	}
	return ProductList{Products: products, Total: total}, nil
}

// TestConnection probes the configured endpoint and reports what it finds.
// Upstream errors are part of the result, not an error return.
func (c *Client) TestConnection(ctx context.Context) ConnectionStatus {
	status := ConnectionStatus{Endpoint: c.creds.endpoint()}

	var body json.RawMessage
	err := c.http.GetJSON(ctx, status.Endpoint, c.header(), &body)
	if err != nil {
		var se *httpx.StatusError
		if errors.As(err, &se) {
			status.StatusCode = se.StatusCode
			status.Message = fmt.Sprintf("upstream returned %d", se.StatusCode)
		} else {
			status.Message = err.Error()
		}
		return status
	}

	rows, total, shape := normalizeBody(body)
	status.OK = true
	status.StatusCode = http.StatusOK
	status.Shape = shape
	status.RowCount = len(rows)
	if total > len(rows) {
		status.RowCount = total
	}
	return status
}

// normalizeBody accepts the three body shapes seen in the wild: a bare
// array, {"rows": [...]} and {"items": [...]}, with the total under
// meta.size or total when present.
func normalizeBody(body json.RawMessage) (rows []json.RawMessage, total int, shape string) {
	if err := json.Unmarshal(body, &rows); err == nil {
		return rows, 0, "array"
	}

	var obj struct {
		Rows  []json.RawMessage `json:"rows"`
		Items []json.RawMessage `json:"items"`
		Total int               `json:"total"`
		Meta  struct {
			Size int `json:"size"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, 0, "unknown"
	}

	total = obj.Total
	if obj.Meta.Size > 0 {
		total = obj.Meta.Size
	}
	if obj.Rows != nil {
		return obj.Rows, total, "rows"
	}
	if obj.Items != nil {
		return obj.Items, total, "items"
	}
	return nil, total, "object"
}

// normalizeRow maps the field aliases installations use onto one Product.
func normalizeRow(raw json.RawMessage) Product {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return Product{}
	}
	return Product{
		ID:   firstString(m, "product_id", "id"),
		Code: firstString(m, "code", "product_code", "barcode"),
		Name: firstString(m, "name", "product_name", "short_name"),
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
