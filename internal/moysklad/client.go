// Package moysklad implements the MoySklad (api.moysklad.ru) REST client:
// bearer-token auth, offset pagination against meta.size with inter-page
// delays, and parsing of the API's heterogeneous price shapes.
package moysklad

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/httpx"
)

const (
	// DefaultBaseURL is the public MoySklad JSON API endpoint.
	DefaultBaseURL = "https://api.moysklad.ru/api/remap/1.2"

	productPageLimit  = 1000
	documentPageLimit = 100
)

type Config struct {
	BaseURL string
	Token   string
	HTTP    *httpx.Client

	// ProductPageDelay and DocumentPageDelay keep paginated collections
	// under the upstream rate limit; applied before every page but the
	// first. Zero disables the delay (tests).
	ProductPageDelay  time.Duration
	DocumentPageDelay time.Duration

	// BatchSize and BatchDelay bound the secondary per-product lookups
	// in the sales-position assembler.
	BatchSize  int
	BatchDelay time.Duration
}

type Client struct {
	http *httpx.Client
	cfg  Config

	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.HTTP == nil {
		cfg.HTTP = httpx.New(httpx.Options{})
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	return &Client{
		http:  cfg.HTTP,
		cfg:   cfg,
		sleep: sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.cfg.Token)
	return h
}

func (c *Client) url(path string) string {
	return c.cfg.BaseURL + path
}

// collectPages walks an offset-paginated resource until a short page or
// the server-reported total is reached. Rows keep server order; any page
// error aborts the whole collection and partial results are discarded.
func collectPages[T any](ctx context.Context, c *Client, resource string, limit int, delay time.Duration) ([]T, error) {
	sep := "?"
	if strings.Contains(resource, "?") {
		sep = "&"
	}

	var all []T
	offset := 0
	for {
		if offset > 0 {
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		pageURL := fmt.Sprintf("%s%slimit=%d&offset=%d", resource, sep, limit, offset)
		var page listResponse[T]
		if err := c.http.GetJSON(ctx, pageURL, c.header(), &page); err != nil {
			return nil, fmt.Errorf("page at offset %d: %w", offset, err)
		}

		all = append(all, page.Rows...)
		if len(page.Rows) < limit || offset+len(page.Rows) >= page.Meta.Size {
			return all, nil
		}
		offset += limit
	}
}
