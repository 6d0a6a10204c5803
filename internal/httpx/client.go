// Package httpx is the outbound HTTP primitive shared by the upstream
// clients: JSON requests with rate-limit handling and transport retries.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 3
	defaultRateWaitBudget = 60 * time.Second
	defaultRetryAfter     = 5 * time.Second
	maxErrorBodyBytes     = 512
)

// ErrRateLimited is returned when the upstream keeps answering 429 past the
// configured wait budget.
var ErrRateLimited = errors.New("rate limit wait budget exhausted")

// StatusError is a non-2xx upstream response (other than a retried 429).
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("upstream returned %d for %s: %s", e.StatusCode, e.URL, e.Body)
	}
	return fmt.Sprintf("upstream returned %d for %s", e.StatusCode, e.URL)
}

// Options bound the client's retry behavior.
type Options struct {
	Timeout time.Duration
	// MaxRetries is the transport-error attempt ceiling (429s do not
	// consume attempts; they draw from RateWaitBudget instead).
	MaxRetries     int
	RateWaitBudget time.Duration
}

// Client issues JSON requests with retry. A 429 response triggers a wait of
// the server's Retry-After (default 5s) and a retry of the same request;
// total 429 waiting per call is capped by the wait budget. Transport errors
// retry with exponential backoff (1s, 2s, 4s...). Any other non-2xx status
// is returned as a *StatusError without retry.
type Client struct {
	hc             *http.Client
	maxRetries     int
	rateWaitBudget time.Duration

	// sleep is swapped out in tests
	sleep func(ctx context.Context, d time.Duration) error
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RateWaitBudget <= 0 {
		opts.RateWaitBudget = defaultRateWaitBudget
	}
	return &Client{
		hc:             &http.Client{Timeout: opts.Timeout},
		maxRetries:     opts.MaxRetries,
		rateWaitBudget: opts.RateWaitBudget,
		sleep:          sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// GetJSON issues a GET and decodes the 2xx response body into out.
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header, out any) error {
	return c.JSON(ctx, http.MethodGet, url, header, nil, out)
}

// JSON issues a request with an optional JSON body and decodes the 2xx
// response into out (which may be nil when the body is irrelevant).
func (c *Client) JSON(ctx context.Context, method, url string, header http.Header, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	resp, err := c.do(ctx, method, url, header, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, header http.Header, payload []byte) (*http.Response, error) {
	var (
		attempt   int
		rateSpent time.Duration
		lastErr   error
	)

	for {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			attempt++
			lastErr = err
			if attempt >= c.maxRetries {
				return nil, fmt.Errorf("request to %s failed after %d attempts: %w", url, attempt, lastErr)
			}
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			log.Warn().Err(err).Str("url", url).Dur("backoff", backoff).Msg("transport error, retrying")
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := retryAfter(resp)
			drainClose(resp)
			if rateSpent+wait > c.rateWaitBudget {
				return nil, fmt.Errorf("%w for %s (waited %s)", ErrRateLimited, url, rateSpent)
			}
			rateSpent += wait
			log.Warn().Str("url", url).Dur("wait", wait).Msg("rate limited, waiting before retry")
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body := readErrorBody(resp)
			drainClose(resp)
			return nil, &StatusError{StatusCode: resp.StatusCode, URL: url, Body: body}
		}

		return resp, nil
	}
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultRetryAfter
}

func readErrorBody(resp *http.Response) string {
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return ""
	}
	return string(bytes.TrimSpace(b))
}

func drainClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
