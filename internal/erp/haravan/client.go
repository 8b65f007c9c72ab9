// Package haravan is a small client for the Haravan commerce API.
package haravan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"storefront/internal/domain"
)

const (
	defaultPageSize = 250
	maxPageSize     = 250
	defaultTries    = 4
	// Used when a 429 carries no parseable Retry-After.
	defaultRetryAfterSeconds = 1
)

type Config struct {
	BaseURL  string
	Token    string
	PageSize int
	// MaxTries bounds attempts per request, counting the first.
	MaxTries uint
}

type Client struct {
	baseURL  string
	token    string
	pageSize int
	maxTries uint
	http     *http.Client
	logger   *slog.Logger
}

// New builds a Client. A nil httpClient gets a traced client with a 30s timeout.
func New(cfg Config, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("haravan: base url required")
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	size := cfg.PageSize
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	tries := cfg.MaxTries
	if tries == 0 {
		tries = defaultTries
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.Token,
		pageSize: size,
		maxTries: tries,
		http:     httpClient,
		logger:   logger,
	}, nil
}

// Products pages through the catalog until a short page and returns every product.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var all []Product
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(c.pageSize))
		q.Set("page", strconv.Itoa(page))

		var body productsPage
		if err := c.do(ctx, http.MethodGet, "/com/products.json?"+q.Encode(), nil, &body); err != nil {
			return nil, fmt.Errorf("products page %d: %w", page, err)
		}
		all = append(all, body.Products...)
		c.logger.Debug("haravan: products page", "page", page, "count", len(body.Products))
		if len(body.Products) < c.pageSize {
			return all, nil
		}
	}
}

// CreateOrder pushes an order and returns the Haravan order id.
func (c *Client) CreateOrder(ctx context.Context, o Order) (int64, error) {
	payload, err := json.Marshal(orderEnvelope{Order: o})
	if err != nil {
		return 0, err
	}
	var out createdOrder
	if err := c.do(ctx, http.MethodPost, "/com/orders.json", payload, &out); err != nil {
		return 0, fmt.Errorf("create order %s: %w", o.Reference, err)
	}
	return out.Order.ID, nil
}

// do sends one request, retrying 429 responses after the server's Retry-After.
// Any other non-2xx status is permanent.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) error {
	op := func() (struct{}, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return struct{}{}, backoff.Permanent(domain.Upstream("haravan request", err))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			wait := retryAfterSeconds(resp.Header.Get("Retry-After"))
			c.logger.Warn("haravan: rate limited", "path", path, "retry_after_s", wait)
			return struct{}{}, backoff.RetryAfter(wait)
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return struct{}{}, backoff.Permanent(fmt.Errorf("%w: haravan %s %s: status %d: %s",
				domain.ErrUpstream, method, path, resp.StatusCode, strings.TrimSpace(string(snippet))))
		}

		if out == nil {
			return struct{}{}, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("%w: decode haravan response: %v", domain.ErrUpstream, err))
		}
		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, op, backoff.WithMaxTries(c.maxTries))
	var rae *backoff.RetryAfterError
	if errors.As(err, &rae) {
		return fmt.Errorf("%w: haravan %s %s: still rate limited after %d attempts", domain.ErrUpstream, method, path, c.maxTries)
	}
	return err
}

func retryAfterSeconds(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return defaultRetryAfterSeconds
	}
	return n
}
