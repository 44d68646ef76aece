package readwise

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"readwise_syncer/internal/domain"
)

const sourceID = "readwise"

// Config holds Reader API client configuration.
type Config struct {
	BaseURL            string
	Token              string
	Timeout            time.Duration
	RetryAfterFallback time.Duration
	TransportRetryWait time.Duration
}

// Client fetches pages from the Reader list API. It keeps no state between
// calls; the cursor and filter are threaded through by the caller.
type Client struct {
	httpClient         *http.Client
	baseURL            string
	token              string
	retryAfterFallback time.Duration
	transportRetryWait time.Duration
	logger             *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:            cfg.BaseURL,
		token:              cfg.Token,
		retryAfterFallback: cfg.RetryAfterFallback,
		transportRetryWait: cfg.TransportRetryWait,
		logger:             logger.With("source", sourceID),
	}
}

// HTTPError is a non-retryable status returned by the API.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("non-retryable HTTP error %d from Reader API", e.StatusCode)
}

// FetchPage performs one authenticated list request and parses the result.
// 429 and 5xx responses are retried after the server's Retry-After (or the
// configured fallback); transport failures are retried after a fixed wait.
// Retries are unbounded: the single API credential is rate limited
// globally, so waiting out the server beats giving up. Other HTTP statuses
// and structural parse failures are fatal.
func (c *Client) FetchPage(ctx context.Context, cursor *string, updatedAfter *time.Time) (*domain.Page, error) {
	reqURL := c.buildURL(cursor, updatedAfter)

	for {
		resp, err := c.do(ctx, reqURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Error("network transport error, retrying",
				"error", err,
				"wait", c.transportRetryWait,
			)
			if err := c.sleep(ctx, c.transportRetryWait); err != nil {
				return nil, err
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				c.logger.Error("failed to read response body, retrying",
					"error", readErr,
					"wait", c.transportRetryWait,
				)
				if err := c.sleep(ctx, c.transportRetryWait); err != nil {
					return nil, err
				}
				continue
			}
			page, err := decodePage(body, c.logger)
			if err != nil {
				return nil, fmt.Errorf("decode page: %w (raw body: %s)", err, body)
			}
			return page, nil

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			wait := c.retryAfter(resp)
			c.logger.Warn("retryable HTTP status, waiting",
				"status", resp.StatusCode,
				"wait", wait,
			)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}

		default:
			return nil, &HTTPError{StatusCode: resp.StatusCode}
		}
	}
}

func (c *Client) do(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}

func (c *Client) retryAfter(resp *http.Response) time.Duration {
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs < 0 {
		c.logger.Warn("missing or unparsable Retry-After header, using fallback",
			"status", resp.StatusCode,
			"fallback", c.retryAfterFallback,
		)
		return c.retryAfterFallback
	}
	return time.Duration(secs) * time.Second
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (c *Client) buildURL(cursor *string, updatedAfter *time.Time) string {
	params := url.Values{}
	if cursor != nil {
		params.Set("pageCursor", *cursor)
	}
	if updatedAfter != nil {
		params.Set("updatedAfter", updatedAfter.UTC().Format("2006-01-02T15:04:05Z"))
	}

	if len(params) == 0 {
		return c.baseURL
	}
	return c.baseURL + "?" + params.Encode()
}
