package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// maxErrorBody bounds how much of a failed response is kept for the error
const maxErrorBody = 4096

// Client is a wrapper for HTTP client with rate limiting
type Client struct {
	HTTPClient      *http.Client
	Limiter         *rate.Limiter
	maxRetries      int
	maxRetryTimeout time.Duration
}

// ClientOptions holds options for creating a new Client
type ClientOptions struct {
	Timeout         time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new HTTP client with rate limiting
func NewClient(opts ClientOptions) *Client {
	// Set default values if not provided
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.MaxRetryTimeout == 0 {
		opts.MaxRetryTimeout = 30 * time.Second
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: opts.Timeout,
		},
		Limiter:         rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.RequestsPerSec),
		maxRetries:      opts.MaxRetries,
		maxRetryTimeout: opts.MaxRetryTimeout,
	}
}

// DoRequest performs an HTTP request with rate limiting and retries.
// Client errors other than 429 are not retried. The caller closes the body.
func (c *Client) DoRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.DoBuilt(ctx, func() (*http.Request, error) { return req, nil })
}

// DoBuilt retries like DoRequest but calls build before every attempt, for
// requests that carry single-use credentials such as a signed nonce.
func (c *Client) DoBuilt(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	operation := func() error {
		req, err := build()
		if err != nil {
			return backoff.Permanent(err)
		}
		r, err := c.attempt(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}

	// Use exponential backoff for retries
	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = c.maxRetryTimeout

	policy := backoff.WithContext(backoff.WithMaxRetries(backoffStrategy, uint64(c.maxRetries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	return resp, nil
}

// DoOnce performs a single rate-limited attempt. Used for calls that must not
// be repeated, such as order placement.
func (c *Client) DoOnce(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.attempt(ctx, req)
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return nil, permanent.Err
		}
		return nil, err
	}
	return resp, nil
}

// attempt sends req once. Errors that must not be retried are wrapped with backoff.Permanent.
func (c *Client) attempt(ctx context.Context, req *http.Request) (*http.Response, error) {
	// Wait for rate limiter
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, backoff.Permanent(err)
	}

	r, err := rewind(ctx, req)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	resp, err := c.HTTPClient.Do(r)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		statusErr := &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body)}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(statusErr)
		}
		return nil, statusErr
	}
	return resp, nil
}

// GetJSON issues a GET with the given headers and decodes the JSON body into out
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.DoRequest(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// rewind returns a copy of req bound to ctx with a fresh body, so the
// request can be sent again after a failed attempt.
func rewind(ctx context.Context, req *http.Request) (*http.Request, error) {
	clone := req.Clone(ctx)
	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewinding request body: %w", err)
		}
		clone.Body = body
	}
	return clone, nil
}

// HTTPStatusError represents an error due to a non-2xx HTTP status code
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("status %d: %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}
