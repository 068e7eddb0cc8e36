package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jeroenl/wikitree-go/internal/util"
	"github.com/jeroenl/wikitree-go/pkg/logger"
)

// ErrNotFound is the definitive "resource does not exist" signal. It is
// distinct from transient transport failures: callers may treat it as
// terminal for the requested resource.
var ErrNotFound = errors.New("fetch: resource not found")

// Fetcher retrieves the raw document behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches documents over plain HTTP GET. Responses with status
// 404 or 410 map to ErrNotFound and are never retried; transport errors and
// other non-2xx statuses are retried up to MaxRetries times.
type HTTPFetcher struct {
	client     *http.Client
	userAgent  string
	maxRetries int
}

// NewHTTPFetcherParams contains configuration for creating an HTTPFetcher.
type NewHTTPFetcherParams struct {
	// Client is the underlying HTTP client. Defaults to http.DefaultClient.
	// Timeouts and transport policy belong here, not in the fetcher.
	Client *http.Client
	// UserAgent is sent with every request when non-empty.
	UserAgent string
	// MaxRetries is the total number of attempts for transient failures.
	// Values below 1 mean a single attempt.
	MaxRetries int
}

// NewHTTPFetcher creates a fetcher for plain HTTP GET requests.
func NewHTTPFetcher(params NewHTTPFetcherParams) *HTTPFetcher {
	client := params.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{
		client:     client,
		userAgent:  params.UserAgent,
		maxRetries: params.MaxRetries,
	}
}

// Fetch performs a GET request and returns the response body.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return util.RetryWithContext(ctx, f.maxRetries, func(ctx context.Context) ([]byte, error) {
		return f.fetchOnce(ctx, url)
	})
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, util.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, util.Permanent(fmt.Errorf("%w: %s", ErrNotFound, url))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		logger.Debug("Unexpected status fetching url", "url", url, "status", resp.StatusCode)
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
