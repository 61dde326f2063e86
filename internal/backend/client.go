// Package backend is the single choke point for calls to the budgeting API.
// Every outbound request carries the service API key; requests made on behalf
// of a user additionally carry the resolved internal user ID. The client
// returns raw responses - interpreting status codes is the caller's job.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/helpmebudget/web/internal/fault"
	"github.com/helpmebudget/web/internal/metrics"
)

const (
	// ClientTimeout is the total request timeout.
	ClientTimeout = 30 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 10 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 10 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 15 * time.Second
)

// Header names for service-to-service calls.
const (
	HeaderAPIKey = "X-API-Key"
	HeaderUserID = "X-User-ID"
)

// Client issues authenticated requests to the backend API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	recorder   metrics.Recorder
}

// New creates a backend client with a tuned transport.
func New(baseURL, apiKey string, logger *slog.Logger, recorder metrics.Recorder) *Client {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: ClientTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   DialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   TLSHandshakeTimeout,
				ResponseHeaderTimeout: ResponseHeaderTimeout,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		logger:   logger,
		recorder: recorder,
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Do issues a request to <base>+endpoint with the service API key and JSON
// content type. If userID is non-empty it is sent in the X-User-ID header.
// A non-nil body is JSON-encoded. The raw response is returned; non-2xx
// statuses are NOT treated as errors here.
func (c *Client) Do(ctx context.Context, method, endpoint string, body any, userID string) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set(HeaderAPIKey, c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(HeaderUserID, userID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.recorder.ObserveBackendDuration(time.Since(start))

	if err != nil {
		c.recorder.IncBackendRequest("transport_error")
		c.logger.Error("backend call failed",
			slog.String("method", method),
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return nil, fault.Transport("backend unreachable", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.recorder.IncBackendRequest("success")
	} else {
		c.recorder.IncBackendRequest("upstream_error")
	}

	return resp, nil
}

// Health reports whether the backend answers its health endpoint.
// Used by the one-time startup probe; failures are reported, not raised.
func (c *Client) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := c.Do(ctx, http.MethodGet, "/health", nil, "")
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
