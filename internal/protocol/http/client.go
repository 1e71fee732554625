// Package http executes fully resolved request plans over HTTP.
package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/d-elbel/curlew/internal/core"
	"github.com/d-elbel/curlew/internal/interfaces"
)

// Client implements interfaces.Executor over net/http.
type Client struct {
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// NewClient creates an HTTP executor with the given options.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithTransport sets a custom HTTP transport.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = transport
	}
}

// Execute sends the plan and returns the observed response. Transport failures
// come back as errors; HTTP error statuses are ordinary responses.
func (c *Client) Execute(ctx context.Context, plan interfaces.ExecutionPlan) (*core.Response, error) {
	httpReq, err := c.toHTTPRequest(ctx, plan)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	runtime := int(time.Since(start).Milliseconds())

	return core.NewResponse(
		httpResp.StatusCode,
		encodeHeaders(httpResp.Header),
		string(bodyBytes),
		runtime,
	), nil
}

func (c *Client) toHTTPRequest(ctx context.Context, plan interfaces.ExecutionPlan) (*http.Request, error) {
	var bodyReader io.Reader
	if plan.Body != "" {
		bodyReader = strings.NewReader(plan.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, plan.Method, plan.URL, bodyReader)
	if err != nil {
		return nil, err
	}

	for _, pair := range plan.Headers {
		httpReq.Header.Add(pair.Key, pair.Value)
	}

	// The body's implied content type applies only when the user did not set
	// one explicitly.
	if plan.ContentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", plan.ContentType)
	}
	if plan.Auth != "" && httpReq.Header.Get("Authorization") == "" {
		httpReq.Header.Set("Authorization", plan.Auth)
	}

	return httpReq, nil
}

// encodeHeaders flattens response headers to a JSON object for caching.
// Multi-valued headers are joined with commas.
func encodeHeaders(header http.Header) string {
	flat := make(map[string]string, len(header))
	for key, values := range header {
		flat[key] = strings.Join(values, ", ")
	}
	data, err := json.Marshal(flat)
	if err != nil {
		return ""
	}
	return string(data)
}
