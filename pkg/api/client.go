// Package api is the service client for the greeting backend: it fetches the
// greeting and health documents and derives an always-available ServiceStatus.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Adda-Baaj/hscide-client/pkg/httpclient"
)

const (
	HelloPath  = "/api/hello"
	HealthPath = "/api/health"
)

// Client is the service client. It holds no state beyond its collaborators and
// is safe for concurrent use.
type Client struct {
	transport httpclient.Client
	log       Logger
}

// New builds a Client on top of a transport binding.
func New(transport httpclient.Client, log Logger) (*Client, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport must not be nil")
	}
	if log == nil {
		log = noopLogger{}
	}
	return &Client{transport: transport, log: log}, nil
}

// NewForBaseURL builds a Client with a resty transport bound to baseURL.
func NewForBaseURL(baseURL string, timeout time.Duration, log Logger) (*Client, error) {
	transport, err := httpclient.NewRestyClient(httpclient.Options{BaseURL: baseURL, Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("init transport: %w", err)
	}
	return New(transport, log)
}

// FetchGreeting issues GET /api/hello. Transport failures are returned as
// *httpclient.NetworkError unchanged.
func (c *Client) FetchGreeting(ctx context.Context) (GreetingResponse, error) {
	var out GreetingResponse
	if err := c.getJSON(ctx, HelloPath, &out); err != nil {
		return GreetingResponse{}, err
	}
	return out, nil
}

// FetchHealth issues GET /api/health. Transport failures are returned as
// *httpclient.NetworkError unchanged.
func (c *Client) FetchHealth(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	if err := c.getJSON(ctx, HealthPath, &out); err != nil {
		return HealthResponse{}, err
	}
	return out, nil
}

// DeriveStatus probes the health endpoint and never fails. Any error from the
// probe is logged and reported as NotRunning.
func (c *Client) DeriveStatus(ctx context.Context) ServiceStatus {
	res := ResultOf(c.FetchHealth(ctx))
	if !res.OK() {
		c.log.WarnObj("service status check failed", "status_error", map[string]any{
			"endpoint": HealthPath,
			"error":    res.Err.Error(),
		})
	}

	status := StatusFromResult(res)
	derivedStatusTotal.WithLabelValues(strconv.FormatBool(status.IsRunning)).Inc()
	return status
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.transport.Send(ctx, http.MethodGet, path, nil)
	if err != nil {
		requestsTotal.WithLabelValues(path, outcomeNetwork).Inc()
		return err
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		requestsTotal.WithLabelValues(path, outcomeMalformed).Inc()
		return &MalformedResponseError{Endpoint: path, Err: err}
	}

	requestsTotal.WithLabelValues(path, outcomeOK).Inc()
	c.log.DebugObj("backend response decoded", "response", map[string]any{
		"endpoint": path,
		"status":   resp.StatusCode(),
	})
	return nil
}
