package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 10 * time.Second

// Options configures a RestyClient.
type Options struct {
	// BaseURL is the single endpoint every request is resolved against. Required.
	BaseURL string
	// Timeout bounds each round trip. Zero selects the default.
	Timeout time.Duration
	// Headers are sent with every request, after the JSON defaults.
	Headers map[string]string
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client  *resty.Client
	baseURL string
}

// NewRestyClient creates a RestyClient bound to opts.BaseURL.
func NewRestyClient(opts Options) (*RestyClient, error) {
	base, err := NormalizeBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := newRestyBaseClient(timeout)
	c.SetBaseURL(base)
	c.SetHeader("Content-Type", "application/json")
	c.SetHeader("Accept", "application/json")
	if len(opts.Headers) > 0 {
		c.SetHeaders(opts.Headers)
	}

	return &RestyClient{client: c, baseURL: base}, nil
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
// Retries stay at resty's default of zero.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

// BaseURL returns the normalized base URL the client is bound to.
func (r *RestyClient) BaseURL() string { return r.baseURL }

// Send performs a single round trip. An empty path targets the base URL itself.
// Transport failures and non-2xx responses are returned as *NetworkError.
func (r *RestyClient) Send(ctx context.Context, method, path string, body any) (Response, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = resty.MethodGet
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req := r.client.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	target := r.baseURL
	if p := strings.TrimLeft(path, "/"); p != "" {
		target += "/" + p
	}
	resp, err := req.Execute(method, target)
	if err != nil {
		return nil, &NetworkError{Method: method, URL: target, Err: err}
	}
	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &NetworkError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode(),
			Snippet:    bodySnippet(resp.Body()),
			Err:        fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode()),
		}
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// NormalizeBaseURL checks that raw is an absolute http(s) URL with a host and
// returns it without a trailing slash.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("base url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("base url %q must use http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url %q has no host", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
