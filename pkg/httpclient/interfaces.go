package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client is a channel bound to a single base URL that exchanges JSON bodies.
// path is resolved against the base URL; body may be nil.
type Client interface {
	Send(ctx context.Context, method, path string, body any) (Response, error)
}
