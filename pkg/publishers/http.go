package publishers

import (
	"context"
	"fmt"
	"time"

	"github.com/Adda-Baaj/hscide-client/pkg/httpclient"
)

// webhookPublisher delivers status events to an HTTP endpoint through the same
// transport binding the service client uses, so failures surface as
// *httpclient.NetworkError.
type webhookPublisher struct {
	id     string
	method string
	client httpclient.Client
	log    Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}

	client, err := httpclient.NewRestyClient(httpclient.Options{
		BaseURL: cfg.HTTP.URL,
		Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		Headers: cfg.HTTP.Headers,
	})
	if err != nil {
		return nil, fmt.Errorf("webhook %q: %w", cfg.ID, err)
	}

	method := cfg.HTTP.Method
	if method == "" {
		method = defaultWebhookMethod
	}
	return &webhookPublisher{
		id:     cfg.ID,
		method: method,
		client: client,
		log:    ensureLogger(log),
	}, nil
}

func (w *webhookPublisher) ID() string   { return w.id }
func (w *webhookPublisher) Type() string { return TypeHTTP }

func (w *webhookPublisher) Publish(ctx context.Context, evt Event) error {
	resp, err := w.client.Send(ctx, w.method, "", evt)
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	w.log.DebugObj("webhook accepted status event", "publisher_http_delivery", map[string]any{
		"publisher_id": w.id,
		"status":       resp.StatusCode(),
		"is_running":   evt.Current.IsRunning,
	})
	return nil
}
