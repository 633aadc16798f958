package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Adda-Baaj/hscide-client/pkg/httpclient"
)

func webhookConfig(url string) PublisherConfig {
	cfg := PublisherConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{URL: url, Headers: map[string]string{"X-Source": "watch"}},
	}
	cfg.normalize()
	return cfg
}

func TestWebhookPostsEventToConfiguredURL(t *testing.T) {
	var received Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/hooks/status" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("X-Source"); got != "watch" {
			t.Errorf("missing configured header, got %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	pub, err := newHTTPPublisher(context.Background(), webhookConfig(srv.URL+"/hooks/status"), nil)
	if err != nil {
		t.Fatalf("newHTTPPublisher: %v", err)
	}
	if err := pub.Publish(context.Background(), upEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !received.Current.IsRunning || received.Previous.IsRunning || received.BaseURL != "http://backend:8000" {
		t.Fatalf("webhook received unexpected event: %#v", received)
	}
}

func TestWebhookRejectionIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	pub, err := newHTTPPublisher(context.Background(), webhookConfig(srv.URL), nil)
	if err != nil {
		t.Fatalf("newHTTPPublisher: %v", err)
	}

	err = pub.Publish(context.Background(), upEvent())
	var ne *httpclient.NetworkError
	if !errors.As(err, &ne) || ne.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected NetworkError with status 400, got %v", err)
	}
}

func TestWebhookRejectsNonHTTPURL(t *testing.T) {
	if _, err := newHTTPPublisher(context.Background(), webhookConfig("ftp://example.com/drop"), nil); err == nil {
		t.Fatalf("expected error for ftp webhook url")
	}
}
