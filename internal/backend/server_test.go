package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Adda-Baaj/hscide-client/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T, native bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(0, NewGreeter(native), nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestClientAgainstNativeBackend(t *testing.T) {
	srv := newTestBackend(t, true)
	client, err := api.NewForBaseURL(srv.URL, 0, nil)
	require.NoError(t, err)

	greeting, err := client.FetchGreeting(context.Background())
	require.NoError(t, err)
	assert.Equal(t, api.GreetingResponse{Message: "Hello, World!", Source: "native"}, greeting)
	assert.Equal(t, api.SourceNative, greeting.Kind())

	health, err := client.FetchHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, api.HealthResponse{Status: "healthy", NativeAvailable: true, Service: ServiceName}, health)

	assert.Equal(t, api.ServiceStatus{IsRunning: true, NativeAvailable: true}, client.DeriveStatus(context.Background()))
}

func TestClientAgainstFallbackBackend(t *testing.T) {
	srv := newTestBackend(t, false)
	client, err := api.NewForBaseURL(srv.URL, 0, nil)
	require.NoError(t, err)

	greeting, err := client.FetchGreeting(context.Background())
	require.NoError(t, err)
	assert.Equal(t, api.SourceFallback, greeting.Kind())
	assert.Equal(t, api.ServiceStatus{IsRunning: true}, client.DeriveStatus(context.Background()))
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestBackend(t, false)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+api.HelloPath, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestBackend(t, false)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
