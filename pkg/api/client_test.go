package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Adda-Baaj/hscide-client/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResponse struct {
	body   []byte
	status int
}

func (r fakeResponse) Body() []byte    { return r.body }
func (r fakeResponse) StatusCode() int { return r.status }

// fakeTransport answers by path and records the requests it saw.
type fakeTransport struct {
	mu     sync.Mutex
	bodies map[string]string
	errs   map[string]error
	calls  []string
}

func (f *fakeTransport) Send(_ context.Context, method, path string, _ any) (httpclient.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, method+" "+path)
	f.mu.Unlock()

	if err := f.errs[path]; err != nil {
		return nil, err
	}
	body, ok := f.bodies[path]
	if !ok {
		return nil, &httpclient.NetworkError{Method: method, URL: path, StatusCode: http.StatusNotFound, Err: httpclient.ErrUnexpectedStatus}
	}
	return fakeResponse{body: []byte(body), status: http.StatusOK}, nil
}

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (r *recordingLogger) WarnObj(msg, _ string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warns = append(r.warns, msg)
}
func (r *recordingLogger) DebugObj(string, string, interface{}) {}

func newTestClient(t *testing.T, tr *fakeTransport, log Logger) *Client {
	t.Helper()
	c, err := New(tr, log)
	require.NoError(t, err)
	return c
}

func healthBody(status string, native bool) string {
	return fmt.Sprintf(`{"status":%q,"nativeAvailable":%t,"service":"x"}`, status, native)
}

func TestNewRejectsNilTransport(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestFetchGreetingReturnsBodyUnchanged(t *testing.T) {
	tr := &fakeTransport{bodies: map[string]string{HelloPath: `{"message":"Hello","source":"native"}`}}
	c := newTestClient(t, tr, nil)

	got, err := c.FetchGreeting(context.Background())
	require.NoError(t, err)
	assert.Equal(t, GreetingResponse{Message: "Hello", Source: "native"}, got)
	assert.Equal(t, []string{"GET /api/hello"}, tr.calls)
}

func TestFetchHealthReturnsBodyUnchanged(t *testing.T) {
	tr := &fakeTransport{bodies: map[string]string{HealthPath: healthBody("degraded", true)}}
	c := newTestClient(t, tr, nil)

	got, err := c.FetchHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, HealthResponse{Status: "degraded", NativeAvailable: true, Service: "x"}, got)
	assert.Equal(t, []string{"GET /api/health"}, tr.calls)
}

func TestFetchPropagatesNetworkErrorUnchanged(t *testing.T) {
	netErr := &httpclient.NetworkError{Method: http.MethodGet, URL: "http://backend/api/hello", Err: errors.New("connection refused")}
	tr := &fakeTransport{errs: map[string]error{HelloPath: netErr, HealthPath: netErr}}
	c := newTestClient(t, tr, nil)

	_, err := c.FetchGreeting(context.Background())
	assert.Same(t, netErr, err)

	_, err = c.FetchHealth(context.Background())
	assert.Same(t, netErr, err)
}

func TestFetchMalformedBody(t *testing.T) {
	tr := &fakeTransport{bodies: map[string]string{
		HelloPath:  `<html>oops</html>`,
		HealthPath: `{"status":5}`,
	}}
	c := newTestClient(t, tr, nil)

	_, err := c.FetchGreeting(context.Background())
	require.Error(t, err)
	assert.True(t, IsMalformedResponse(err))
	assert.False(t, httpclient.IsNetworkError(err))

	_, err = c.FetchHealth(context.Background())
	var me *MalformedResponseError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, HealthPath, me.Endpoint)
}

func TestFetchToleratesMissingFields(t *testing.T) {
	tr := &fakeTransport{bodies: map[string]string{HealthPath: `{"service":"x"}`}}
	c := newTestClient(t, tr, nil)

	got, err := c.FetchHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, HealthResponse{Service: "x"}, got)

	// A JSON null carries no fields at all and decodes to the zero value.
	tr.bodies = map[string]string{HelloPath: `null`, HealthPath: `null`}

	greeting, err := c.FetchGreeting(context.Background())
	require.NoError(t, err)
	assert.Equal(t, GreetingResponse{}, greeting)
	assert.Equal(t, SourceUnknown, greeting.Kind())

	health, err := c.FetchHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, HealthResponse{}, health)
	assert.Equal(t, NotRunning, c.DeriveStatus(context.Background()))
}

func TestDeriveStatusScenarios(t *testing.T) {
	cases := []struct {
		name string
		body string
		err  error
		want ServiceStatus
		warn bool
	}{
		{name: "healthy with native", body: healthBody("healthy", true), want: ServiceStatus{IsRunning: true, NativeAvailable: true}},
		{name: "healthy without native", body: healthBody("healthy", false), want: ServiceStatus{IsRunning: true}},
		{name: "degraded hides native", body: healthBody("degraded", true), want: NotRunning},
		{name: "case sensitive", body: healthBody("Healthy", true), want: NotRunning},
		{name: "padded token", body: healthBody(" healthy", true), want: NotRunning},
		{name: "missing status", body: `{"nativeAvailable":true}`, want: NotRunning},
		{name: "connection error", err: &httpclient.NetworkError{Method: "GET", URL: HealthPath, Err: errors.New("dial tcp: connection refused")}, want: NotRunning, warn: true},
		{name: "malformed body", body: `not json`, want: NotRunning, warn: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := &fakeTransport{bodies: map[string]string{}, errs: map[string]error{}}
			if tc.err != nil {
				tr.errs[HealthPath] = tc.err
			} else {
				tr.bodies[HealthPath] = tc.body
			}
			log := &recordingLogger{}
			c := newTestClient(t, tr, log)

			got := c.DeriveStatus(context.Background())
			assert.Equal(t, tc.want, got)
			if !got.IsRunning {
				assert.False(t, got.NativeAvailable)
			}
			assert.Equal(t, tc.warn, len(log.warns) == 1)
		})
	}
}

func TestStatusFromResultIsTotal(t *testing.T) {
	stale := HealthResponse{Status: HealthyStatus, NativeAvailable: true}
	got := StatusFromResult(Result[HealthResponse]{Value: stale, Err: errors.New("boom")})
	assert.Equal(t, NotRunning, got)

	got = StatusFromResult(ResultOf(stale, nil))
	assert.Equal(t, ServiceStatus{IsRunning: true, NativeAvailable: true}, got)
}

func TestParseSourceClosedEnumeration(t *testing.T) {
	assert.Equal(t, SourceNative, ParseSource("native"))
	assert.Equal(t, SourceNative, ParseSource(" C++ Library "))
	assert.Equal(t, SourceFallback, ParseSource("Python fallback"))
	assert.Equal(t, SourceUnknown, ParseSource("served by C++ library v2"))
	assert.Equal(t, SourceUnknown, ParseSource(""))
	assert.Equal(t, "fallback", GreetingResponse{Source: "fallback"}.Kind().String())
}

func TestClientAgainstHTTPBackend(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(HelloPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Hello","source":"native"}`))
	})
	mux.HandleFunc(HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(healthBody("healthy", true)))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := NewForBaseURL(srv.URL, 0, nil)
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		greeting GreetingResponse
		gErr     error
		status   ServiceStatus
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		greeting, gErr = c.FetchGreeting(context.Background())
	}()
	go func() {
		defer wg.Done()
		status = c.DeriveStatus(context.Background())
	}()
	wg.Wait()

	require.NoError(t, gErr)
	assert.Equal(t, GreetingResponse{Message: "Hello", Source: "native"}, greeting)
	assert.Equal(t, ServiceStatus{IsRunning: true, NativeAvailable: true}, status)
}

func TestDeriveStatusUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewForBaseURL(url, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, NotRunning, c.DeriveStatus(context.Background()))

	_, err = c.FetchGreeting(context.Background())
	assert.True(t, httpclient.IsNetworkError(err))
}
