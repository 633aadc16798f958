package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Adda-Baaj/hscide-client/internal/logger"
	"github.com/Adda-Baaj/hscide-client/internal/storage"
	"github.com/Adda-Baaj/hscide-client/pkg/api"
	"github.com/Adda-Baaj/hscide-client/pkg/publishers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedDeriver returns statuses in order, repeating the last one.
type scriptedDeriver struct {
	mu       sync.Mutex
	statuses []api.ServiceStatus
	calls    int
}

func (s *scriptedDeriver) DeriveStatus(context.Context) api.ServiceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.statuses) {
		i = len(s.statuses) - 1
	}
	s.calls++
	return s.statuses[i]
}

type memStore struct {
	probes []storage.Probe
	err    error
	closed bool
}

func (m *memStore) Close() error { m.closed = true; return nil }
func (m *memStore) Record(p storage.Probe) error {
	m.probes = append(m.probes, p)
	return m.err
}
func (m *memStore) Recent(int) ([]storage.Probe, error) { return m.probes, nil }

type fakeFanout struct {
	events []publishers.Event
	err    error
}

func (f *fakeFanout) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.events = append(f.events, evt)
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

var (
	up         = api.ServiceStatus{IsRunning: true, NativeAvailable: true}
	upNoNative = api.ServiceStatus{IsRunning: true}
)

func TestWatcherPublishesOnlyTransitions(t *testing.T) {
	deriver := &scriptedDeriver{statuses: []api.ServiceStatus{up, up, api.NotRunning, api.NotRunning, upNoNative}}
	store := &memStore{}
	fanout := &fakeFanout{}
	w := newWatcher("http://backend", deriver, store, fanout, time.Second, logger.NopLogger{})

	for i := 0; i < 5; i++ {
		w.probe(context.Background())
	}

	require.Len(t, store.probes, 5)
	changed := make([]bool, 0, 5)
	for _, p := range store.probes {
		changed = append(changed, p.Changed)
		assert.Equal(t, "http://backend", p.BaseURL)
	}
	assert.Equal(t, []bool{false, false, true, false, true}, changed)

	require.Len(t, fanout.events, 2)
	assert.Equal(t, up, fanout.events[0].Previous)
	assert.Equal(t, api.NotRunning, fanout.events[0].Current)
	assert.Equal(t, api.NotRunning, fanout.events[1].Previous)
	assert.Equal(t, upNoNative, fanout.events[1].Current)
}

func TestWatcherSurvivesJournalAndPublishErrors(t *testing.T) {
	deriver := &scriptedDeriver{statuses: []api.ServiceStatus{up, api.NotRunning}}
	store := &memStore{err: errors.New("disk full")}
	fanout := &fakeFanout{err: errors.New("sink down")}
	w := newWatcher("http://backend", deriver, store, fanout, time.Second, logger.NopLogger{})

	w.probe(context.Background())
	p := w.probe(context.Background())

	assert.True(t, p.Changed)
	assert.Len(t, fanout.events, 1)
	assert.Equal(t, 2, deriver.calls)
}

func TestWatcherRunStopsOnCancel(t *testing.T) {
	deriver := &scriptedDeriver{statuses: []api.ServiceStatus{up}}
	store := &memStore{}
	w := newWatcher("http://backend", deriver, store, nil, 10*time.Millisecond, logger.NopLogger{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, w.Run(ctx))
	assert.True(t, store.closed)
	assert.GreaterOrEqual(t, len(store.probes), 1)
}

func TestRunRejectsUninitializedWatcher(t *testing.T) {
	var w *Watcher
	assert.Error(t, w.Run(context.Background()))
}

func TestWatcherWithoutJournalStillPublishes(t *testing.T) {
	deriver := &scriptedDeriver{statuses: []api.ServiceStatus{api.NotRunning, up}}
	fanout := &fakeFanout{}
	w := newWatcher("http://backend", deriver, nil, fanout, time.Second, logger.NopLogger{})

	require.NotNil(t, w.store)
	w.probe(context.Background())
	p := w.probe(context.Background())

	assert.True(t, p.Changed)
	require.Len(t, fanout.events, 1)
	assert.Equal(t, up, fanout.events[0].Current)

	recent, err := w.store.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestBuildFanoutSkipsDisabledPublishers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.yaml")
	raw := `
publishers:
  - id: hook
    type: http
    http:
      url: http://127.0.0.1:9/hook
  - id: paused
    type: http
    enabled: false
    http:
      url: http://127.0.0.1:9/paused
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	fanout, err := buildFanout(context.Background(), path, logger.NopLogger{})
	require.NoError(t, err)
	assert.Equal(t, 1, fanout.Size())
}
