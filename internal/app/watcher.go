package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Adda-Baaj/hscide-client/internal/config"
	"github.com/Adda-Baaj/hscide-client/internal/logger"
	"github.com/Adda-Baaj/hscide-client/internal/storage"
	"github.com/Adda-Baaj/hscide-client/pkg/api"
	"github.com/Adda-Baaj/hscide-client/pkg/publishers"
)

// StatusDeriver produces the always-available service status.
type StatusDeriver interface {
	DeriveStatus(ctx context.Context) api.ServiceStatus
}

// EventPublisher publishes status transitions downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Watcher polls the backend status on an interval, journals every probe and
// publishes an event whenever the derived status changes.
type Watcher struct {
	baseURL  string
	deriver  StatusDeriver
	store    storage.Store
	fanout   EventPublisher
	interval time.Duration
	log      logger.Logger
	now      func() time.Time

	last *api.ServiceStatus
}

// NewWatcher builds a watcher runtime from config.
func NewWatcher(ctx context.Context, cfg *config.Config, log logger.Logger) (*Watcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := api.NewForBaseURL(cfg.BaseURL, cfg.RequestTimeout, log)
	if err != nil {
		return nil, fmt.Errorf("init service client: %w", err)
	}

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	store, err := OpenJournal(cfg, log)
	if err != nil {
		_ = fanout.Close()
		return nil, err
	}

	return newWatcher(cfg.BaseURL, client, store, fanout, cfg.WatchInterval, log), nil
}

func newWatcher(baseURL string, deriver StatusDeriver, store storage.Store, fanout EventPublisher, interval time.Duration, log logger.Logger) *Watcher {
	if store == nil {
		store = storage.NopStore()
	}
	if fanout == nil {
		fanout = publishers.NewFanout(nil)
	}
	return &Watcher{
		baseURL:  baseURL,
		deriver:  deriver,
		store:    store,
		fanout:   fanout,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// OpenJournal opens the configured probe journal.
func OpenJournal(cfg *config.Config, log logger.Logger) (storage.Store, error) {
	store, err := storage.NewStore(cfg.JournalType, cfg.JournalPath, storage.Options{
		ProbeTTL:        cfg.JournalTTL,
		CleanupInterval: cfg.JournalCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init journal: %w", err)
	}
	log.InfoObj("journal initialized", "journal_config", map[string]any{
		"type":                     cfg.JournalType,
		"path":                     cfg.JournalPath,
		"ttl_seconds":              int(cfg.JournalTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.JournalCleanupInterval.Seconds()),
	})
	return store, nil
}

func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if path == "" {
		log.InfoObj("no publishers file configured; status changes are only journaled", "publishers_file", path)
		return publishers.NewFanout(nil), nil
	}

	cfgs, err := publishers.LoadConfigs(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers file: %w", err)
	}
	enabled := publishers.Enabled(cfgs)
	pubs, err := publishers.DefaultBuilders().Build(ctx, enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, c := range enabled {
		summaries = append(summaries, map[string]string{"id": c.ID, "type": c.Type})
	}
	log.InfoObj("publishers loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubs), nil
}

// Run probes immediately and then on every tick until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w == nil || w.deriver == nil {
		return fmt.Errorf("watcher is not initialized")
	}
	defer w.close()

	w.log.InfoObj("watch loop starting", "watcher_state", map[string]any{
		"base_url": w.baseURL,
		"interval": w.interval.String(),
	})

	w.probe(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.InfoObj("watch loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			w.probe(ctx)
		}
	}
}

// probe runs one DeriveStatus round. Journal and publish failures are logged;
// they never stop the loop.
func (w *Watcher) probe(ctx context.Context) storage.Probe {
	status := w.deriver.DeriveStatus(ctx)
	changed := w.last != nil && *w.last != status

	p := storage.Probe{
		ObservedAt: w.now().UTC(),
		BaseURL:    w.baseURL,
		Status:     status,
		Changed:    changed,
	}
	if err := w.store.Record(p); err != nil {
		w.log.ErrorObj("journal write failed", "error", err)
	}

	if changed {
		evt := publishers.NewEvent(w.baseURL, *w.last, status)
		delivered, err := w.fanout.Publish(ctx, evt)
		if err != nil {
			w.log.ErrorObj("status change publish failed", "publish_error", map[string]any{
				"delivered": delivered,
				"error":     err.Error(),
			})
		}
		w.log.InfoObj("service status changed", "status_change", evt)
	}

	w.last = &status
	return p
}

// close releases the journal and publishers, logging any errors encountered.
func (w *Watcher) close() {
	if err := w.store.Close(); err != nil {
		w.log.ErrorObj("journal close failed", "error", err)
	}
	if c, ok := w.fanout.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			w.log.ErrorObj("publishers close failed", "error", err)
		}
	}
}
