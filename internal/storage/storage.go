package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/hscide-client/pkg/api"
)

// Package storage keeps a local journal of status probes. The journal is a
// history log; nothing reads it back to decide the current status.

// Probe is one DeriveStatus observation.
type Probe struct {
	ObservedAt time.Time         `json:"observed_at" yaml:"observed_at"`
	BaseURL    string            `json:"base_url" yaml:"base_url"`
	Status     api.ServiceStatus `json:"status" yaml:"status"`
	Changed    bool              `json:"changed" yaml:"changed"`
}

// Store appends probes and lists the most recent ones.
type Store interface {
	Close() error
	Record(p Probe) error
	Recent(limit int) ([]Probe, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	ProbeTTL        time.Duration
	CleanupInterval time.Duration
}

const (
	defaultProbeTTL        = 7 * 24 * time.Hour
	defaultCleanupInterval = 6 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return NopStore(), nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts, time.Now)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.ProbeTTL <= 0 {
		opts.ProbeTTL = defaultProbeTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// NopStore returns a Store that keeps nothing.
func NopStore() Store { return noopStore{} }

type noopStore struct{}

func (noopStore) Close() error                { return nil }
func (noopStore) Record(Probe) error          { return nil }
func (noopStore) Recent(int) ([]Probe, error) { return nil, nil }
