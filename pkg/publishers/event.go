package publishers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Adda-Baaj/hscide-client/pkg/api"
)

// Event announces a change of the derived service status.
type Event struct {
	BaseURL    string            `json:"base_url"`
	Previous   api.ServiceStatus `json:"previous"`
	Current    api.ServiceStatus `json:"current"`
	ObservedAt time.Time         `json:"observed_at"`
}

// NewEvent constructs an Event for a status transition observed now.
func NewEvent(baseURL string, previous, current api.ServiceStatus) Event {
	return Event{
		BaseURL:    baseURL,
		Previous:   previous,
		Current:    current,
		ObservedAt: time.Now().UTC(),
	}
}

// payload is the JSON message body shared by the queue and topic sinks.
func (e Event) payload() ([]byte, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return raw, nil
}

// attributes are the routing attributes attached to queue and topic messages.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"base_url":         e.BaseURL,
		"is_running":       strconv.FormatBool(e.Current.IsRunning),
		"native_available": strconv.FormatBool(e.Current.NativeAvailable),
	}
}

// dedupKey identifies one transition for FIFO deduplication.
func (e Event) dedupKey() string {
	return fmt.Sprintf("%d-%t-%t", e.ObservedAt.UnixNano(), e.Current.IsRunning, e.Current.NativeAvailable)
}
