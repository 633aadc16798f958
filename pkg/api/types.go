package api

import "strings"

// HealthyStatus is the only status token that counts as healthy. Matching is exact.
const HealthyStatus = "healthy"

// GreetingResponse is the body of GET /api/hello.
type GreetingResponse struct {
	Message string `json:"message" yaml:"message"`
	Source  string `json:"source" yaml:"source"`
}

// Kind classifies the raw Source label.
func (g GreetingResponse) Kind() Source { return ParseSource(g.Source) }

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status          string `json:"status" yaml:"status"`
	NativeAvailable bool   `json:"nativeAvailable" yaml:"native_available"`
	Service         string `json:"service" yaml:"service"`
}

// Healthy reports whether Status is exactly HealthyStatus.
func (h HealthResponse) Healthy() bool { return h.Status == HealthyStatus }

// ServiceStatus is the derived summary presentation code renders.
// NativeAvailable is never true while IsRunning is false.
type ServiceStatus struct {
	IsRunning       bool `json:"isRunning" yaml:"is_running"`
	NativeAvailable bool `json:"nativeAvailable" yaml:"native_available"`
}

// NotRunning is the status reported when no live health response exists.
var NotRunning = ServiceStatus{}

// Source identifies which backend implementation produced a greeting.
type Source int

const (
	SourceUnknown Source = iota
	SourceNative
	SourceFallback
)

// sourceLabels maps the labels backends are known to send. Lookup is by whole
// token after trimming and lower-casing, never by substring.
var sourceLabels = map[string]Source{
	"native":          SourceNative,
	"c++":             SourceNative,
	"c++ library":     SourceNative,
	"fallback":        SourceFallback,
	"python":          SourceFallback,
	"python fallback": SourceFallback,
}

// ParseSource maps a raw source label onto the closed Source enumeration.
func ParseSource(raw string) Source {
	if s, ok := sourceLabels[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return SourceUnknown
}

func (s Source) String() string {
	switch s {
	case SourceNative:
		return "native"
	case SourceFallback:
		return "fallback"
	default:
		return "unknown"
	}
}
