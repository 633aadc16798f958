// Package backend is a small demonstration server for the greeting API. It
// serves /api/hello and /api/health so the client has something to talk to.
package backend

import "github.com/Adda-Baaj/hscide-client/pkg/api"

// Greeter produces the greeting payload.
type Greeter interface {
	Greet() api.GreetingResponse
	Native() bool
}

type nativeGreeter struct{}

func (nativeGreeter) Greet() api.GreetingResponse {
	return api.GreetingResponse{Message: "Hello, World!", Source: api.SourceNative.String()}
}
func (nativeGreeter) Native() bool { return true }

type fallbackGreeter struct{}

func (fallbackGreeter) Greet() api.GreetingResponse {
	return api.GreetingResponse{Message: "Hello, World!", Source: api.SourceFallback.String()}
}
func (fallbackGreeter) Native() bool { return false }

// NewGreeter picks the native greeter when the native component is available.
func NewGreeter(nativeAvailable bool) Greeter {
	if nativeAvailable {
		return nativeGreeter{}
	}
	return fallbackGreeter{}
}
