package api

// Logger defines the logging surface the service client relies on.
type Logger interface {
	WarnObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) DebugObj(string, string, interface{}) {}
