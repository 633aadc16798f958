package api

// Result carries either a value or the error that prevented producing it.
type Result[T any] struct {
	Value T
	Err   error
}

// ResultOf packs a (value, error) pair.
func ResultOf[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Err: err}
}

// OK reports whether the result holds a value.
func (r Result[T]) OK() bool { return r.Err == nil }

// StatusFromResult maps a health probe outcome to a ServiceStatus. It is total:
// a failed probe yields NotRunning, and NativeAvailable is only taken from a
// response whose status is healthy.
func StatusFromResult(r Result[HealthResponse]) ServiceStatus {
	if !r.OK() || !r.Value.Healthy() {
		return NotRunning
	}
	return ServiceStatus{IsRunning: true, NativeAvailable: r.Value.NativeAvailable}
}
