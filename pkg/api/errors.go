package api

import (
	"errors"
	"fmt"
)

// MalformedResponseError reports a 2xx body that does not decode into the expected shape.
// Missing fields are not malformed; they decode to zero values.
type MalformedResponseError struct {
	Endpoint string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.Endpoint, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IsMalformedResponse reports whether err is or wraps a MalformedResponseError.
func IsMalformedResponse(err error) bool {
	var me *MalformedResponseError
	return errors.As(err, &me)
}
