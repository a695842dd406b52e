package irrecoverable

import (
	"fmt"
)

// exception represents an unexpected error. It wraps an error, which could be a sentinel error.
// IT does NOT IMPLEMENT an UNWRAP method, so the enclosed error's type can not be accessed.
// Therefore, methods such as `errors.As` and `errors.Is` do not detect the exception as a known sentinel error.
type exception struct {
	err error
}

// Error returns the error string of the exception. It is always prefixed by
// "[exception!]" to easily differentiate unexpected errors in logs.
func (e exception) Error() string {
	return "[exception!] " + e.err.Error()
}

// NewExceptionf returns an error wrapped as an exception, so it is not
// matched by errors.Is/As against the sentinels it was built from.
func NewExceptionf(msg string, args ...interface{}) error {
	return exception{fmt.Errorf(msg, args...)}
}
