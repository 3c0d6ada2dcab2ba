package store

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable means no sensor table is reachable for this process.
var ErrStoreUnavailable = errors.New("sensor store unavailable")

// QueryError reports a failed read against the sensor table.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
