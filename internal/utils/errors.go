package utils

import "fmt"

// AppError tags a failure with the operation that produced it (for example
// "debug.scan") and a short message safe to show dashboard users. The
// underlying store or pipeline error is kept in Err for logs and errors.Is.
type AppError struct {
	Op  string
	Msg string
	Err error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Msg
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError returns an *AppError as an error.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}
