package types

import (
	"errors"
	"fmt"
)

// CustomError is an error with an HTTP status and an envelope type. Err keeps
// the cause for errors.Is and is never rendered.
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Err     error  `json:"-"`
}

// NewError builds a CustomError with a formatted message.
func NewError(code int, errType, format string, args ...any) *CustomError {
	return &CustomError{Code: code, Message: fmt.Sprintf(format, args...), Type: errType}
}

// Wrap records cause on e and returns it.
func (e *CustomError) Wrap(cause error) *CustomError {
	e.Err = cause
	return e
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// AsCustomError finds a CustomError in err's chain.
func AsCustomError(err error) (*CustomError, bool) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
