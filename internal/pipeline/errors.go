package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Domain error taxonomy. Callers match with errors.Is.
var (
	ErrInvalidStage          = errors.New("invalid stage")
	ErrInvalidSubStatusValue = errors.New("invalid sub-status value")
	ErrInvalidInterest       = errors.New("invalid interest status")
	ErrUnknownField          = errors.New("unknown field")
	ErrInvalidItemType       = errors.New("invalid pending item type")
	ErrInvalidItemStatus     = errors.New("invalid pending item status")
	ErrEmptyUpdate           = errors.New("no fields to update")
	ErrTerminalStage         = errors.New("application is in a terminal stage")
	ErrVersionConflict       = errors.New("E_VERSION")
	ErrConflict              = errors.New("conflict")
	ErrNotFound              = errors.New("not found")
	ErrPersistence           = errors.New("persistence failure")
)

// ValidationError reports a single field whose value is outside its vocabulary.
type ValidationError struct {
	Field   string   `json:"field"`
	Value   string   `json:"value"`
	Allowed []string `json:"allowed,omitempty"`
	Err     error    `json:"-"`
}

func (e *ValidationError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("%s: %s", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %q is not one of [%s]", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationErrors collects every field that failed validation in one request.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i, e := range v {
		errs[i] = e
	}
	return errs
}

// Fields returns the offending field names in report order.
func (v ValidationErrors) Fields() []string {
	fields := make([]string, len(v))
	for i, e := range v {
		fields[i] = e.Field
	}
	return fields
}

// IsValidation reports whether err is a client input error.
func IsValidation(err error) bool {
	var ve *ValidationError
	var ves ValidationErrors
	return errors.As(err, &ve) || errors.As(err, &ves) || errors.Is(err, ErrEmptyUpdate)
}

// AsValidationErrors flattens err into a list of field errors, if it carries any.
func AsValidationErrors(err error) ValidationErrors {
	var ves ValidationErrors
	if errors.As(err, &ves) {
		return ves
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ValidationErrors{ve}
	}
	return nil
}

func invalid(field, value string, allowed []string, sentinel error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Allowed: allowed, Err: sentinel}
}
