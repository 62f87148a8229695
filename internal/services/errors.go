package services

import (
	"errors"
	"fmt"
	"sort"

	"github.com/localnerve/grants-portal/internal/pipeline"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Vocabulary errors owned by the catalogue, directory and invoicing
// operations. The pipeline vocabularies live in package pipeline.
var (
	ErrInvalidGrantStatus   = errors.New("invalid grant status")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
	ErrInvalidResponse      = errors.New("response does not match the item type")
	ErrRequired             = errors.New("is required")
	ErrOutOfRange           = errors.New("out of range")
	ErrInvalidFormat        = errors.New("invalid format")
)

// storeErr maps a store error onto the domain taxonomy: a missing row is
// NotFound, a unique violation is Conflict, and anything else is a
// persistence failure wrapping the cause. Domain errors pass through.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pipeline.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return pipeline.ErrConflict
	case isDomain(err):
		return err
	}
	return fmt.Errorf("%w: %v", pipeline.ErrPersistence, err)
}

func isDomain(err error) bool {
	for _, target := range []error{
		pipeline.ErrNotFound,
		pipeline.ErrConflict,
		pipeline.ErrVersionConflict,
		pipeline.ErrTerminalStage,
		pipeline.ErrEmptyUpdate,
		pipeline.ErrPersistence,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return pipeline.IsValidation(err)
}

// conflict wraps ErrConflict with a reason shown to the caller.
func conflict(reason string) error {
	return fmt.Errorf("%w: %s", pipeline.ErrConflict, reason)
}

func required(field string) *pipeline.ValidationError {
	return &pipeline.ValidationError{Field: field, Err: ErrRequired}
}

// silent returns a session that does not log record-not-found noise.
func silent(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)})
}

// sortErrors orders field errors by field for a stable report.
func sortErrors(errs pipeline.ValidationErrors) {
	sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
}
