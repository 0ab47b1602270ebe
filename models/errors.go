package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidationFailed       = errors.New("validation failed")
	ErrNotFound               = errors.New("not found")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrEmptyCart              = errors.New("cart is empty")
	ErrCatalogUnavailable     = errors.New("catalog unavailable")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)

// ValidationError collects per-field messages for bad input.
// errors.Is(err, ErrValidationFailed) holds for any *ValidationError.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

// Add records a message for field, keeping the first one reported.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// OrNil returns nil when no field was reported, so callers can
// `return verr.OrNil()` without producing a typed-nil error.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s: %s", name, e.Fields[name])
	}
	return fmt.Sprintf("%s (%s)", ErrValidationFailed, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
