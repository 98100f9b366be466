package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrValidation       = errors.New("validation failed")
	ErrExcluded         = errors.New("excluded by business rule")
	ErrUnknownFaculty   = errors.New("unknown faculty")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrRunInProgress    = errors.New("reconciliation run already in progress")
	ErrImmutable        = errors.New("record is not editable")
)

// ValidationError listet die Pflichtfelder, die nach der Normalisierung fehlen.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ExclusionError beschreibt, welche Ausschlussregel gegriffen hat.
type ExclusionError struct {
	Rule   string
	Detail string
}

func (e *ExclusionError) Error() string {
	if e.Detail == "" {
		return "excluded: " + e.Rule
	}
	return fmt.Sprintf("excluded: %s (%s)", e.Rule, e.Detail)
}

func (e *ExclusionError) Is(target error) bool { return target == ErrExcluded }
