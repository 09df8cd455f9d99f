package tracelink

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Callers match them with errors.Is.
var (
	// ErrConfiguration marks an unrecognised or invalid run setting such as the match type.
	ErrConfiguration = errors.New("configuration error")
	// ErrInputShape marks inputs that do not fit together (unknown IDs, one-sided sets, duplicates).
	ErrInputShape = errors.New("input shape error")
	// ErrDomain marks a numeric computation asked to work outside its domain.
	ErrDomain = errors.New("domain error")
)

// ConfigurationError reports a setting that cannot be used for a run.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration: %s", e.Reason)
	}
	return fmt.Sprintf("configuration: %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// InputShapeError reports the requirement identifiers that made the inputs inconsistent.
type InputShapeError struct {
	Reason string
	IDs    []string
}

func (e *InputShapeError) Error() string {
	if len(e.IDs) == 0 {
		return fmt.Sprintf("input shape: %s", e.Reason)
	}
	return fmt.Sprintf("input shape: %s: %s", e.Reason, strings.Join(e.IDs, ", "))
}

func (e *InputShapeError) Is(target error) bool { return target == ErrInputShape }

// DomainError reports a term whose inverse document frequency is undefined.
type DomainError struct {
	Term   string
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("domain: term %q: %s", e.Term, e.Reason)
}

func (e *DomainError) Is(target error) bool { return target == ErrDomain }

func shapeErrorf(ids []string, format string, args ...any) error {
	return &InputShapeError{Reason: fmt.Sprintf(format, args...), IDs: ids}
}
