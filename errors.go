package tabulate

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
var (
	ErrUnsupportedFormat        = errors.New("unsupported format")
	ErrUnknownColumn            = errors.New("unknown column")
	ErrDuplicateColumn          = errors.New("duplicate column")
	ErrMissingField             = errors.New("missing field")
	ErrRenderBackendUnavailable = errors.New("render backend unavailable")
	ErrInvalidDefinition        = errors.New("invalid report definition")
)

// MissingFieldError reports a column whose field accessor referenced a field
// the record does not carry. It aborts the render.
type MissingFieldError struct {
	Column string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: column %q reads field %q", ErrMissingField, e.Column, e.Field)
}

// Unwrap lets errors.Is match [ErrMissingField].
func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// RenderBackendUnavailableError wraps failures of the collaborators a render
// depends on outside the core: the artifact cache and the PDF backend.
type RenderBackendUnavailableError struct {
	Backend string
	Err     error
}

func (e *RenderBackendUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrRenderBackendUnavailable, e.Backend)
	}
	return fmt.Sprintf("%s: %s: %v", ErrRenderBackendUnavailable, e.Backend, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *RenderBackendUnavailableError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRenderBackendUnavailable}
	}
	return []error{ErrRenderBackendUnavailable, e.Err}
}
