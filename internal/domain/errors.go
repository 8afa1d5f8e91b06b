package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by stores when a caption id is unknown.
var ErrNotFound = errors.New("caption not found")

// FieldError is a single violated request constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every constraint a request violated.
type ValidationError struct {
	Errors []FieldError
}

// Add records a violation.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any violation was recorded.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Errors) > 0
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}

// ProviderError is a failed model call: an error, a timeout or an unparseable payload.
// Transport is set when the provider could not be reached at all.
type ProviderError struct {
	Provider  string
	Tone      string
	Transport bool
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider failed for tone %q: %v", e.Provider, e.Tone, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// StorageError wraps a persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
