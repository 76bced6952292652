package form

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is matched by every unknown task or page lookup
var ErrNotFound = errors.New("not found")

// UnknownTaskError is returned when a journey has no task with the given name
type UnknownTaskError struct {
	Journey string
	Task    string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("journey %s has no task %q", e.Journey, e.Task)
}

// Is makes errors.Is(err, ErrNotFound) hold
func (e *UnknownTaskError) Is(target error) bool {
	return target == ErrNotFound
}

// UnknownPageError is returned when a task has no page with the given name
type UnknownPageError struct {
	Journey string
	Task    string
	Page    string
}

func (e *UnknownPageError) Error() string {
	return fmt.Sprintf("task %s/%s has no page %q", e.Journey, e.Task, e.Page)
}

// Is makes errors.Is(err, ErrNotFound) hold
func (e *UnknownPageError) Is(target error) bool {
	return target == ErrNotFound
}

// FieldError is a validation message attached to a form field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors keeps validation messages in the order the fields appear
type FieldErrors []FieldError

// Add records a message unless the field already has one
func (e *FieldErrors) Add(field, message string) {
	if e.Get(field) != "" {
		return
	}
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Get returns the message for a field, or ""
func (e FieldErrors) Get(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Map returns the messages keyed by field
func (e FieldErrors) Map() map[string]string {
	out := make(map[string]string, len(e))
	for _, fe := range e {
		out[fe.Field] = fe.Message
	}
	return out
}

// ValidationError carries the errors of a rejected submission and the input
// to show back to the user
type ValidationError struct {
	Errors    FieldErrors
	UserInput Answers
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		fields = append(fields, fe.Field)
	}
	return "validation failed: " + strings.Join(fields, ", ")
}
