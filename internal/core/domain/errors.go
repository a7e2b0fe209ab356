package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrEmptyName            = errors.New("subject name is required")
	ErrResolutionIncomplete = errors.New("resolution incomplete")
	ErrActionParse          = errors.New("action parse error")
	ErrUnknownTool          = errors.New("unknown tool")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrDataSource           = errors.New("data source error")
	ErrSchemaValidation     = errors.New("schema validation error")
	ErrTraceNotFound        = errors.New("trace not found")
)

// ResolutionIncompleteError is returned when the resolver runs out of steps.
type ResolutionIncompleteError struct {
	MaxSteps int
	Steps    []ActionStep
}

func (e *ResolutionIncompleteError) Error() string {
	return fmt.Sprintf("resolution incomplete: no final answer after %d steps", e.MaxSteps)
}

func (e *ResolutionIncompleteError) Unwrap() error { return ErrResolutionIncomplete }

// ActionParseError is returned when a model response matches neither ReAct grammar.
type ActionParseError struct {
	Raw string
}

func (e *ActionParseError) Error() string {
	return fmt.Sprintf("action parse error: response matches neither action nor final answer: %q", truncateForError(e.Raw))
}

func (e *ActionParseError) Unwrap() error { return ErrActionParse }

// UnknownToolError is returned when the model names a tool that is not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %q", e.Name)
}

func (e *UnknownToolError) Unwrap() error { return ErrUnknownTool }

// DataSourceError wraps failures of the profile data source.
type DataSourceError struct {
	Op  string
	Err error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source: %s: %v", e.Op, e.Err)
}

func (e *DataSourceError) Unwrap() []error { return []error{ErrDataSource, e.Err} }

// Timeout reports whether the underlying failure was a deadline.
func (e *DataSourceError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// SchemaValidationError carries the raw model response for diagnostics.
type SchemaValidationError struct {
	Raw    string
	Reason string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("schema validation error: %s", e.Reason)
}

func (e *SchemaValidationError) Unwrap() error { return ErrSchemaValidation }

// ErrorKind maps an error to its taxonomy name. Unknown errors map to "internal".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyName):
		return "InvalidRequest"
	case errors.Is(err, ErrResolutionIncomplete):
		return "ResolutionIncomplete"
	case errors.Is(err, ErrActionParse):
		return "ActionParseError"
	case errors.Is(err, ErrUnknownTool):
		return "UnknownToolError"
	case errors.Is(err, ErrProfileNotFound):
		return "ProfileNotFound"
	case errors.Is(err, ErrDataSource):
		return "DataSourceError"
	case errors.Is(err, ErrSchemaValidation):
		return "SchemaValidationError"
	case errors.Is(err, context.DeadlineExceeded):
		return "Timeout"
	}
	return "internal"
}

func truncateForError(s string) string {
	if len(s) <= 200 {
		return s
	}
	return s[:200] + "..."
}
