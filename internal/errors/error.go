package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryState  Category = "state"
	CategoryConfig Category = "config"
	CategoryExport Category = "export"
	CategoryCLI    Category = "cli"
)

// Error is a structured error with a registered code, a hint and documentation.
type Error struct {
	// Code is a unique error identifier (e.g., "S001").
	Code string

	// Category is the error type (state, config, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Reason names the offending call or state for this occurrence.
	Reason string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example is code showing the correct approach.
	Example string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Code == "" {
		return false
	}
	return e.Code == t.Code
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithExample adds a code example to the error.
func (e *Error) WithExample(ex string) *Error {
	e.Example = ex
	return e
}

// WithDetail replaces the detailed explanation of the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// WithReason records what triggered this occurrence of the error.
func (e *Error) WithReason(format string, args ...any) *Error {
	e.Reason = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
		DocURL:     template.DocURL,
	}
}

// Newf creates a new Error with a formatted message (no code).
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an Error.
// Errors that already are *Error (anywhere in the chain) are returned as is.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return New(code).Wrap(err)
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}
