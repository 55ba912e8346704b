// Package errors provides structured, coded errors for the incremental runtime.
//
// Every error carries a code (e.g. "S001") registered with a category, a short
// message, a longer explanation and, where useful, a hint on how to fix the
// offending call. Two errors with the same code match under errors.Is, so
// registered codes double as sentinels:
//
//	var ErrIllegalDisposal = errors.New("S001")
//
//	err := errors.New("S001").WithDetail("state \"count\" disposed inside a computation")
//	stderrors.Is(err, ErrIllegalDisposal) // true
//
// # Formatting
//
// Format renders an error for terminals:
//
//	ERROR S001: State disposed while computing
//
//	  A state cannot be disposed while a computation or a named state
//	  factory is executing.
//
//	  Hint: Dispose states from event handlers or scheduled callbacks.
//
// FormatCompact and FormatJSON give single-line and machine readable forms.
package errors
