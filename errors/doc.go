// Package errors provides structured error types for the ncbridge library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: element path, host kind and wire type names,
// and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindRange).
//		Path("fields", "temp").
//		HostKind("float64").
//		WireType("short").
//		Detail("value 40000 outside valid range").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Range(errors.PhaseEncode, path, 300, "ubyte")
//	err := errors.UnmatchedLevel(errors.PhaseEncode, path, "green", "color_t")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
