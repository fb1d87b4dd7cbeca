// Package errors provides structured error types for the asset cache.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the resource identifier, the Go type involved, a detail
// message and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindNotFound).
//		ID("file://materials/stone.mat").
//		Detail("no provider registered under %q", "file").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.MalformedIdentifier(text, "missing separator")
//	err := errors.Compile(id, cause)
//
// Sentinels (ErrResourceNotFound, ErrMalformedIdentifier, ...) match any phase:
//
//	if errors.Is(err, errors.ErrResourceNotFound) { ... }
//
// None of these errors are fatal. A missing or malformed asset degrades a
// feature; callers get an empty handle and the error is logged.
package errors
