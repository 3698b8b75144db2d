// Package errors provides structured error types for the bridge.
//
// Errors are categorized by Phase (which component raised the error) and Kind
// (error category). The Error type carries the subject identity and event kind
// involved, when there is one, plus a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEvents, errors.KindCapacity).
//		Event("object-unmapped").
//		Detail("subscriber list full (%d)", 32).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Capacity("object-unmapped", 32)
//	err := errors.StaleAccess(errors.PhaseBridge, id.String(), "title")
//
// All errors implement the standard error interface and support errors.Is/As.
// The package-level sentinels (ErrCapacity, ErrStaleAccess, ...) match any
// error of the same Kind regardless of Phase.
package errors
