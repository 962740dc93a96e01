// Package errors provides structured error types for the ctfkit library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes the byte offset of the malformed data, the expected and
// actual values, a record path and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindTruncatedRecord).
//		Path("type 7", "member 2").
//		Offset(0x1a4).
//		Expected(16).
//		Actual(9).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.BadMagic(0x1234)
//	err := errors.TypeIDOutOfRange(0x8003, 2)
//
// Every Kind has a sentinel so callers can match regardless of phase:
//
//	if errors.Is(err, ctferrors.ErrTruncatedRecord) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
