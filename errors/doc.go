// Package errors provides the structured error type used throughout the
// compiler.
//
// Every error carries a Phase (which stage produced it) and a Kind (what
// went wrong), plus optional source coordinates and the enclosing
// function name. Semantic errors render in the diagnostic format the
// driver prints:
//
//	Function 'bad': return type mismatch, expected 'int', got 'double'. line 1, column 30
//
// Errors from other phases render as [phase] kind: detail.
//
// The List type accumulates semantic errors so one run reports all of
// them; every other phase stops at the first fatal error.
package errors
