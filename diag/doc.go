// Package diag delivers fatal compiler diagnostics.
//
// The core treats lexical, parse, lowering and back-end failures as
// unrecoverable: the first such event aborts the compilation. Fatalf
// formats the message and hands it to the process-wide sink, which never
// returns. The default sink panics with *Abort so a driver can recover
// the failure at the compilation boundary (see Recover) without the
// core attempting to limp past the fault.
package diag
