// Package native lowers MIR to machine code through LLVM.
//
// Emit initializes every registered target, selects the module's triple
// (or the host default), maps the module's layout descriptor to a data
// layout string, and builds the IR function by function. Blocks are
// created up front so branch targets never need forward references.
// Emit then verifies
// the module and emits an object file into memory.
//
// All failures are delivered through the fatal diagnostic sink; the
// LLVM handles are released on the way out.
package native
