// Package mir defines the compiler's mid-level intermediate
// representation: an SSA-like instruction graph with explicit basic
// blocks and memory operations.
//
// A Context owns the type universe and the hash-consed constants of one
// compilation; a Module owns its functions and globals; a Function owns
// its basic blocks and their instructions. All of it is dropped
// wholesale when the compilation ends.
//
// The Builder appends instructions at an explicit cursor set with
// InsertInto. It enforces two structural invariants the back ends rely
// on: stores never produce results, and calls only target function-typed
// values. It does not check block termination: appending after a
// terminator, or leaving a block without one, is not rejected here.
//
// Fdump renders a module as deterministic, human-readable text for the
// dump-mir compiler flag.
package mir
