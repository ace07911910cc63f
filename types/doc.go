// Package types implements the compiler's hash-consed type universe.
//
// A Context owns every Type of one compilation. Factory methods
// (Primitive, Pointer, Array, Function, StructOf) are memoized on a
// 64-bit FNV-1a structural hash with full structural comparison on
// collision, so two structurally equal types are always the same object
// and the rest of the compiler compares types with ==.
//
// Parse resolves the textual type syntax of the source language:
//
//	unsigned int**[4]
//	const char*
//	func(int)(char*, ...)
//
// Types are immutable once interned; a Context is not safe for
// concurrent use and is dropped wholesale at the end of a compilation.
package types
