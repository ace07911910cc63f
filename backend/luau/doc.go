// Package luau lowers MIR into Luau VM bytecode.
//
// Each MIR function becomes one proto: header bytes, a 32-bit
// instruction array and an inline tag-prefixed constant pool referencing
// a string table shared across the image. Proto 0 is a synthetic chunk
// entry that resolves and calls main.
//
// The register allocator is a bump counter: every MIR result value gets
// a fresh register, and an Alloca collapses to "the value lives in
// register R". Operations the VM lacks are shimmed: Xor/Shl/Shr call
// into bit32, and loads/stores through arbitrary pointers call the
// __builtin_memread/__builtin_memwrite imports. Branches are emitted
// with zero offsets and patched once every block's pc is known.
//
// Fdump is the read-only inverse of the emitter, used for diagnostic
// output; it round-trips every opcode format and constant tag.
package luau
