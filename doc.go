// Package itea is a whole-program ahead-of-time compiler for the itea
// source language.
//
// Compile runs the classical pipeline (lexer, parser, semantic
// analysis, MIR lowering) and hands the finished MIR module to one of
// two back ends: native object code through LLVM, or Luau VM bytecode.
//
// Basic usage:
//
//	obj, err := itea.Compile(`
//		public func main() -> int
//			return 0;
//		end
//	`, itea.Options{})
//
// Semantic errors are collected and returned together as an
// *errors.List; lexical, parse and back-end failures abort the
// compilation at the first fault and come back as a *diag.Abort.
//
// A compilation is single-threaded and owns all of its state; run
// concurrent compilations with independent Compile calls.
package itea
