// Package sema implements semantic analysis: a single AST walk that
// resolves every identifier to a symbol, resolves type names through the
// type context, type-checks each expression and collects human-readable
// errors.
//
// Locals are hoisted to the function frame: there is one symbol scope
// per function, not one per lexical block. Module imports (`using
// "m";`) parse `m.itea` from the configured search directories and
// register its `import func` declarations under `m::name`; nothing else
// leaks into the importer's symbol space.
//
// Errors are accumulated, not fatal: one run reports the full list.
package sema
