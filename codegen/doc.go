// Package codegen lowers the type-annotated AST into a MIR module.
//
// Locals follow the entry-block allocation pattern: every variable
// declared anywhere in a function body gets an Alloca raised into the
// entry block, and identifier reads go through per-block cached loads of
// those slots. Control flow is synthesized from structured statements:
// if/elseif/else arms branch to a common merge block, loops get
// loop.pred / loop.body / loop.merge triples, and break/continue resolve
// against the innermost enclosing loop's targets.
//
// A for loop's step clause gets its own loop.step block: the body's
// fallthrough and every continue inside it branch there, and the step
// block branches back to loop.pred.
package codegen
