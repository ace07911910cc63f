package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the compilation the error occurred
type Phase string

const (
	PhaseLex      Phase = "lex"      // tokenization
	PhaseParse    Phase = "parse"    // AST construction
	PhaseSema     Phase = "sema"     // semantic analysis
	PhaseCodegen  Phase = "codegen"  // AST to MIR lowering
	PhaseNative   Phase = "native"   // MIR to object code
	PhaseBytecode Phase = "bytecode" // MIR to VM bytecode
	PhaseIO       Phase = "io"       // source/import/output files
)

// Kind categorizes the error
type Kind string

const (
	KindUnexpectedToken  Kind = "unexpected_token"
	KindUnexpectedEOF    Kind = "unexpected_eof"
	KindMalformedLiteral Kind = "malformed_literal"
	KindUndefinedSymbol  Kind = "undefined_symbol"
	KindUndefinedType    Kind = "undefined_type"
	KindTypeMismatch     Kind = "type_mismatch"
	KindArgumentCount    Kind = "argument_count"
	KindNotCallable      Kind = "not_callable"
	KindNotAssignable    Kind = "not_assignable"
	KindInvalidRoot      Kind = "invalid_root"
	KindUnsupported      Kind = "unsupported"
	KindVerification     Kind = "verification"
	KindTargetMachine    Kind = "target_machine"
	KindEmission         Kind = "emission"
	KindImportNotFound   Kind = "import_not_found"
	KindWriteFailed      Kind = "write_failed"
)

// Error is the structured error type used throughout the compiler
type Error struct {
	Cause    error
	Phase    Phase
	Kind     Kind
	Function string
	Detail   string
	Line     int
	Column   int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Function != "" {
		b.WriteString("Function '")
		b.WriteString(e.Function)
		b.WriteString("': ")
	} else {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
		b.WriteString(string(e.Kind))
		if e.Detail != "" {
			b.WriteString(": ")
		}
	}

	b.WriteString(e.Detail)

	if e.Line > 0 {
		fmt.Fprintf(&b, ". line %d, column %d", e.Line, e.Column)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Func sets the enclosing function name; when present the error renders
// in the `Function '<name>': …` diagnostic format.
func (b *Builder) Func(name string) *Builder {
	b.err.Function = name
	return b
}

// At sets the source position
func (b *Builder) At(line, column int) *Builder {
	b.err.Line = line
	b.err.Column = column
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnexpectedToken creates an error for a token that does not fit the grammar
func UnexpectedToken(phase Phase, text string, line, column int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnexpectedToken,
		Detail: fmt.Sprintf("unexpected token '%s'", text),
		Line:   line,
		Column: column,
	}
}

// UndefinedSymbol creates an undefined symbol error inside fn
func UndefinedSymbol(fn, name string, line, column int) *Error {
	return &Error{
		Phase:    PhaseSema,
		Kind:     KindUndefinedSymbol,
		Function: fn,
		Detail:   fmt.Sprintf("use of undefined symbol '%s'", name),
		Line:     line,
		Column:   column,
	}
}

// UndefinedType creates an undefined type error
func UndefinedType(phase Phase, name string, line, column int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUndefinedType,
		Detail: fmt.Sprintf("undefined type '%s'", name),
		Line:   line,
		Column: column,
	}
}

// ReturnMismatch creates a return-type mismatch error
func ReturnMismatch(fn, want, got string, line, column int) *Error {
	return &Error{
		Phase:    PhaseSema,
		Kind:     KindTypeMismatch,
		Function: fn,
		Detail:   fmt.Sprintf("return type mismatch, expected '%s', got '%s'", want, got),
		Line:     line,
		Column:   column,
	}
}

// ArgMismatch creates an argument type mismatch error for argument i
func ArgMismatch(fn string, i int, want, got string, line, column int) *Error {
	return &Error{
		Phase:    PhaseSema,
		Kind:     KindTypeMismatch,
		Function: fn,
		Detail:   fmt.Sprintf("argument %d: expected type %s, got %s", i, want, got),
		Line:     line,
		Column:   column,
	}
}

// ArgCount creates an argument count mismatch error
func ArgCount(fn string, want, got int, line, column int) *Error {
	return &Error{
		Phase:    PhaseSema,
		Kind:     KindArgumentCount,
		Function: fn,
		Detail:   fmt.Sprintf("argument count mismatch: expected %d, got %d", want, got),
		Line:     line,
		Column:   column,
	}
}

// OperatorMismatch creates a binary operator type mismatch error
func OperatorMismatch(fn, op, lhs, rhs string, line, column int) *Error {
	return &Error{
		Phase:    PhaseSema,
		Kind:     KindTypeMismatch,
		Function: fn,
		Detail:   fmt.Sprintf("operator '%s': type mismatch: '%s' vs '%s'", op, lhs, rhs),
		Line:     line,
		Column:   column,
	}
}

// OperatorNotApplicable creates an error for an operator applied to an unsuitable type
func OperatorNotApplicable(fn, op, ty string, line, column int) *Error {
	return &Error{
		Phase:    PhaseSema,
		Kind:     KindTypeMismatch,
		Function: fn,
		Detail:   fmt.Sprintf("operator '%s' cannot be applied to type '%s'", op, ty),
		Line:     line,
		Column:   column,
	}
}

// NotCallable creates an error for calling a non-function value
func NotCallable(fn, ty string, line, column int) *Error {
	return &Error{
		Phase:    PhaseSema,
		Kind:     KindNotCallable,
		Function: fn,
		Detail:   fmt.Sprintf("cannot call a value of type '%s'", ty),
		Line:     line,
		Column:   column,
	}
}

// InvalidRoot creates an error for a statement that may not appear at module root
func InvalidRoot(line, column int) *Error {
	return &Error{
		Phase:  PhaseSema,
		Kind:   KindInvalidRoot,
		Detail: "invalid root statement",
		Line:   line,
		Column: column,
	}
}

// ImportNotFound creates an error for an import that resolved against no search path
func ImportNotFound(path string, line, column int) *Error {
	return &Error{
		Phase:  PhaseIO,
		Kind:   KindImportNotFound,
		Detail: fmt.Sprintf("failed to import module '%s': failed to open file", path),
		Line:   line,
		Column: column,
	}
}

// Unsupported creates an unsupported construct error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with phase and kind context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// List accumulates semantic errors so a single run reports all of them.
type List struct {
	errs []*Error
}

// Add appends an error to the list
func (l *List) Add(err *Error) {
	l.errs = append(l.errs, err)
}

// Len returns the number of collected errors
func (l *List) Len() int { return len(l.errs) }

// All returns the collected errors in insertion order
func (l *List) All() []*Error { return l.errs }

// Err returns nil when the list is empty, the list itself otherwise
func (l *List) Err() error {
	if len(l.errs) == 0 {
		return nil
	}
	return l
}

// Error implements the error interface by joining all collected messages
func (l *List) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d error(s):", len(l.errs))
	for _, e := range l.errs {
		b.WriteString("\n  ")
		b.WriteString(e.Error())
	}
	return b.String()
}
