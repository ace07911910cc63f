package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			"return_mismatch",
			ReturnMismatch("bad", "int", "double", 1, 30),
			"Function 'bad': return type mismatch, expected 'int', got 'double'. line 1, column 30",
		},
		{
			"undefined_symbol",
			UndefinedSymbol("main", "nope", 2, 12),
			"Function 'main': use of undefined symbol 'nope'. line 2, column 12",
		},
		{
			"operator_mismatch",
			OperatorMismatch("f", "+", "int", "double", 3, 9),
			"Function 'f': operator '+': type mismatch: 'int' vs 'double'. line 3, column 9",
		},
		{
			"phase_kind",
			Unsupported(PhaseBytecode, "non-string global initializer"),
			"[bytecode] unsupported: non-string global initializer",
		},
		{
			"unexpected_token",
			UnexpectedToken(PhaseParse, "end", 4, 1),
			"[parse] unexpected_token: unexpected token 'end'. line 4, column 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := UndefinedSymbol("main", "nope", 1, 1)
	if !stderrors.Is(err, &Error{Phase: PhaseSema, Kind: KindUndefinedSymbol}) {
		t.Error("expected Is to match on phase and kind")
	}
	if stderrors.Is(err, &Error{Phase: PhaseSema, Kind: KindTypeMismatch}) {
		t.Error("expected Is to reject a different kind")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(PhaseIO, KindWriteFailed, cause, "write output")
	if !stderrors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("cause missing from message: %q", err.Error())
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseSema, KindTypeMismatch).
		Func("f").
		Detail("operator '%s' cannot be applied to non-numeric type '%s'", "+", "char*").
		At(7, 3).
		Build()

	want := "Function 'f': operator '+' cannot be applied to non-numeric type 'char*'. line 7, column 3"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestList(t *testing.T) {
	var l List
	if l.Err() != nil {
		t.Fatal("empty list should yield nil error")
	}

	l.Add(UndefinedSymbol("main", "a", 1, 1))
	l.Add(UndefinedSymbol("main", "b", 2, 1))

	if l.Len() != 2 {
		t.Fatalf("Len = %d, want 2", l.Len())
	}
	msg := l.Err().Error()
	if !strings.HasPrefix(msg, "2 error(s):") {
		t.Errorf("unexpected prefix: %q", msg)
	}
	if !strings.Contains(msg, "'a'") || !strings.Contains(msg, "'b'") {
		t.Errorf("messages missing from %q", msg)
	}
}
