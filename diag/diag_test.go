package diag

import (
	"strings"
	"testing"
)

func TestFatalfPanicsWithAbort(t *testing.T) {
	defer func() {
		r := recover()
		a, ok := r.(*Abort)
		if !ok {
			t.Fatalf("expected *Abort, got %T", r)
		}
		if a.Msg != "unterminated string. line 3, column 7" {
			t.Errorf("unexpected message %q", a.Msg)
		}
	}()
	Fatalf("unterminated string. line %d, column %d", 3, 7)
	t.Fatal("Fatalf returned")
}

func TestRecover(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err)
		Fatalf("cannot lower unknown opcode: %d", 99)
		return nil
	}
	err := run()
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "unknown opcode") {
		t.Errorf("unexpected error %q", err)
	}
}
