package sema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/itealang/itea/frontend/ast"
	"github.com/itealang/itea/frontend/lexer"
	"github.com/itealang/itea/frontend/parser"
	"github.com/itealang/itea/types"
)

func analyze(t *testing.T, src string, include ...string) []string {
	t.Helper()
	tctx := types.NewContext()
	tree := parser.New(lexer.Lex(src), tctx).Parse()
	errs := New(tctx, include).Visit(tree)
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}

func TestCleanSource(t *testing.T) {
	errs := analyze(t, `
public func add(int a, int b) -> int
	return a + b;
end
`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestReturnMismatch(t *testing.T) {
	errs := analyze(t, `public func bad() -> int return 3.14; end`)
	if len(errs) != 1 {
		t.Fatalf("got %d errors: %v", len(errs), errs)
	}
	want := "Function 'bad': return type mismatch, expected 'int', got 'double'"
	if !strings.Contains(errs[0], want) {
		t.Errorf("got %q, want substring %q", errs[0], want)
	}
	if !strings.Contains(errs[0], "line 1") {
		t.Errorf("missing position: %q", errs[0])
	}
}

func TestUndefinedSymbol(t *testing.T) {
	errs := analyze(t, `
public func main() -> int
	return nope();
end
`)
	if len(errs) != 1 {
		t.Fatalf("got %d errors: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0], "use of undefined symbol 'nope'") {
		t.Errorf("got %q", errs[0])
	}
	if !strings.Contains(errs[0], "line 3") {
		t.Errorf("wrong position: %q", errs[0])
	}
}

func TestArgumentErrors(t *testing.T) {
	errs := analyze(t, `
import func put(int c) -> int;
public func main() -> int
	put(1, 2);
	put("x");
	return 0;
end
`)
	if len(errs) != 2 {
		t.Fatalf("got %d errors: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0], "argument count mismatch: expected 1, got 2") {
		t.Errorf("got %q", errs[0])
	}
	if !strings.Contains(errs[1], "argument 0: expected type int, got string") {
		t.Errorf("got %q", errs[1])
	}
}

func TestOperatorErrors(t *testing.T) {
	errs := analyze(t, `
public func f(int a, double b) -> int
	return a + b;
end
`)
	if len(errs) != 1 {
		t.Fatalf("got %d errors: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0], "operator '+': type mismatch: 'int' vs 'double'") {
		t.Errorf("got %q", errs[0])
	}
}

func TestStringArithmetic(t *testing.T) {
	errs := analyze(t, `
public func f() -> int
	"a" + "b";
	return 0;
end
`)
	if len(errs) != 1 {
		t.Fatalf("got %d errors: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0], "operator '+' cannot be applied to non-numeric type 'string'") {
		t.Errorf("got %q", errs[0])
	}
}

func TestErrorsAccumulate(t *testing.T) {
	errs := analyze(t, `
public func f() -> int
	a;
	b;
	c;
	return 0;
end
`)
	if len(errs) != 3 {
		t.Fatalf("expected all errors collected, got %d: %v", len(errs), errs)
	}
}

func TestTypeAnnotation(t *testing.T) {
	tctx := types.NewContext()
	tree := parser.New(lexer.Lex(`
public func f(int a) -> int
	return a;
end
`), tctx).Parse()
	if errs := New(tctx, nil).Visit(tree); len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	ret := tree[0].(*ast.Function).Body[0].(*ast.Return)
	if ret.Value.Type() != tctx.Int() {
		t.Errorf("annotation = %v", ret.Value.Type())
	}
}

func writeModule(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestModuleImport(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "m.itea", `import func puts(const char* s) -> int;`)

	errs := analyze(t, `
using "m";
public func main() -> int
	return m::puts("hi");
end
`, dir)
	// puts returns int; the only acceptable outcome is zero errors
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestModuleImportIsolation(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "m.itea", `import func puts(const char* s) -> int;`)

	// The unqualified name must not leak into the importer.
	errs := analyze(t, `
using "m";
public func main() -> int
	return puts("hi");
end
`, dir)
	if len(errs) != 1 || !strings.Contains(errs[0], "undefined symbol 'puts'") {
		t.Fatalf("got %v", errs)
	}
}

func TestModuleImportNotFound(t *testing.T) {
	errs := analyze(t, `
using "ghost";
public func main() -> int return 0; end
`, t.TempDir())
	if len(errs) != 1 || !strings.Contains(errs[0], "failed to import module 'ghost'") {
		t.Fatalf("got %v", errs)
	}
}

func TestModuleImportRejectsDefinitions(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "m.itea", `
public func f() -> int return 0; end
`)
	errs := analyze(t, `using "m";`, dir)
	if len(errs) != 1 || !strings.Contains(errs[0], "invalid root statement") {
		t.Fatalf("got %v", errs)
	}
}

func TestConstAssignment(t *testing.T) {
	errs := analyze(t, `
public func f() -> int
	var x: const int = 1;
	x = 2;
	return x;
end
`)
	if len(errs) != 1 || !strings.Contains(errs[0], "cannot assign to a value of type 'const int'") {
		t.Fatalf("got %v", errs)
	}
}
