package parser

import (
	"testing"

	"github.com/itealang/itea/diag"
	"github.com/itealang/itea/frontend/ast"
	"github.com/itealang/itea/frontend/lexer"
	"github.com/itealang/itea/frontend/token"
	"github.com/itealang/itea/types"
)

func parse(t *testing.T, src string) []ast.Node {
	t.Helper()
	return New(lexer.Lex(src), types.NewContext()).Parse()
}

func TestParseFunction(t *testing.T) {
	root := parse(t, `
public func add(int a, int b) -> int
	return a + b;
end
`)
	if len(root) != 1 {
		t.Fatalf("got %d root nodes", len(root))
	}
	fn, ok := root[0].(*ast.Function)
	if !ok {
		t.Fatalf("got %T", root[0])
	}
	if fn.Name != "add" || fn.Vis != ast.Public || fn.Vararg {
		t.Errorf("fn = %+v", fn)
	}
	if len(fn.Params) != 2 || fn.Params[0].Name != "a" || fn.Params[1].Name != "b" {
		t.Errorf("params = %+v", fn.Params)
	}
	if fn.ReturnType.Kind != types.Int {
		t.Errorf("return type = %s", fn.ReturnType)
	}
	if len(fn.Body) != 1 {
		t.Fatalf("body has %d statements", len(fn.Body))
	}
	ret, ok := fn.Body[0].(*ast.Return)
	if !ok {
		t.Fatalf("statement is %T", fn.Body[0])
	}
	bin, ok := ret.Value.(*ast.Binary)
	if !ok || bin.Op != token.Add {
		t.Fatalf("return value is %T", ret.Value)
	}
}

func TestParsePrecedence(t *testing.T) {
	root := parse(t, `
public func f() -> int
	return 1 + 2 * 3;
end
`)
	ret := root[0].(*ast.Function).Body[0].(*ast.Return)
	add, ok := ret.Value.(*ast.Binary)
	if !ok || add.Op != token.Add {
		t.Fatalf("top is %T", ret.Value)
	}
	mul, ok := add.RHS.(*ast.Binary)
	if !ok || mul.Op != token.Star {
		t.Fatalf("rhs is %T, want multiplication", add.RHS)
	}
}

func TestParseImportAndUsing(t *testing.T) {
	root := parse(t, `
using "io";
import func puts(const char* s) -> int;
`)
	if len(root) != 2 {
		t.Fatalf("got %d root nodes", len(root))
	}
	mi, ok := root[0].(*ast.ModuleImport)
	if !ok || mi.Path != "io" {
		t.Fatalf("got %T %+v", root[0], root[0])
	}
	fi, ok := root[1].(*ast.FunctionImport)
	if !ok || fi.Name != "puts" {
		t.Fatalf("got %T", root[1])
	}
	if len(fi.Params) != 1 || fi.Params[0].Type.Kind != types.Pointer {
		t.Errorf("params = %+v", fi.Params)
	}
}

func TestParseVararg(t *testing.T) {
	root := parse(t, `import func printf(const char* fmt, ...) -> int;`)
	fi := root[0].(*ast.FunctionImport)
	if !fi.Vararg {
		t.Error("vararg flag not set")
	}
	if len(fi.Params) != 1 {
		t.Errorf("params = %+v", fi.Params)
	}
}

func TestParseCallConv(t *testing.T) {
	root := parse(t, `import __cdecl func f() -> void;`)
	if cc := root[0].(*ast.FunctionImport).CC; cc != ast.CallC {
		t.Errorf("cc = %v", cc)
	}
	root = parse(t, `import __stdcall func g() -> void;`)
	if cc := root[0].(*ast.FunctionImport).CC; cc != ast.CallStd {
		t.Errorf("cc = %v", cc)
	}
}

func TestParseControlFlow(t *testing.T) {
	root := parse(t, `
public func f(int n) -> int
	var i: int = 0;
	while i < n do
		i = i + 1;
		if (i == 3) do
			break;
		elseif (i == 2) do
			continue;
		else
			i += 1;
		end
	end
	return i;
end
`)
	fn := root[0].(*ast.Function)
	if len(fn.Body) != 3 {
		t.Fatalf("body has %d statements", len(fn.Body))
	}
	v := fn.Body[0].(*ast.Variable)
	if v.Name != "i" || v.Type.Kind != types.Int || v.Init == nil {
		t.Errorf("var = %+v", v)
	}
	loop := fn.Body[1].(*ast.While)
	ifNode, ok := loop.Body[1].(*ast.If)
	if !ok {
		t.Fatalf("second loop statement is %T", loop.Body[1])
	}
	if ifNode.ElseIf == nil || ifNode.Otherwise == nil {
		t.Error("elseif/else arms missing")
	}
	if _, ok := ifNode.Body[0].(*ast.Break); !ok {
		t.Errorf("then arm is %T", ifNode.Body[0])
	}
	if _, ok := ifNode.ElseIf.Body[0].(*ast.Continue); !ok {
		t.Errorf("elseif arm is %T", ifNode.ElseIf.Body[0])
	}
	asg, ok := ifNode.Otherwise.Body[0].(*ast.Assign)
	if !ok || asg.Op != token.Add {
		t.Errorf("else arm is %T with op %v", ifNode.Otherwise.Body[0], asg.Op)
	}
}

func TestParseFor(t *testing.T) {
	root := parse(t, `
public func f() -> int
	for (var i: int = 0; i < 10; i += 1) do
		i;
	end
	return 0;
end
`)
	loop := root[0].(*ast.Function).Body[0].(*ast.For)
	if loop.Var == nil || loop.Var.Name != "i" {
		t.Fatalf("loop var = %+v", loop.Var)
	}
	if loop.Pred == nil || loop.Step == nil {
		t.Error("pred/step missing")
	}
	if _, ok := loop.Step.(*ast.Assign); !ok {
		t.Errorf("step is %T", loop.Step)
	}
}

func TestParseScopedCall(t *testing.T) {
	root := parse(t, `
public func main() -> int
	io::puts("hi");
	return 0;
end
`)
	stat := root[0].(*ast.Function).Body[0].(*ast.ExprStat)
	call := stat.X.(*ast.Call)
	lit := call.Callee.(*ast.Literal)
	if lit.Kind != ast.LitIdent || lit.Value != "io::puts" {
		t.Errorf("callee = %+v", lit)
	}
	if len(call.Args) != 1 {
		t.Errorf("args = %d", len(call.Args))
	}
}

func TestParseUnaryAndIndex(t *testing.T) {
	root := parse(t, `
public func f(int* p, int[4] a) -> int
	return *p + a[1];
end
`)
	ret := root[0].(*ast.Function).Body[0].(*ast.Return)
	add := ret.Value.(*ast.Binary)
	if u, ok := add.LHS.(*ast.Unary); !ok || u.Op != token.Star {
		t.Errorf("lhs = %T", add.LHS)
	}
	if _, ok := add.RHS.(*ast.Index); !ok {
		t.Errorf("rhs = %T", add.RHS)
	}
}

func TestParseGlobalVariable(t *testing.T) {
	root := parse(t, `public var counter: int = 0;`)
	gv := root[0].(*ast.GlobalVariable)
	if gv.Name != "counter" || gv.Type.Kind != types.Int || gv.Init == nil {
		t.Errorf("global = %+v", gv)
	}
}

func TestParseAttributes(t *testing.T) {
	root := parse(t, `
@inline
@noreturn
public func die() -> void
	return;
end
`)
	fn := root[0].(*ast.Function)
	if fn.Attrs&ast.AttrInline == 0 || fn.Attrs&ast.AttrNoReturn == 0 {
		t.Errorf("attrs = %b", fn.Attrs)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"root_expression", `1 + 2;`},
		{"unclosed_function", `public func f() -> int return 0;`},
		{"bad_type", `public func f() -> quux return 0; end`},
		{"missing_arrow", `public func f() int return 0; end`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := func() (err error) {
				defer diag.Recover(&err)
				parse(t, tt.src)
				return nil
			}()
			if err == nil {
				t.Fatal("expected a fatal parse error")
			}
		})
	}
}
