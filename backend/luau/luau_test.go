package luau

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/itealang/itea/codegen"
	"github.com/itealang/itea/frontend/lexer"
	"github.com/itealang/itea/frontend/parser"
	"github.com/itealang/itea/frontend/sema"
	"github.com/itealang/itea/mir"
)

func compile(t *testing.T, src string, include ...string) []byte {
	t.Helper()
	ctx := mir.NewContext()
	tree := parser.New(lexer.Lex(src), ctx.Types).Parse()
	if errs := sema.New(ctx.Types, include).Visit(tree); len(errs) != 0 {
		t.Fatalf("sema errors: %v", errs)
	}
	m := codegen.New(ctx).Emit(tree, codegen.Options{IncludeDirs: include})
	return Lower(m)
}

func TestImageHeader(t *testing.T) {
	img := compile(t, `
public func main() -> int
	return 0;
end
`)
	if len(img) < 2 {
		t.Fatal("image too short")
	}
	if img[0] != BytecodeVersion || img[1] != TypeVersion {
		t.Errorf("version bytes = %d.%d", img[0], img[1])
	}
}

func TestDumpRoundTrip(t *testing.T) {
	img := compile(t, `
public func add(int a, int b) -> int
	return a + b;
end
public func main() -> int
	var i: int = 0;
	while i < 10 do
		i = add(i, 1);
	end
	return i;
end
`)

	var buf bytes.Buffer
	stats, err := Fdump(&buf, img)
	if err != nil {
		t.Fatalf("dump failed: %v\n%s", err, buf.String())
	}

	// entry proto + two functions
	if stats.Protos != 3 {
		t.Errorf("protos = %d, want 3", stats.Protos)
	}
	if stats.Instructions == 0 || stats.Constants == 0 {
		t.Errorf("stats = %+v", stats)
	}

	out := buf.String()
	for _, want := range []string{"GETGLOBAL", "CALL", "RETURN", "LOADN", "JUMPIF"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %s:\n%s", want, out)
		}
	}
}

func TestEntryProtoCallsMain(t *testing.T) {
	img := compile(t, `
public func main() -> int
	return 0;
end
`)
	var buf bytes.Buffer
	if _, err := Fdump(&buf, img); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `[0] = "main"`) {
		t.Errorf("string table missing main:\n%s", out)
	}
	if !strings.Contains(out, "GETGLOBAL") {
		t.Errorf("entry proto missing GETGLOBAL:\n%s", out)
	}
}

func TestStringInterning(t *testing.T) {
	dir := t.TempDir()
	writeImport(t, dir)

	img := compile(t, `
using "m";
public func main() -> int
	return m::puts("hi");
end
`, dir)

	var buf bytes.Buffer
	if _, err := Fdump(&buf, img); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"hi"`) {
		t.Errorf("interned string missing:\n%s", out)
	}
	if !strings.Contains(out, "LOADK") {
		t.Errorf("no LOADK for the string:\n%s", out)
	}
	if !strings.Contains(out, "CALL") {
		t.Errorf("no CALL:\n%s", out)
	}
}

func TestJumpPatching(t *testing.T) {
	img := compile(t, `
public func main() -> int
	var i: int = 0;
	while i < 3 do
		i += 1;
	end
	return i;
end
`)
	var buf bytes.Buffer
	if _, err := Fdump(&buf, img); err != nil {
		t.Fatal(err)
	}
	// The loop's back edge must have been patched to a negative offset.
	backEdge := false
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "] JUMP 0 -") {
			backEdge = true
		}
	}
	if !backEdge {
		t.Errorf("no patched back edge:\n%s", buf.String())
	}
}

func TestBit32Shim(t *testing.T) {
	img := compile(t, `
public func f(int a, int b) -> int
	return a ^ b;
end
`)
	var buf bytes.Buffer
	if _, err := Fdump(&buf, img); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "GETIMPORT") {
		t.Errorf("xor must go through GETIMPORT:\n%s", out)
	}
	if !strings.Contains(out, `"bxor"`) || !strings.Contains(out, `"bit32"`) {
		t.Errorf("bit32.bxor strings missing:\n%s", out)
	}
}

func TestVarintRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 300, 16384, 1 << 20, 0xFFFFFFFF}
	for _, v := range values {
		buf := appendVarint(nil, v)
		r := &reader{data: buf}
		got, err := r.varint()
		if err != nil {
			t.Fatalf("varint(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("varint(%d) round-tripped to %d", v, got)
		}
		if r.off != len(buf) {
			t.Errorf("varint(%d) left %d bytes", v, len(buf)-r.off)
		}
	}
}

func TestMoveElision(t *testing.T) {
	var p Proto
	p.EmitABC(OpMove, 3, 3, 0)
	if len(p.Code) != 0 {
		t.Error("self-move was emitted")
	}
	p.EmitABC(OpMove, 3, 4, 0)
	if len(p.Code) != 1 {
		t.Error("real move was elided")
	}
}

func TestInstructionEncoding(t *testing.T) {
	var p Proto
	p.EmitABC(OpAdd, 1, 2, 3)
	w := p.Code[0]
	if insnOp(w) != OpAdd || insnA(w) != 1 || insnB(w) != 2 || insnC(w) != 3 {
		t.Errorf("ABC decode mismatch: %08x", w)
	}

	p.EmitAD(OpJump, 0, -5)
	w = p.Code[1]
	if insnOp(w) != OpJump || insnD(w) != -5 {
		t.Errorf("AD decode mismatch: %08x", w)
	}

	p.EmitE(OpJumpX, -1000)
	w = p.Code[2]
	if insnOp(w) != OpJumpX || insnE(w) != -1000 {
		t.Errorf("E decode mismatch: %08x", w)
	}
}

func TestPatchD(t *testing.T) {
	var p Proto
	pc := p.EmitAD(OpJump, 0, 0)
	p.PatchD(pc, 7)
	if insnD(p.Code[pc]) != 7 {
		t.Errorf("patched D = %d", insnD(p.Code[pc]))
	}
	if insnOp(p.Code[pc]) != OpJump {
		t.Error("patch clobbered the opcode")
	}
}

func writeImport(t *testing.T, dir string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "m.itea"), []byte(`import func puts(const char* s) -> int;`), 0o644); err != nil {
		t.Fatal(err)
	}
}
