package itea

import (
	"bytes"
	"strings"
	"testing"

	"github.com/itealang/itea/errors"
)

func TestCompileVM(t *testing.T) {
	out, err := Compile(`
public func main() -> int
	return 0;
end
`, Options{Backend: BackendVM})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) == 0 {
		t.Fatal("empty bytecode image")
	}
}

func TestCompileSemanticErrors(t *testing.T) {
	_, err := Compile(`
public func main() -> int
	return nope();
end
`, Options{Backend: BackendVM})
	if err == nil {
		t.Fatal("expected an error")
	}
	list, ok := err.(*errors.List)
	if !ok {
		t.Fatalf("got %T", err)
	}
	if list.Len() != 1 {
		t.Fatalf("got %d errors", list.Len())
	}
	if !strings.Contains(err.Error(), "use of undefined symbol 'nope'") {
		t.Errorf("got %q", err.Error())
	}
}

func TestCompileParseErrorIsFatal(t *testing.T) {
	_, err := Compile(`public func`, Options{Backend: BackendVM})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "unexpected") {
		t.Errorf("got %q", err.Error())
	}
}

func TestCompileDumps(t *testing.T) {
	var buf bytes.Buffer
	_, err := Compile(`
public func main() -> int
	return 0;
end
`, Options{Backend: BackendVM, DumpMIR: true, DumpFinalIR: true, DumpWriter: &buf})
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "public func main()") {
		t.Errorf("MIR dump missing:\n%s", out)
	}
	if !strings.Contains(out, "bytecode version") {
		t.Errorf("bytecode dump missing:\n%s", out)
	}
}

func TestDataLayoutHeuristic(t *testing.T) {
	if dl := dataLayoutFor(""); dl.MaxNativeBytes != 8 || dl.BigEndian {
		t.Errorf("default layout = %+v", dl)
	}
	if dl := dataLayoutFor("i686-pc-linux-gnu"); dl.MaxNativeBytes != 4 {
		t.Errorf("i686 layout = %+v", dl)
	}
	if dl := dataLayoutFor("x86_64-pc-linux-gnu"); dl.MaxNativeBytes != 8 {
		t.Errorf("x86_64 layout = %+v", dl)
	}
}
