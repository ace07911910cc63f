package mir

import (
	"fmt"
	"io"
	"strings"

	"github.com/itealang/itea/types"
)

// Fdump writes a readable listing of the module to w. The listing is
// deterministic: compiling the same source twice produces identical
// output.
func Fdump(w io.Writer, m *Module) {
	for _, e := range m.Entries {
		switch v := e.(type) {
		case *Function:
			FdumpFunction(w, v)
			fmt.Fprintln(w)

		case *Global:
			vis := "public"
			if v.Storage == Private {
				vis = "private"
			}
			fmt.Fprintf(w, "%s var @%q: %s", vis, v.Name, v.Stored)
			if v.Init != nil {
				io.WriteString(w, " = ")
				dumpValue(w, v.Init)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}
}

// FdumpFunction writes one function's blocks and instructions.
func FdumpFunction(w io.Writer, f *Function) {
	vis := "public"
	if f.Storage == Private {
		vis = "private"
	}
	fmt.Fprintf(w, "%s func %s(", vis, f.Name)
	for i, p := range f.Params {
		if i > 0 {
			io.WriteString(w, ", ")
		}
		dumpValue(w, p)
	}
	fmt.Fprintf(w, ") -> %s\n", f.Type.Return)

	for _, bb := range f.Blocks {
		fmt.Fprintf(w, "%s:\n", bb.Name)
		for _, insn := range bb.Insns {
			io.WriteString(w, "    ")
			dumpInstruction(w, insn)
			fmt.Fprintln(w)
		}
	}

	io.WriteString(w, "end")
}

func dumpInstruction(w io.Writer, insn *Instruction) {
	switch insn.Op {
	case Alloca:
		fmt.Fprintf(w, "%%%q = alloca %s", insn.Result.Name, insn.Result.Type.Elem)

	case Cast:
		fmt.Fprintf(w, "%%%q = cast ", insn.Result.Name)
		dumpValue(w, insn.Value(0))
		fmt.Fprintf(w, ", %s", insn.Result.Type)

	case Ret:
		if len(insn.Operands) == 0 {
			io.WriteString(w, "ret void")
			return
		}
		io.WriteString(w, "ret ")
		dumpValue(w, insn.Value(0))

	case GetElementPtr:
		fmt.Fprintf(w, "%%%q = gep %s @%q", insn.Result.Name, insn.Result.Type, insn.Value(0).Name)
		for _, op := range insn.Operands[1:] {
			io.WriteString(w, ", ")
			dumpValue(w, op.(*Value))
		}

	case Br:
		fmt.Fprintf(w, "br %s", insn.Block(0).Name)

	case CondBr:
		io.WriteString(w, "cbr ")
		dumpValue(w, insn.Value(0))
		fmt.Fprintf(w, ", %s, %s", insn.Block(1).Name, insn.Block(2).Name)

	case Call:
		if insn.Result.Kind != KindNull {
			fmt.Fprintf(w, "%%%q = ", insn.Result.Name)
		}
		io.WriteString(w, "call ")
		dumpValue(w, insn.Value(0))
		io.WriteString(w, " (")
		for i, op := range insn.Operands[1:] {
			if i > 0 {
				io.WriteString(w, ", ")
			}
			dumpValue(w, op.(*Value))
		}
		io.WriteString(w, ")")

	case ICmp:
		fmt.Fprintf(w, "%%%q = icmp.%s ", insn.Result.Name, icmpNames[insn.Extra])
		dumpValue(w, insn.Value(0))
		io.WriteString(w, ", ")
		dumpValue(w, insn.Value(1))

	case FCmp:
		fmt.Fprintf(w, "%%%q = fcmp.%s ", insn.Result.Name, fcmpNames[insn.Extra])
		dumpValue(w, insn.Value(0))
		io.WriteString(w, ", ")
		dumpValue(w, insn.Value(1))

	default:
		if insn.Result.Kind != KindNull {
			fmt.Fprintf(w, "%%%q = ", insn.Result.Name)
		}
		fmt.Fprintf(w, "%s", insn.Op)
		for i, op := range insn.Operands {
			if i > 0 {
				io.WriteString(w, ",")
			}
			io.WriteString(w, " ")
			switch o := op.(type) {
			case *Value:
				dumpValue(w, o)
			case *BasicBlock:
				io.WriteString(w, o.Name)
			}
		}
	}
}

var icmpNames = [...]string{"eq", "neq", "sgt", "ugt", "sge", "uge", "slt", "ult", "sle", "ule"}
var fcmpNames = [...]string{"oeq", "oneq", "ogt", "oge", "olt", "ole", "true", "false"}

func dumpValue(w io.Writer, v *Value) {
	switch v.Kind {
	case KindNull:
		io.WriteString(w, "null")

	case KindConstant:
		switch v.CKind {
		case ConstNumber:
			switch {
			case v.Type.Kind == types.Bool:
				if v.Int() != 0 {
					io.WriteString(w, "true")
				} else {
					io.WriteString(w, "false")
				}
			case v.Type.IsNumeric():
				if v.Type.Signed {
					fmt.Fprintf(w, "%s %d", v.Type, v.SInt())
				} else {
					fmt.Fprintf(w, "%s %d", v.Type, v.Int())
				}
			default:
				fmt.Fprintf(w, "%s %g", v.Type, v.Float())
			}

		case ConstString:
			io.WriteString(w, quoteBytes(v.StrVal))

		case ConstArray:
			io.WriteString(w, "[")
			for i, el := range v.Elems {
				if i > 0 {
					io.WriteString(w, ", ")
				}
				dumpValue(w, el)
			}
			io.WriteString(w, "]")

		case ConstPointer:
			fmt.Fprintf(w, "%s 0x%x", v.Type, v.NumBits)
		}

	case KindFunction, KindGlobal:
		fmt.Fprintf(w, "%s @%q", v.Type, v.Name)

	case KindParameter, KindInstruction:
		fmt.Fprintf(w, "%s %%%q", v.Type, v.Name)

	default:
		fmt.Fprintf(w, "%s %s", v.Type, v.Name)
	}
}

func quoteBytes(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c < 0x7F && c != '"' && c != '\\' {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "\\%02X", c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
