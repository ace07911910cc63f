package luau

import (
	"encoding/binary"

	"go.uber.org/zap"

	"github.com/itealang/itea/diag"
	"github.com/itealang/itea/mir"
)

// globalRef remembers how a module global was materialized; kind 0 is a
// string-table entry.
type globalRef struct {
	kind uint8
	idx  uint32
}

type reloc struct {
	target *mir.BasicBlock
	pc     uint32
}

// Lowering translates a MIR module into a bytecode image.
type Lowering struct {
	strs   stringTable
	protos []*Proto
	proto  *Proto

	nextReg   int
	valueMap  map[*mir.Value]uint8
	globalMap map[*mir.Value]globalRef
	labels    map[*mir.BasicBlock]uint32
	relocs    []reloc
}

// Lower emits the complete bytecode image for m.
func Lower(m *mir.Module) []byte {
	l := &Lowering{
		valueMap:  make(map[*mir.Value]uint8),
		globalMap: make(map[*mir.Value]globalRef),
		labels:    make(map[*mir.BasicBlock]uint32),
	}
	return l.lower(m)
}

// strhash is the VM's string hash; GETGLOBAL carries its low byte.
func strhash(name string) uint32 {
	h := uint32(len(name))
	for i := len(name); i > 0; i-- {
		h ^= (h << 5) + (h >> 2) + uint32(name[i-1])
	}
	return h
}

func (l *Lowering) lower(m *mir.Module) []byte {
	// Proto 0 is the chunk entry: it resolves and calls main.
	l.proto = newProto(&l.strs)
	l.proto.EmitABC(OpGetGlobal, 0, 0, uint8(strhash("main")))
	l.proto.EmitAux(l.proto.AddConstantString("main"))
	l.proto.EmitABC(OpCall, 0, 0, 0)
	l.nextReg = 0
	l.protos = append(l.protos, l.proto)

	// Globals first: a string literal's global is appended to the module
	// after the function that references it.
	for _, e := range m.Entries {
		g, ok := e.(*mir.Global)
		if !ok {
			continue
		}
		if g.Init != nil && g.Init.IsConstant(mir.ConstString) {
			l.globalMap[&g.Value] = globalRef{kind: 0, idx: l.strs.Intern(g.Init.StrVal)}
			continue
		}
		diag.Fatalf("unable to lower global '%s': unsupported initializer", g.Name)
	}

	for _, e := range m.Entries {
		f, ok := e.(*mir.Function)
		if !ok || len(f.Blocks) == 0 {
			continue
		}
		l.proto = newProto(&l.strs)
		l.lowerFunction(f)
		l.protos = append(l.protos, l.proto)
	}

	logger().Debug("lowered module",
		zap.Int("protos", len(l.protos)),
		zap.Int("strings", len(l.strs.list)))

	return l.image()
}

// image serializes the version header, string table and protos.
func (l *Lowering) image() []byte {
	var out []byte

	out = append(out, BytecodeVersion, TypeVersion)

	out = appendVarint(out, uint32(len(l.strs.list)))
	for _, s := range l.strs.list {
		out = appendVarint(out, uint32(len(s)))
		out = append(out, s...)
	}

	out = appendVarint(out, uint32(len(l.protos)))
	for _, p := range l.protos {
		out = append(out, p.MaxStackSize, p.NumParams, p.Nups, p.IsVararg, p.Flags)

		// type info is not provided
		out = appendVarint(out, 0)

		out = appendVarint(out, uint32(len(p.Code)))
		for _, w := range p.Code {
			out = binary.LittleEndian.AppendUint32(out, w)
		}

		out = appendVarint(out, p.SizeK)
		out = append(out, p.K...)

		out = appendVarint(out, 0) // sizep
		out = appendVarint(out, 0) // linedefined
		out = appendVarint(out, 0) // debugname
		out = append(out, 0)       // lineinfo
		out = append(out, 0)       // debuginfo
	}

	out = appendVarint(out, 0)
	return out
}

func (l *Lowering) lowerFunction(f *mir.Function) {
	l.proto.NumParams = uint8(len(f.Params))
	l.proto.IsVararg = 0
	l.proto.Flags = 0

	for _, p := range f.Params {
		l.valueMap[p] = l.reg()
	}

	// Every stack slot collapses to "the value lives in register R".
	for _, bb := range f.Blocks {
		for _, insn := range bb.Insns {
			if insn.Op == mir.Alloca {
				l.valueMap[&insn.Result] = l.reg()
			}
		}
	}

	for _, bb := range f.Blocks {
		l.labels[bb] = uint32(len(l.proto.Code))
		for _, insn := range bb.Insns {
			l.lowerInstruction(insn)
		}
	}

	// Resolve deferred jumps now that every block's pc is known.
	for _, r := range l.relocs {
		offset := int32(l.labels[r.target]) - int32(r.pc+1)
		l.proto.PatchD(r.pc, int16(offset))
	}

	if max := uint8(l.nextReg); max > l.proto.MaxStackSize {
		l.proto.MaxStackSize = max
	}

	l.nextReg = 0
	l.relocs = l.relocs[:0]
	l.valueMap = make(map[*mir.Value]uint8)
	l.labels = make(map[*mir.BasicBlock]uint32)
}

func (l *Lowering) reg() uint8 {
	r := l.nextReg
	l.nextReg++
	if r > 0xFF {
		diag.Fatalf("function needs more than 256 registers")
	}
	return uint8(r)
}

func (l *Lowering) lowerInstruction(insn *mir.Instruction) {
	var dest uint8
	if insn.Result.Kind != mir.KindNull && insn.Op != mir.Alloca {
		dest = l.reg()
		l.valueMap[&insn.Result] = dest
	}

	switch insn.Op {
	case mir.Add, mir.Sub, mir.Mul, mir.Div, mir.Mod:
		op := OpAdd + Opcode(insn.Op-mir.Add)
		l.proto.EmitABC(op, dest, l.lowerValue(insn.Value(0), l.reg()), l.lowerValue(insn.Value(1), l.reg()))

	case mir.And:
		l.proto.EmitABC(OpAnd, dest, l.lowerValue(insn.Value(0), l.reg()), l.lowerValue(insn.Value(1), l.reg()))

	case mir.Or:
		l.proto.EmitABC(OpOr, dest, l.lowerValue(insn.Value(0), l.reg()), l.lowerValue(insn.Value(1), l.reg()))

	case mir.Not:
		l.proto.EmitABC(OpNot, dest, l.lowerValue(insn.Value(0), l.reg()), 0)

	case mir.Xor:
		l.lowerBit32Call(insn, dest, "bxor")

	case mir.Shl:
		l.lowerBit32Call(insn, dest, "lshift")

	case mir.Shr:
		l.lowerBit32Call(insn, dest, "rshift")

	case mir.Load:
		ptr := insn.Value(0)
		if slot, ok := l.valueMap[ptr]; ok {
			l.proto.EmitABC(OpMove, dest, slot, 0)
			return
		}
		// Loads through arbitrary pointers go to the memory shim.
		funcReg := l.reg()
		l.proto.EmitAD(OpGetImport, funcReg, int16(l.proto.AddConstantString("__builtin_memread")))
		l.proto.EmitAux(l.proto.AddString("__builtin_memread") | 1<<30)
		l.lowerValue(ptr, funcReg+1)
		l.proto.EmitABC(OpCall, funcReg, 2, 2)
		l.proto.EmitABC(OpMove, dest, funcReg, 0)

	case mir.Store:
		ptr := insn.Value(0)
		valReg := l.lowerValue(insn.Value(1), l.reg())
		if slot, ok := l.valueMap[ptr]; ok {
			l.proto.EmitABC(OpMove, slot, valReg, 0)
			return
		}
		funcReg := l.reg()
		l.proto.EmitAD(OpGetImport, funcReg, int16(l.proto.AddConstantString("__builtin_memwrite")))
		l.proto.EmitAux(l.proto.AddString("__builtin_memwrite") | 1<<30)
		l.lowerValue(ptr, funcReg+1)
		l.proto.EmitABC(OpMove, funcReg+2, valReg, 0)
		l.proto.EmitABC(OpCall, funcReg, 3, 1)

	case mir.Alloca:
		// register pre-assigned

	case mir.ICmp, mir.FCmp:
		l.lowerCompare(insn, dest)

	case mir.Br:
		pc := l.proto.EmitAD(OpJump, 0, 0)
		l.relocs = append(l.relocs, reloc{insn.Block(0), pc})

	case mir.CondBr:
		pc := l.proto.EmitAD(OpJumpIf, l.lowerValue(insn.Value(0), l.reg()), 0)
		l.relocs = append(l.relocs, reloc{insn.Block(1), pc})
		pc = l.proto.EmitAD(OpJump, 0, 0)
		l.relocs = append(l.relocs, reloc{insn.Block(2), pc})

	case mir.Ret:
		if len(insn.Operands) == 0 {
			l.proto.EmitABC(OpReturn, 0, 1, 0)
		} else {
			l.proto.EmitABC(OpReturn, l.lowerValue(insn.Value(0), l.reg()), 2, 0)
		}

	case mir.Call:
		callee := l.lowerValue(insn.Value(0), l.reg())
		for i := 1; i < len(insn.Operands); i++ {
			argReg := callee + uint8(i)
			l.proto.EmitABC(OpMove, argReg, l.lowerValue(insn.Value(i), argReg), 0)
		}
		results := uint8(1)
		if insn.Result.Kind != mir.KindNull {
			results = 2
		}
		l.proto.EmitABC(OpCall, callee, uint8(len(insn.Operands)), results)
		if insn.Result.Kind != mir.KindNull {
			l.proto.EmitABC(OpMove, dest, callee, 0)
		}

	case mir.Cast:
		// the VM is untyped; a cast is a register copy
		l.lowerValue(insn.Value(0), dest)

	case mir.Unreachable:
		l.proto.EmitABC(OpReturn, 0, 1, 0)

	case mir.Nop:
	}
}

// lowerBit32Call shims the bitwise operations the VM lacks through the
// bit32 library.
func (l *Lowering) lowerBit32Call(insn *mir.Instruction, dest uint8, name string) {
	funcReg := l.reg()
	l.proto.EmitAD(OpGetImport, funcReg, int16(l.proto.AddConstantString(name)))
	l.proto.EmitAux(l.proto.AddString("bit32") | l.proto.AddString(name)<<10 | 2<<30)

	l.lowerValue(insn.Value(0), funcReg+1)
	l.lowerValue(insn.Value(1), funcReg+2)

	l.proto.EmitABC(OpCall, funcReg, 3, 2)
	l.proto.EmitABC(OpMove, dest, funcReg, 0)
}

// lowerCompare emits a conditional jump over two LOADB words, leaving a
// boolean in dest. The VM has no signed/unsigned distinction, so the
// signed and unsigned predicates lower identically.
func (l *Lowering) lowerCompare(insn *mir.Instruction, dest uint8) {
	lhs := l.lowerValue(insn.Value(0), l.reg())
	rhs := l.lowerValue(insn.Value(1), l.reg())

	emit := func(op Opcode, a, aux uint8) {
		l.proto.EmitAD(op, a, 2)
		l.proto.EmitAux(uint32(aux))
		l.proto.EmitABC(OpLoadB, dest, 0, 1)
		l.proto.EmitABC(OpLoadB, dest, 1, 0)
	}

	if insn.Op == mir.ICmp {
		switch mir.ICmpPredicate(insn.Extra) {
		case mir.IntEQ:
			emit(OpJumpIfEq, lhs, rhs)
		case mir.IntNEQ:
			emit(OpJumpIfNotEq, lhs, rhs)
		case mir.IntSGT, mir.IntUGT:
			emit(OpJumpIfLt, rhs, lhs)
		case mir.IntSGE, mir.IntUGE:
			emit(OpJumpIfLe, rhs, lhs)
		case mir.IntSLT, mir.IntULT:
			emit(OpJumpIfLt, lhs, rhs)
		case mir.IntSLE, mir.IntULE:
			emit(OpJumpIfLe, lhs, rhs)
		}
		return
	}

	switch mir.FCmpPredicate(insn.Extra) {
	case mir.FloatOEQ:
		emit(OpJumpIfEq, lhs, rhs)
	case mir.FloatONEQ:
		emit(OpJumpIfNotEq, lhs, rhs)
	case mir.FloatOGT:
		emit(OpJumpIfLt, rhs, lhs)
	case mir.FloatOGE:
		emit(OpJumpIfLe, rhs, lhs)
	case mir.FloatOLT:
		emit(OpJumpIfLt, lhs, rhs)
	case mir.FloatOLE:
		emit(OpJumpIfLe, lhs, rhs)
	case mir.FloatTrue:
		l.proto.EmitABC(OpLoadB, dest, 1, 0)
	case mir.FloatFalse:
		l.proto.EmitABC(OpLoadB, dest, 0, 0)
	}
}

// lowerValue materializes val into dest (or reports where it already
// lives) and returns the register holding it.
func (l *Lowering) lowerValue(val *mir.Value, dest uint8) uint8 {
	switch val.Kind {
	case mir.KindFunction:
		l.proto.EmitABC(OpGetGlobal, dest, 0, uint8(strhash(val.Name)))
		l.proto.EmitAux(l.proto.AddConstantString(val.Name))
		return dest

	case mir.KindConstant:
		switch val.CKind {
		case mir.ConstNumber:
			if val.Type.IsNumeric() {
				iv := val.SInt()
				if iv >= -32768 && iv <= 32767 {
					l.proto.EmitAD(OpLoadN, dest, int16(iv))
				} else {
					l.proto.EmitAD(OpLoadK, dest, int16(l.proto.AddConstantNumber(float64(iv))))
				}
			} else {
				l.proto.EmitAD(OpLoadK, dest, int16(l.proto.AddConstantNumber(val.Float())))
			}
			return dest

		case mir.ConstString:
			l.proto.EmitAD(OpLoadK, dest, int16(l.proto.AddConstantString(val.StrVal)))
			return dest

		default:
			l.proto.EmitABC(OpLoadNil, dest, 0, 0)
			return dest
		}

	case mir.KindGlobal:
		if ref, ok := l.globalMap[val]; ok && ref.kind == 0 {
			k := l.proto.SizeK
			l.proto.SizeK++
			l.proto.K = append(l.proto.K, TagString)
			l.proto.K = appendVarint(l.proto.K, ref.idx)
			l.proto.EmitAD(OpLoadK, dest, int16(k))
			return dest
		}

	case mir.KindInstruction, mir.KindParameter:
		if reg, ok := l.valueMap[val]; ok {
			l.proto.EmitABC(OpMove, dest, reg, 0)
			return dest
		}
	}

	diag.Fatalf("unable to lower value '%s'", val.Name)
	return 0
}
