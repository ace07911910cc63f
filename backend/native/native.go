package native

import (
	"go.uber.org/zap"
	"tinygo.org/x/go-llvm"

	"github.com/itealang/itea/diag"
	"github.com/itealang/itea/mir"
	"github.com/itealang/itea/types"
)

// Options configure object emission.
type Options struct {
	// OptLevel is the -O level (0..3) handed to the target machine; the
	// MIR itself is not transformed.
	OptLevel int
	// DumpIR prints the final IR to standard error before verification.
	DumpIR bool
}

var icmpPreds = [...]llvm.IntPredicate{
	llvm.IntEQ,
	llvm.IntNE,
	llvm.IntSGT,
	llvm.IntUGT,
	llvm.IntSGE,
	llvm.IntUGE,
	llvm.IntSLT,
	llvm.IntULT,
	llvm.IntSLE,
	llvm.IntULE,
}

var fcmpPreds = [...]llvm.FloatPredicate{
	llvm.FloatOEQ,
	llvm.FloatONE,
	llvm.FloatOGT,
	llvm.FloatOGE,
	llvm.FloatOLT,
	llvm.FloatOLE,
	llvm.FloatPredicateTrue,
	llvm.FloatPredicateFalse,
}

func codegenLevel(opt int) llvm.CodeGenOptLevel {
	switch opt {
	case 0:
		return llvm.CodeGenLevelNone
	case 1:
		return llvm.CodeGenLevelLess
	case 3:
		return llvm.CodeGenLevelAggressive
	}
	return llvm.CodeGenLevelDefault
}

// dataLayoutFor maps the module's layout descriptor to the target data
// layout string.
func dataLayoutFor(dl mir.DataLayout) string {
	var s string
	switch dl.MaxNativeBytes {
	case 8:
		s = "e-m:e-i64:64-f80:128-n8:16:32:64"
	case 4:
		s = "e-m:e-p:32:32-i64:32-f80:32-n8:16:32"
	default:
		s = "e"
	}
	if dl.BigEndian {
		s = "E" + s[1:]
	}
	return s
}

type lowering struct {
	ctx     llvm.Context
	mod     llvm.Module
	b       llvm.Builder
	values  map[*mir.Value]llvm.Value
	blocks  map[*mir.BasicBlock]llvm.BasicBlock
	globals map[string]llvm.Value
}

// Emit lowers a completed MIR module to native object code in memory.
// Failures (unknown triple, verification, emission) are fatal.
func Emit(m *mir.Module, opts Options) []byte {
	llvm.InitializeAllTargetInfos()
	llvm.InitializeAllTargets()
	llvm.InitializeAllTargetMCs()
	llvm.InitializeAllAsmPrinters()

	l := &lowering{
		ctx:     llvm.GlobalContext(),
		values:  make(map[*mir.Value]llvm.Value),
		globals: make(map[string]llvm.Value),
	}

	l.mod = l.ctx.NewModule(m.Source)
	defer l.mod.Dispose()

	triple := m.Triple
	if triple == "" {
		triple = llvm.DefaultTargetTriple()
	}
	l.mod.SetTarget(triple)
	l.mod.SetDataLayout(dataLayoutFor(m.DataLayout))

	target, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		diag.Fatalf("%s", err)
	}
	tm := target.CreateTargetMachine(
		triple, "", "",
		codegenLevel(opts.OptLevel), llvm.RelocDefault, llvm.CodeModelDefault,
	)
	defer tm.Dispose()

	l.b = l.ctx.NewBuilder()
	defer l.b.Dispose()

	logger().Debug("emitting object",
		zap.String("triple", triple),
		zap.Int("entries", len(m.Entries)))

	// Globals first: string literals append their backing global to the
	// module after the function that references it.
	for _, e := range m.Entries {
		if g, ok := e.(*mir.Global); ok {
			l.lowerGlobal(g)
		}
	}
	for _, e := range m.Entries {
		if f, ok := e.(*mir.Function); ok {
			l.lowerFunction(f)
		}
	}

	if opts.DumpIR {
		l.mod.Dump()
	}

	if err := llvm.VerifyModule(l.mod, llvm.PrintMessageAction); err != nil {
		diag.Fatalf("module verification failed: %s", err)
	}

	buf, err := tm.EmitToMemoryBuffer(l.mod, llvm.ObjectFile)
	if err != nil {
		diag.Fatalf("object emission failed: %s", err)
	}
	defer buf.Dispose()

	out := make([]byte, len(buf.Bytes()))
	copy(out, buf.Bytes())
	return out
}

func (l *lowering) lowerType(t *types.Type) llvm.Type {
	switch t.Kind {
	case types.Void:
		return l.ctx.VoidType()
	case types.Bool:
		return l.ctx.Int1Type()
	case types.Char:
		return l.ctx.Int8Type()
	case types.Short:
		return l.ctx.Int16Type()
	case types.Int:
		return l.ctx.Int32Type()
	case types.Long:
		return l.ctx.Int64Type()
	case types.Float:
		return l.ctx.FloatType()
	case types.Double:
		return l.ctx.DoubleType()
	case types.String:
		return llvm.PointerType(l.ctx.Int8Type(), 0)

	case types.Pointer:
		// pointer-to-void reads as pointer-to-bytes
		if t.Elem.Kind == types.Void {
			return llvm.PointerType(l.ctx.Int8Type(), 0)
		}
		return llvm.PointerType(l.lowerType(t.Elem), 0)

	case types.Array:
		return llvm.ArrayType(l.lowerType(t.Elem), int(t.Len))

	case types.Function:
		params := make([]llvm.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = l.lowerType(p)
		}
		return llvm.FunctionType(l.lowerType(t.Return), params, t.Vararg)

	case types.Struct:
		fields := make([]llvm.Type, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = l.lowerType(f)
		}
		return l.ctx.StructType(fields, t.Packed)
	}

	diag.Fatalf("cannot lower type '%s'", t)
	var none llvm.Type
	return none
}

func (l *lowering) lowerGlobal(g *mir.Global) {
	global := llvm.AddGlobal(l.mod, l.lowerType(g.Stored), g.Name)
	if g.Storage == mir.Private {
		global.SetLinkage(llvm.PrivateLinkage)
	}
	if g.HasAttr(mir.AttrThreadLocal) {
		global.SetThreadLocal(true)
	}
	if g.Init != nil {
		global.SetInitializer(l.lowerValue(g.Init))
	}
	l.globals[g.Name] = global
	l.values[&g.Value] = global
}

func callConvFor(cc mir.CallConv) llvm.CallConv {
	switch cc {
	case mir.CallFast:
		return llvm.FastCallConv
	case mir.CallStd:
		return llvm.X86StdcallCallConv
	}
	return llvm.CCallConv
}

func (l *lowering) lowerFunction(f *mir.Function) {
	fn := llvm.AddFunction(l.mod, f.Name, l.lowerType(f.Type))
	if f.Storage == mir.Private {
		fn.SetLinkage(llvm.PrivateLinkage)
	}
	if f.CC != mir.CallAuto {
		fn.SetFunctionCallConv(callConvFor(f.CC))
	}
	l.globals[f.Name] = fn
	l.values[&f.Value] = fn

	for i, p := range f.Params {
		param := fn.Param(i)
		if p.Name != "" {
			param.SetName(p.Name)
		}
		l.values[p] = param
	}

	if len(f.Blocks) == 0 {
		return
	}

	// Pre-create every block so branch targets resolve without forward
	// references.
	l.blocks = make(map[*mir.BasicBlock]llvm.BasicBlock, len(f.Blocks))
	for _, bb := range f.Blocks {
		l.blocks[bb] = llvm.AddBasicBlock(fn, bb.Name)
	}

	for _, bb := range f.Blocks {
		l.b.SetInsertPointAtEnd(l.blocks[bb])
		l.lowerBlock(bb)
	}

	l.blocks = nil
}

func (l *lowering) lowerBlock(bb *mir.BasicBlock) {
	for _, insn := range bb.Insns {
		var result llvm.Value

		switch insn.Op {
		case mir.Add:
			lhs, rhs := l.lowerValue(insn.Value(0)), l.lowerValue(insn.Value(1))
			if insn.Result.Type.IsFloat() {
				result = l.b.CreateFAdd(lhs, rhs, "")
			} else {
				result = l.b.CreateAdd(lhs, rhs, "")
			}

		case mir.Sub:
			lhs, rhs := l.lowerValue(insn.Value(0)), l.lowerValue(insn.Value(1))
			if insn.Result.Type.IsFloat() {
				result = l.b.CreateFSub(lhs, rhs, "")
			} else {
				result = l.b.CreateSub(lhs, rhs, "")
			}

		case mir.Mul:
			lhs, rhs := l.lowerValue(insn.Value(0)), l.lowerValue(insn.Value(1))
			if insn.Result.Type.IsFloat() {
				result = l.b.CreateFMul(lhs, rhs, "")
			} else {
				result = l.b.CreateMul(lhs, rhs, "")
			}

		case mir.Div:
			lhs, rhs := l.lowerValue(insn.Value(0)), l.lowerValue(insn.Value(1))
			switch {
			case insn.Result.Type.IsFloat():
				result = l.b.CreateFDiv(lhs, rhs, "")
			case insn.Result.Type.Signed:
				result = l.b.CreateSDiv(lhs, rhs, "")
			default:
				result = l.b.CreateUDiv(lhs, rhs, "")
			}

		case mir.Mod:
			lhs, rhs := l.lowerValue(insn.Value(0)), l.lowerValue(insn.Value(1))
			switch {
			case insn.Result.Type.IsFloat():
				result = l.b.CreateFRem(lhs, rhs, "")
			case insn.Result.Type.Signed:
				result = l.b.CreateSRem(lhs, rhs, "")
			default:
				result = l.b.CreateURem(lhs, rhs, "")
			}

		case mir.Not:
			result = l.b.CreateNot(l.lowerValue(insn.Value(0)), "")

		case mir.And:
			result = l.b.CreateAnd(l.lowerValue(insn.Value(0)), l.lowerValue(insn.Value(1)), "")

		case mir.Or:
			result = l.b.CreateOr(l.lowerValue(insn.Value(0)), l.lowerValue(insn.Value(1)), "")

		case mir.Xor:
			result = l.b.CreateXor(l.lowerValue(insn.Value(0)), l.lowerValue(insn.Value(1)), "")

		case mir.Shl:
			result = l.b.CreateShl(l.lowerValue(insn.Value(0)), l.lowerValue(insn.Value(1)), "")

		case mir.Shr:
			// arithmetic shift for signed operands, logical otherwise
			if insn.Value(0).Type.Signed {
				result = l.b.CreateAShr(l.lowerValue(insn.Value(0)), l.lowerValue(insn.Value(1)), "")
			} else {
				result = l.b.CreateLShr(l.lowerValue(insn.Value(0)), l.lowerValue(insn.Value(1)), "")
			}

		case mir.ICmp:
			result = l.b.CreateICmp(icmpPreds[insn.Extra],
				l.lowerValue(insn.Value(0)), l.lowerValue(insn.Value(1)), "")

		case mir.FCmp:
			result = l.b.CreateFCmp(fcmpPreds[insn.Extra],
				l.lowerValue(insn.Value(0)), l.lowerValue(insn.Value(1)), "")

		case mir.Load:
			ptr := insn.Value(0)
			result = l.b.CreateLoad(l.lowerType(insn.Result.Type), l.lowerValue(ptr), "")
			if insn.Volatile() {
				result.SetVolatile(true)
			}

		case mir.Store:
			st := l.b.CreateStore(l.lowerValue(insn.Value(1)), l.lowerValue(insn.Value(0)))
			if insn.Volatile() {
				st.SetVolatile(true)
			}

		case mir.Alloca:
			result = l.b.CreateAlloca(l.lowerType(insn.Result.Type.Elem), "")

		case mir.GetElementPtr:
			base := insn.Value(0)
			indices := make([]llvm.Value, 0, len(insn.Operands)-1)
			for _, op := range insn.Operands[1:] {
				indices = append(indices, l.lowerValue(op.(*mir.Value)))
			}
			result = l.b.CreateGEP(l.lowerType(base.Type.Elem), l.lowerValue(base), indices, "")

		case mir.Br:
			l.b.CreateBr(l.blocks[insn.Block(0)])

		case mir.CondBr:
			l.b.CreateCondBr(l.lowerValue(insn.Value(0)), l.blocks[insn.Block(1)], l.blocks[insn.Block(2)])

		case mir.Ret:
			if len(insn.Operands) == 0 {
				l.b.CreateRetVoid()
			} else {
				l.b.CreateRet(l.lowerValue(insn.Value(0)))
			}

		case mir.Phi:
			var incoming []llvm.Value
			var blocks []llvm.BasicBlock
			for i := 0; i < len(insn.Operands); i += 2 {
				incoming = append(incoming, l.lowerValue(insn.Operands[i].(*mir.Value)))
				blocks = append(blocks, l.blocks[insn.Operands[i+1].(*mir.BasicBlock)])
			}
			phi := l.b.CreatePHI(l.lowerType(insn.Result.Type), "")
			phi.AddIncoming(incoming, blocks)
			result = phi

		case mir.Call:
			callee := insn.Value(0)
			ftype := callee.Type
			if ftype.Kind == types.Pointer {
				ftype = ftype.Elem
			}
			args := make([]llvm.Value, 0, len(insn.Operands)-1)
			for _, op := range insn.Operands[1:] {
				args = append(args, l.lowerValue(op.(*mir.Value)))
			}
			result = l.b.CreateCall(l.lowerType(ftype), l.lowerValue(callee), args, "")

		case mir.Cast:
			result = l.lowerCast(insn)

		case mir.Unreachable:
			l.b.CreateUnreachable()

		case mir.Nop:

		default:
			diag.Fatalf("cannot lower unknown opcode: %d", insn.Op)
		}

		if !result.IsNil() && insn.Result.Kind == mir.KindInstruction {
			l.values[&insn.Result] = result
		}
	}
}

// lowerCast picks the conversion from the operand and result types:
// float/int conversions by signedness, integer resizes by an int cast,
// anything else a bitcast.
func (l *lowering) lowerCast(insn *mir.Instruction) llvm.Value {
	value := l.lowerValue(insn.Value(0))
	src := insn.Value(0).Type
	dst := insn.Result.Type
	destType := l.lowerType(dst)

	switch {
	case src.IsFloat() && dst.IsNumeric():
		if dst.Signed {
			return l.b.CreateFPToSI(value, destType, "")
		}
		return l.b.CreateFPToUI(value, destType, "")

	case src.IsNumeric() && dst.IsFloat():
		if src.Signed {
			return l.b.CreateSIToFP(value, destType, "")
		}
		return l.b.CreateUIToFP(value, destType, "")

	case src.IsNumeric() && dst.IsNumeric():
		return l.b.CreateIntCast(value, destType, "")

	default:
		return l.b.CreateBitCast(value, destType, "")
	}
}

func (l *lowering) lowerValue(v *mir.Value) llvm.Value {
	switch v.Kind {
	case mir.KindGlobal, mir.KindFunction:
		if have, ok := l.values[v]; ok {
			return have
		}
		if have, ok := l.globals[v.Name]; ok {
			return have
		}

	case mir.KindParameter, mir.KindInstruction:
		if have, ok := l.values[v]; ok {
			return have
		}

	case mir.KindConstant:
		switch v.CKind {
		case mir.ConstNumber:
			if v.Type.IsNumeric() {
				return llvm.ConstInt(l.lowerType(v.Type), v.Int(), v.Type.Signed)
			}
			return llvm.ConstFloat(l.lowerType(v.Type), v.Float())

		case mir.ConstString:
			return llvm.ConstString(v.StrVal, false)

		case mir.ConstArray:
			elems := make([]llvm.Value, len(v.Elems))
			for i, el := range v.Elems {
				elems[i] = l.lowerValue(el)
			}
			return llvm.ConstArray(l.lowerType(v.Type.Elem), elems)

		case mir.ConstPointer:
			ptrType := l.lowerType(v.Type)
			if v.NumBits == 0 {
				return llvm.ConstPointerNull(ptrType)
			}
			return llvm.ConstIntToPtr(llvm.ConstInt(l.ctx.Int64Type(), v.NumBits, false), ptrType)
		}

	case mir.KindNull:
		return llvm.ConstPointerNull(llvm.PointerType(l.ctx.Int8Type(), 0))
	}

	diag.Fatalf("cannot lower value '%s'", v.Name)
	var none llvm.Value
	return none
}
