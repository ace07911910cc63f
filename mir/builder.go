package mir

import (
	"github.com/itealang/itea/diag"
	"github.com/itealang/itea/types"
)

// Builder appends instructions to a current basic block. The insertion
// point is an explicit cursor: InsertInto moves it, nothing else does.
type Builder struct {
	ctx   *Context
	block *BasicBlock
	loc   SourceLoc
}

// NewBuilder creates a builder allocating against ctx.
func NewBuilder(ctx *Context) *Builder {
	return &Builder{ctx: ctx}
}

// InsertInto repositions the builder at the end of block.
func (b *Builder) InsertInto(block *BasicBlock) { b.block = block }

// InsertBlock returns the current insertion block.
func (b *Builder) InsertBlock() *BasicBlock { return b.block }

// SetLoc records the source location stamped on subsequent instructions.
func (b *Builder) SetLoc(line, column int) { b.loc = SourceLoc{Line: line, Column: column} }

// Ctx returns the compilation context.
func (b *Builder) Ctx() *Context { return b.ctx }

func (b *Builder) append(op OpCode) *Instruction {
	if b.block == nil {
		diag.Fatalf("builder has no insertion block")
	}
	insn := &Instruction{Op: op, Loc: b.loc, Result: Value{Kind: KindNull}}
	b.block.Insns = append(b.block.Insns, insn)
	return insn
}

func (insn *Instruction) defineResult(t *types.Type, name string, scope *Scope) *Value {
	insn.Result = Value{Kind: KindInstruction, Type: t, Name: scope.Add(name), Instr: insn}
	return &insn.Result
}

// Ret emits a return; val may be nil for void.
func (b *Builder) Ret(val *Value) *Instruction {
	insn := b.append(Ret)
	if val != nil {
		insn.Operands = append(insn.Operands, val)
	}
	return insn
}

// Alloca reserves a stack slot for t; the result is a pointer to t.
func (b *Builder) Alloca(t *types.Type, name string) *Value {
	insn := b.append(Alloca)
	return insn.defineResult(b.ctx.Types.Pointer(t, false), name, &b.block.scope)
}

// Store writes val through ptr. Its result is always discarded.
func (b *Builder) Store(ptr, val *Value) *Instruction {
	insn := b.append(Store)
	insn.Operands = append(insn.Operands, ptr, val)
	return insn
}

// Load reads through ptr; the result has the pointee type.
func (b *Builder) Load(ptr *Value, name string) *Value {
	if ptr.Type.Kind != types.Pointer {
		diag.Fatalf("load requires a pointer operand, got '%s'", ptr.Type)
	}
	insn := b.append(Load)
	insn.Operands = append(insn.Operands, ptr)
	return insn.defineResult(ptr.Type.Elem, name, &b.block.scope)
}

// Cast converts v to target. A cast to the value's own type is a no-op
// returning v; the concrete conversion (int/float/bit cast) is chosen by
// the back ends from the operand and result types.
func (b *Builder) Cast(v *Value, target *types.Type, name string) *Value {
	if v.Type == target {
		return v
	}
	insn := b.append(Cast)
	insn.Operands = append(insn.Operands, v)
	return insn.defineResult(target, name, &b.block.scope)
}

// GlobalString interns s as a private constant global and yields its
// address re-cast to a char pointer.
func (b *Builder) GlobalString(s string) *Value {
	str := b.ctx.String(s)
	g := b.block.Parent.Parent.AddGlobal("", str.Type, str)
	g.Storage = Private
	return b.Cast(&g.Value, b.ctx.Types.Pointer(b.ctx.Types.Primitive(types.Char, true, true), false), "")
}

// Arith emits one of Add..Mod over two operands of identical numeric or
// floating type.
func (b *Builder) Arith(op OpCode, lhs, rhs *Value, name string) *Value {
	if op < Add || op > Mod {
		diag.Fatalf("arith: opcode %s out of range", op)
	}
	if lhs.Type != rhs.Type {
		diag.Fatalf("arith: operand type mismatch: '%s' vs '%s'", lhs.Type, rhs.Type)
	}
	insn := b.append(op)
	insn.Operands = append(insn.Operands, lhs, rhs)
	return insn.defineResult(lhs.Type, name, &b.block.scope)
}

// BinOp emits one of Not..Shr. Integer only; Not ignores rhs.
func (b *Builder) BinOp(op OpCode, lhs, rhs *Value, name string) *Value {
	if op < Not || op > Shr {
		diag.Fatalf("binop: opcode %s out of range", op)
	}
	insn := b.append(op)
	insn.Operands = append(insn.Operands, lhs)
	if op != Not {
		if lhs.Type != rhs.Type {
			diag.Fatalf("binop: operand type mismatch: '%s' vs '%s'", lhs.Type, rhs.Type)
		}
		insn.Operands = append(insn.Operands, rhs)
	}
	return insn.defineResult(lhs.Type, name, &b.block.scope)
}

// ICmpOp emits an integer comparison producing Bool.
func (b *Builder) ICmpOp(pred ICmpPredicate, lhs, rhs *Value, name string) *Value {
	insn := b.append(ICmp)
	insn.Extra = uint8(pred)
	insn.Operands = append(insn.Operands, lhs, rhs)
	return insn.defineResult(b.ctx.Types.Bool(), name, &b.block.scope)
}

// FCmpOp emits a floating comparison producing Bool.
func (b *Builder) FCmpOp(pred FCmpPredicate, lhs, rhs *Value, name string) *Value {
	insn := b.append(FCmp)
	insn.Extra = uint8(pred)
	insn.Operands = append(insn.Operands, lhs, rhs)
	return insn.defineResult(b.ctx.Types.Bool(), name, &b.block.scope)
}

// GEP computes a derived pointer from base by walking indices through
// array and pointer types.
func (b *Builder) GEP(base *Value, indices []*Value, name string) *Value {
	if !base.Type.IsIndexable() || len(indices) == 0 {
		diag.Fatalf("gep requires an indexable base and at least one index")
	}
	insn := b.append(GetElementPtr)
	insn.Operands = append(insn.Operands, base)

	t := base.Type
	for _, idx := range indices {
		if !idx.Type.IsNumeric() {
			diag.Fatalf("gep index must be numeric, got '%s'", idx.Type)
		}
		insn.Operands = append(insn.Operands, idx)
		t = t.Element()
	}

	return insn.defineResult(b.ctx.Types.Pointer(t, false), name, &b.block.scope)
}

// Br emits an unconditional branch. The cursor does not move.
func (b *Builder) Br(target *BasicBlock) *Instruction {
	insn := b.append(Br)
	insn.Operands = append(insn.Operands, target)
	return insn
}

// CondBr branches to truthy or falsy on cond.
func (b *Builder) CondBr(cond *Value, truthy, falsy *BasicBlock) *Instruction {
	insn := b.append(CondBr)
	insn.Operands = append(insn.Operands, cond, truthy, falsy)
	return insn
}

// PhiIncoming pairs an incoming value with its predecessor block.
type PhiIncoming struct {
	Val   *Value
	Block *BasicBlock
}

// PhiNode merges incoming values at a join point.
func (b *Builder) PhiNode(t *types.Type, incoming []PhiIncoming, name string) *Value {
	insn := b.append(Phi)
	for _, in := range incoming {
		insn.Operands = append(insn.Operands, in.Val, in.Block)
	}
	return insn.defineResult(t, name, &b.block.scope)
}

// CallOp calls callee with args. The callee must be a function or a
// value of function (pointer) type. Void calls produce no result value.
func (b *Builder) CallOp(callee *Value, args []*Value, name string) *Value {
	ftype := callee.Type
	if ftype.Kind == types.Pointer && ftype.Elem.Kind == types.Function {
		ftype = ftype.Elem
	}
	if ftype.Kind != types.Function {
		diag.Fatalf("call requires a function callee, got '%s'", callee.Type)
	}

	insn := b.append(Call)
	insn.Operands = append(insn.Operands, callee)
	for _, a := range args {
		insn.Operands = append(insn.Operands, a)
	}

	if ftype.Return.Kind != types.Void {
		return insn.defineResult(ftype.Return, name, &b.block.scope)
	}
	return &insn.Result
}

// UnreachableOp marks the current point as never executed.
func (b *Builder) UnreachableOp() *Instruction {
	return b.append(Unreachable)
}
