package mir

import (
	"strconv"

	"github.com/itealang/itea/types"
)

// OpCode enumerates the MIR instruction set.
type OpCode uint8

const (
	// Arithmetic
	Add OpCode = iota
	Sub
	Mul
	Div
	Mod

	// Bitwise and shifts
	Not
	And
	Or
	Xor
	Shl
	Shr

	// Comparison
	ICmp
	FCmp

	// Memory
	Load
	Store
	Alloca
	GetElementPtr

	// Control flow
	Br
	CondBr
	Ret
	Phi
	Unreachable

	// Functions
	Call

	// Miscellaneous
	Nop
	Cast
)

var opcodeNames = [...]string{
	Add: "add", Sub: "sub", Mul: "mul", Div: "div", Mod: "mod",
	Not: "not", And: "and", Or: "or", Xor: "xor", Shl: "shl", Shr: "shr",
	ICmp: "icmp", FCmp: "fcmp",
	Load: "load", Store: "store", Alloca: "alloca", GetElementPtr: "gep",
	Br: "br", CondBr: "cbr", Ret: "ret", Phi: "phi", Unreachable: "unreachable",
	Call: "call",
	Nop:  "nop", Cast: "cast",
}

func (op OpCode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return "unk"
}

// IsTerminator reports whether op must end a basic block.
func (op OpCode) IsTerminator() bool {
	switch op {
	case Br, CondBr, Ret, Unreachable:
		return true
	}
	return false
}

// ICmpPredicate selects the integer comparison an ICmp performs.
type ICmpPredicate uint8

const (
	IntEQ ICmpPredicate = iota
	IntNEQ
	IntSGT
	IntUGT
	IntSGE
	IntUGE
	IntSLT
	IntULT
	IntSLE
	IntULE
)

// FCmpPredicate selects the ordered float comparison an FCmp performs.
type FCmpPredicate uint8

const (
	FloatOEQ FCmpPredicate = iota
	FloatONEQ
	FloatOGT
	FloatOGE
	FloatOLT
	FloatOLE
	FloatTrue
	FloatFalse
)

// StorageClass controls symbol visibility across the object boundary.
type StorageClass uint8

const (
	Public StorageClass = iota
	Private
)

// CallConv enumerates calling conventions.
type CallConv uint8

const (
	CallC CallConv = iota
	CallFast
	CallStd
	CallAuto
)

// FuncAttr is a bit set of function attributes.
type FuncAttr uint8

const (
	AttrInline FuncAttr = 1 << iota
	AttrNoReturn
	AttrNoNamespace
	AttrNoMangle
)

// GlobalAttr is a bit set of global-variable attributes.
type GlobalAttr uint8

const (
	AttrThreadLocal GlobalAttr = 1 << iota
)

// SourceLoc pins an instruction to its origin in the source text.
type SourceLoc struct {
	Line   int
	Column int
}

// Operand is anything an instruction may reference: a Value or a branch
// target BasicBlock.
type Operand interface {
	isOperand()
}

// Instruction is one MIR operation. Result is a Value of kind
// KindInstruction when the operation produces one, KindNull otherwise.
// Extra carries the comparison predicate or the volatile bit.
type Instruction struct {
	Op       OpCode
	Extra    uint8
	Operands []Operand
	Result   Value
	Loc      SourceLoc
}

// volatile bit in Extra for Load/Store
const volatileBit = 1

// Volatile reports whether a Load/Store is marked volatile.
func (i *Instruction) Volatile() bool { return i.Extra&volatileBit != 0 }

// SetVolatile marks a Load/Store volatile.
func (i *Instruction) SetVolatile() { i.Extra |= volatileBit }

// Block returns operand n as a branch target.
func (i *Instruction) Block(n int) *BasicBlock {
	bb, _ := i.Operands[n].(*BasicBlock)
	return bb
}

// Value returns operand n as a value.
func (i *Instruction) Value(n int) *Value {
	v, _ := i.Operands[n].(*Value)
	return v
}

// BasicBlock is a straight-line instruction sequence ending in exactly
// one terminator once construction is finished.
type BasicBlock struct {
	Name   string
	Parent *Function
	Insns  []*Instruction

	scope Scope
}

func (*BasicBlock) isOperand() {}

// Terminator returns the block's terminator, or nil while the block is
// still under construction.
func (b *BasicBlock) Terminator() *Instruction {
	if n := len(b.Insns); n > 0 && b.Insns[n-1].Op.IsTerminator() {
		return b.Insns[n-1]
	}
	return nil
}

// Function is a MIR function: an ordered block list whose first block is
// the entry, plus the parameter values bound by calls.
type Function struct {
	Value

	Storage StorageClass
	CC      CallConv
	Attrs   FuncAttr
	Params  []*Value
	Blocks  []*BasicBlock
	Parent  *Module

	scope Scope
}

// HasAttr reports whether attr is set.
func (f *Function) HasAttr(attr FuncAttr) bool { return f.Attrs&attr != 0 }

// Signature returns the function's type.
func (f *Function) Signature() *types.Type { return f.Type }

// AppendBlock creates a block at the end of the function. The name is
// deduplicated within the function's scope.
func (f *Function) AppendBlock(name string) *BasicBlock {
	bb := &BasicBlock{Name: f.scope.Add(name), Parent: f}
	f.Blocks = append(f.Blocks, bb)
	return bb
}

// Entry returns the function's entry block, or nil for a declaration.
func (f *Function) Entry() *BasicBlock {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// Global is a module-level variable. Its Value type is a pointer to the
// stored type; the initializer, when present, must be a constant.
type Global struct {
	Value

	Storage StorageClass
	Attrs   GlobalAttr
	// Stored is the pointee type; the global's own type is Pointer(Stored).
	Stored *types.Type
	Init   *Value
}

// HasAttr reports whether attr is set.
func (g *Global) HasAttr(attr GlobalAttr) bool { return g.Attrs&attr != 0 }

// Entry is a top-level module member: a *Function or a *Global.
type Entry interface {
	isEntry()
}

func (*Function) isEntry() {}
func (*Global) isEntry()   {}

// DataLayout describes the target's byte order and the widest native
// integer width in bytes.
type DataLayout struct {
	BigEndian      bool
	MaxNativeBytes uint8
}

// Module is one compilation unit: a target description and an ordered
// sequence of functions and globals. It owns everything reachable from
// its entries.
type Module struct {
	Source     string
	Triple     string
	DataLayout DataLayout
	Entries    []Entry

	ctx   *Context
	scope Scope
}

// NewModule creates an empty module allocated against ctx.
func NewModule(source string, ctx *Context) *Module {
	return &Module{Source: source, ctx: ctx}
}

// Ctx returns the context the module allocates against.
func (m *Module) Ctx() *Context { return m.ctx }

// AddFunction appends a function of the given type. The name is
// deduplicated within the module.
func (m *Module) AddFunction(name string, ftype *types.Type) *Function {
	f := &Function{
		Value:  Value{Kind: KindFunction, Type: ftype, Name: m.scope.Add(name)},
		Parent: m,
	}
	f.Fn = f
	for i, pt := range ftype.Params {
		f.Params = append(f.Params, &Value{Kind: KindParameter, Type: pt, Name: f.scope.Add(paramName(i))})
	}
	m.Entries = append(m.Entries, f)
	return f
}

func paramName(i int) string {
	return "arg" + strconv.Itoa(i)
}

// AddGlobal appends a global holding t, optionally initialized.
func (m *Module) AddGlobal(name string, t *types.Type, init *Value) *Global {
	g := &Global{
		Value:  Value{Kind: KindGlobal, Type: m.ctx.Types.Pointer(t, false), Name: m.scope.Add(name)},
		Stored: t,
		Init:   init,
	}
	g.Global = g
	m.Entries = append(m.Entries, g)
	return g
}

// NamedFunction finds a function by name, or nil.
func (m *Module) NamedFunction(name string) *Function {
	for _, e := range m.Entries {
		if f, ok := e.(*Function); ok && f.Name == name {
			return f
		}
	}
	return nil
}

// NamedGlobal finds a global by name, or nil.
func (m *Module) NamedGlobal(name string) *Global {
	for _, e := range m.Entries {
		if g, ok := e.(*Global); ok && g.Name == name {
			return g
		}
	}
	return nil
}
