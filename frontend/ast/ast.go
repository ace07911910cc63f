package ast

import (
	"github.com/itealang/itea/frontend/token"
	"github.com/itealang/itea/types"
)

// StorageClass controls symbol visibility.
type StorageClass uint8

const (
	Public StorageClass = iota
	Private
)

// CallConv enumerates calling conventions a declaration may request.
type CallConv uint8

const (
	CallC CallConv = iota
	CallFast
	CallStd
	CallAuto
)

// FuncAttr is a bit set of function attributes (@inline etc.).
type FuncAttr uint8

const (
	AttrInline FuncAttr = 1 << iota
	AttrNoReturn
	AttrNoNamespace
	AttrNoMangle
)

// GlobalAttr is a bit set of global attributes (@threadlocal).
type GlobalAttr uint8

const (
	AttrThreadLocal GlobalAttr = 1 << iota
)

// Pos is the source coordinate every node carries in its Loc field; each
// node type returns it from its own Pos method.
type Pos struct {
	Line   int
	Column int
}

// Pos returns the node's source coordinate.
func (p Pos) Pos() Pos { return p }

// Node is any statement or declaration.
type Node interface {
	Pos() Pos
}

// Expr is any expression node. Sema annotates each with its resolved
// type; Type returns nil until then.
type Expr interface {
	Node
	Type() *types.Type
	SetType(*types.Type)
}

// ExprBase carries the position and the type annotation Sema fills in.
type ExprBase struct {
	Loc Pos
	Typ *types.Type
}

func (e *ExprBase) Pos() Pos              { return e.Loc }
func (e *ExprBase) Type() *types.Type     { return e.Typ }
func (e *ExprBase) SetType(t *types.Type) { e.Typ = t }

// LitKind discriminates literal expressions.
type LitKind uint8

const (
	LitString LitKind = iota
	LitChar
	LitInt
	LitFloat
	LitDouble
	LitIdent
)

// Literal is a leaf expression: a constant or an identifier (possibly
// scoped, e.g. io::puts).
type Literal struct {
	ExprBase
	Kind  LitKind
	Value string
}

// Binary is a binary operator expression; Op is the operator token kind.
type Binary struct {
	ExprBase
	Op  token.Kind
	LHS Expr
	RHS Expr
}

// Unary is !x, &x, *x or ~x.
type Unary struct {
	ExprBase
	Op token.Kind
	X  Expr
}

// Call is callee(args...).
type Call struct {
	ExprBase
	Callee Expr
	Args   []Expr
}

// Index is base[idx].
type Index struct {
	ExprBase
	Base Expr
	Idx  Expr
}

// ArrayLit is [e, e, ...].
type ArrayLit struct {
	ExprBase
	Elems []Expr
}

// Param is one function parameter.
type Param struct {
	Type *types.Type
	Name string
}

// Function is a full function definition.
type Function struct {
	Loc        Pos
	Vis        StorageClass
	CC         CallConv
	Attrs      FuncAttr
	Vararg     bool
	Name       string
	Params     []Param
	ReturnType *types.Type
	Body       []Node
}

func (x *Function) Pos() Pos { return x.Loc }

// FunctionImport declares an externally provided function.
type FunctionImport struct {
	Loc        Pos
	CC         CallConv
	Attrs      FuncAttr
	Vararg     bool
	Name       string
	Params     []Param
	ReturnType *types.Type
}

func (x *FunctionImport) Pos() Pos { return x.Loc }

// ModuleImport is `using "path";`.
type ModuleImport struct {
	Loc  Pos
	Path string
}

func (x *ModuleImport) Pos() Pos { return x.Loc }

// Variable is a local `var name [: type] [= init];`.
type Variable struct {
	Loc  Pos
	Name string
	Type *types.Type
	Init Expr
}

func (x *Variable) Pos() Pos { return x.Loc }

// GlobalVariable is a root-level `public|private var name: type [= init];`.
type GlobalVariable struct {
	Loc   Pos
	Vis   StorageClass
	Attrs GlobalAttr
	Name  string
	Type  *types.Type
	Init  Expr
}

func (x *GlobalVariable) Pos() Pos { return x.Loc }

// Return is `return [expr];`.
type Return struct {
	Loc   Pos
	Value Expr
}

func (x *Return) Pos() Pos { return x.Loc }

// ElseIf chains an elseif arm; Next forms the arm list.
type ElseIf struct {
	Loc  Pos
	Pred Expr
	Body []Node
	Next *ElseIf
}

func (x *ElseIf) Pos() Pos { return x.Loc }

// Else is the final arm of an if.
type Else struct {
	Loc  Pos
	Body []Node
}

func (x *Else) Pos() Pos { return x.Loc }

// If is the full conditional construct.
type If struct {
	Loc       Pos
	Pred      Expr
	Body      []Node
	ElseIf    *ElseIf
	Otherwise *Else
}

func (x *If) Pos() Pos { return x.Loc }

// While is `while e do ... end`.
type While struct {
	Loc  Pos
	Pred Expr
	Body []Node
}

func (x *While) Pos() Pos { return x.Loc }

// For is `for (var ...; pred; step) do ... end`.
type For struct {
	Loc  Pos
	Var  *Variable
	Pred Expr
	Step Node
	Body []Node
}

func (x *For) Pos() Pos { return x.Loc }

// Break interrupts the innermost loop.
type Break struct{ Loc Pos }

// Continue resumes the innermost loop at its predicate; in a for loop the
// step clause runs first.
type Continue struct{ Loc Pos }

// ExprStat is an expression in statement position.
type ExprStat struct {
	Loc Pos
	X   Expr
}

func (x *ExprStat) Pos() Pos { return x.Loc }

func (x *Continue) Pos() Pos { return x.Loc }

func (x *Break) Pos() Pos { return x.Loc }

// Assign is `lhs [op]= rhs;`; Op is zero for plain assignment, else the
// arithmetic token (+, -, *, /).
type Assign struct {
	Loc Pos
	Op  token.Kind
	LHS Expr
	RHS Expr
}

func (x *Assign) Pos() Pos { return x.Loc }
