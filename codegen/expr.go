package codegen

import (
	"strconv"
	"strings"

	"github.com/itealang/itea/diag"
	"github.com/itealang/itea/frontend/ast"
	"github.com/itealang/itea/frontend/token"
	"github.com/itealang/itea/mir"
	"github.com/itealang/itea/types"
)

func parseInt(text string) uint64 {
	neg := strings.HasPrefix(text, "-")
	body := strings.TrimPrefix(text, "-")

	var v uint64
	var err error
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		v, err = strconv.ParseUint(body[2:], 16, 64)
	} else {
		v, err = strconv.ParseUint(body, 10, 64)
	}
	if err != nil {
		diag.Fatalf("malformed integer literal '%s'", text)
	}
	if neg {
		return uint64(-int64(v))
	}
	return v
}

func parseFloat(text string) float64 {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		diag.Fatalf("malformed float literal '%s'", text)
	}
	return v
}

func (g *Generator) emitExpr(e ast.Expr) *mir.Value {
	switch node := e.(type) {
	case *ast.Literal:
		return g.emitLiteral(node)

	case *ast.Call:
		callee := g.emitExpr(node.Callee)
		args := make([]*mir.Value, len(node.Args))
		for i, arg := range node.Args {
			args[i] = g.emitExpr(arg)
		}
		return g.b.CallOp(callee, args, "")

	case *ast.Binary:
		return g.emitBinary(node)

	case *ast.Unary:
		return g.emitUnary(node)

	case *ast.Index:
		ptr := g.emitAddress(node)
		return g.b.Load(ptr, "")

	case *ast.ArrayLit:
		return g.emitConstant(node)
	}

	diag.Fatalf("unknown expression kind. line %d, column %d", e.Pos().Line, e.Pos().Column)
	return nil
}

func (g *Generator) emitLiteral(node *ast.Literal) *mir.Value {
	switch node.Kind {
	case ast.LitString:
		// escapes were already resolved by the lexer
		return g.b.GlobalString(node.Value)

	case ast.LitChar:
		return g.ctx.Number(uint64(node.Value[0]), 8, true)

	case ast.LitInt:
		signed := true
		if node.Type() != nil {
			signed = node.Type().Signed
		}
		return g.ctx.Number(parseInt(node.Value), 32, signed)

	case ast.LitFloat:
		return g.ctx.Real(parseFloat(node.Value), 32)

	case ast.LitDouble:
		return g.ctx.Real(parseFloat(node.Value), 64)
	}

	return g.emitIdent(node)
}

func (g *Generator) emitIdent(node *ast.Literal) *mir.Value {
	name := node.Value

	if strings.Contains(name, "::") {
		parts := strings.Split(name, "::")
		if len(parts) > 2 {
			diag.Fatalf("deep scopes are not yet implemented. line %d, column %d", node.Pos().Line, node.Pos().Column)
		}
		mod, ok := g.modules[parts[0]]
		if !ok {
			diag.Fatalf("'%s' does not reference a valid scope. line %d, column %d", parts[0], node.Pos().Line, node.Pos().Column)
		}
		f, ok := mod[parts[1]]
		if !ok {
			diag.Fatalf("'%s' is not a valid member of module '%s'. line %d, column %d",
				parts[1], parts[0], node.Pos().Line, node.Pos().Column)
		}
		return &f.Value
	}

	switch name {
	case "true":
		return g.ctx.True()
	case "false":
		return g.ctx.False()
	case "null":
		return g.ctx.Null()
	}

	if gbl := g.module.NamedGlobal(name); gbl != nil {
		return g.b.Load(&gbl.Value, "")
	}
	if f := g.module.NamedFunction(name); f != nil {
		return &f.Value
	}
	if g.fn != nil {
		for i, p := range g.fn.Params {
			if p.Name == name {
				return g.mirFn.Params[i]
			}
		}
	}
	if lc := g.locals[name]; lc != nil {
		if lc.load == nil || lc.loadBlock != g.b.InsertBlock() {
			lc.load = g.b.Load(lc.slot, name)
			lc.loadBlock = g.b.InsertBlock()
		}
		return lc.load
	}

	diag.Fatalf("use of undefined symbol '%s'. line %d, column %d", name, node.Pos().Line, node.Pos().Column)
	return nil
}

var arithOps = map[token.Kind]mir.OpCode{
	token.Add:  mir.Add,
	token.Sub:  mir.Sub,
	token.Star: mir.Mul,
	token.Div:  mir.Div,
}

var bitOps = map[token.Kind]mir.OpCode{
	token.Amp:  mir.And,
	token.BOr:  mir.Or,
	token.BXor: mir.Xor,
	token.Shl:  mir.Shl,
	token.Shr:  mir.Shr,
}

var icmpOps = map[token.Kind][2]mir.ICmpPredicate{
	token.Eq:  {mir.IntEQ, mir.IntEQ},
	token.Neq: {mir.IntNEQ, mir.IntNEQ},
	token.Lt:  {mir.IntSLT, mir.IntULT},
	token.Gt:  {mir.IntSGT, mir.IntUGT},
	token.Le:  {mir.IntSLE, mir.IntULE},
	token.Ge:  {mir.IntSGE, mir.IntUGE},
}

var fcmpOps = map[token.Kind]mir.FCmpPredicate{
	token.Eq:  mir.FloatOEQ,
	token.Neq: mir.FloatONEQ,
	token.Lt:  mir.FloatOLT,
	token.Gt:  mir.FloatOGT,
	token.Le:  mir.FloatOLE,
	token.Ge:  mir.FloatOGE,
}

func (g *Generator) emitBinary(node *ast.Binary) *mir.Value {
	lhs := g.emitExpr(node.LHS)
	rhs := g.emitExpr(node.RHS)

	if op, ok := arithOps[node.Op]; ok {
		return g.b.Arith(op, lhs, rhs, "")
	}
	if op, ok := bitOps[node.Op]; ok {
		return g.b.BinOp(op, lhs, rhs, "")
	}
	if preds, ok := icmpOps[node.Op]; ok {
		if lhs.Type.IsFloat() {
			return g.b.FCmpOp(fcmpOps[node.Op], lhs, rhs, "")
		}
		if lhs.Type.Signed {
			return g.b.ICmpOp(preds[0], lhs, rhs, "")
		}
		return g.b.ICmpOp(preds[1], lhs, rhs, "")
	}

	switch node.Op {
	case token.And:
		return g.b.BinOp(mir.And, g.expr2bool(lhs), g.expr2bool(rhs), "")
	case token.Or:
		return g.b.BinOp(mir.Or, g.expr2bool(lhs), g.expr2bool(rhs), "")
	}

	diag.Fatalf("unknown binary operator. line %d, column %d", node.Pos().Line, node.Pos().Column)
	return nil
}

func (g *Generator) emitUnary(node *ast.Unary) *mir.Value {
	switch node.Op {
	case token.Not:
		return g.b.BinOp(mir.Not, g.expr2bool(g.emitExpr(node.X)), nil, "")

	case token.Tilde:
		return g.b.BinOp(mir.Not, g.emitExpr(node.X), nil, "")

	case token.Amp:
		return g.emitAddress(node.X)

	case token.Star:
		return g.b.Load(g.emitExpr(node.X), "")
	}

	diag.Fatalf("unknown unary operator. line %d, column %d", node.Pos().Line, node.Pos().Column)
	return nil
}

// emitAddress lowers an lvalue expression to the pointer it denotes.
func (g *Generator) emitAddress(e ast.Expr) *mir.Value {
	switch node := e.(type) {
	case *ast.Literal:
		if node.Kind != ast.LitIdent {
			break
		}
		if lc := g.locals[node.Value]; lc != nil {
			return lc.slot
		}
		if gbl := g.module.NamedGlobal(node.Value); gbl != nil {
			return &gbl.Value
		}

	case *ast.Unary:
		if node.Op == token.Star {
			return g.emitExpr(node.X)
		}

	case *ast.Index:
		base := g.emitAddressOrValue(node.Base)
		idx := g.emitExpr(node.Idx)
		// Indexing a stack or global array goes through the leading zero
		// index; a raw pointer steps directly.
		if base.Type.Kind == types.Pointer && base.Type.Elem.Kind == types.Array {
			zero := g.ctx.Number(0, 32, true)
			return g.b.GEP(base, []*mir.Value{zero, idx}, "")
		}
		return g.b.GEP(base, []*mir.Value{idx}, "")
	}

	diag.Fatalf("expression is not addressable. line %d, column %d", e.Pos().Line, e.Pos().Column)
	return nil
}

// emitAddressOrValue prefers the address of an lvalue but falls back to
// the value for pointer-typed expressions (p[i] through a pointer).
func (g *Generator) emitAddressOrValue(e ast.Expr) *mir.Value {
	if lit, ok := e.(*ast.Literal); ok && lit.Kind == ast.LitIdent {
		if lc := g.locals[lit.Value]; lc != nil {
			if lc.slot.Type.Elem.Kind == types.Pointer {
				return g.emitExpr(e)
			}
			return lc.slot
		}
	}
	return g.emitExpr(e)
}

// expr2bool coerces a value to Bool by comparing it against the zero of
// its type: integers and pointers with an integer compare, floats with
// an ordered float compare.
func (g *Generator) expr2bool(v *mir.Value) *mir.Value {
	t := v.Type
	if t.Kind == types.Bool {
		return v
	}

	if t.IsFloat() {
		zero := g.ctx.Real(0, t.Bits())
		return g.b.FCmpOp(mir.FloatONEQ, v, zero, "")
	}
	if t.Kind == types.Pointer {
		return g.b.ICmpOp(mir.IntNEQ, v, g.ctx.Pointer(t.Elem, 0), "")
	}
	zero := g.ctx.Number(0, t.Bits(), t.Signed)
	return g.b.ICmpOp(mir.IntNEQ, v, zero, "")
}
