package sema

import (
	"github.com/itealang/itea/errors"
	"github.com/itealang/itea/frontend/ast"
	"github.com/itealang/itea/frontend/token"
	"github.com/itealang/itea/types"
)

var binOpNames = map[token.Kind]string{
	token.Add: "+", token.Sub: "-", token.Star: "*", token.Div: "/",
	token.Eq: "==", token.Neq: "!=", token.Lt: "<", token.Gt: ">",
	token.Le: "<=", token.Ge: ">=",
	token.And: "&&", token.Or: "||",
	token.Amp: "&", token.BOr: "|", token.BXor: "^",
	token.Shl: "<<", token.Shr: ">>",
}

// visitExpr type-checks one expression, annotates the node and returns
// the resolved type. A nil return means the expression did not resolve;
// an error has already been collected.
func (a *Analyzer) visitExpr(e ast.Expr) *types.Type {
	var t *types.Type

	switch node := e.(type) {
	case *ast.Literal:
		t = a.visitLiteral(node)

	case *ast.Call:
		t = a.visitCall(node)

	case *ast.Binary:
		t = a.visitBinary(node)

	case *ast.Unary:
		t = a.visitUnary(node)

	case *ast.Index:
		base := a.visitExpr(node.Base)
		idx := a.visitExpr(node.Idx)
		if base != nil && !base.IsIndexable() {
			a.errs.Add(errors.OperatorNotApplicable(a.fnName(), "[]", base.String(), node.Pos().Line, node.Pos().Column))
		} else if base != nil {
			t = base.Element()
		}
		if idx != nil && !idx.IsNumeric() {
			a.errs.Add(errors.OperatorNotApplicable(a.fnName(), "[]", idx.String(), node.Pos().Line, node.Pos().Column))
		}

	case *ast.ArrayLit:
		var elem *types.Type
		for _, el := range node.Elems {
			et := a.visitExpr(el)
			if et == nil {
				continue
			}
			if elem == nil {
				elem = et
			} else if et != elem {
				a.errs.Add(errors.New(errors.PhaseSema, errors.KindTypeMismatch).
					Func(a.fnName()).
					Detail("array literal element type mismatch: '%s' vs '%s'", elem, et).
					At(node.Pos().Line, node.Pos().Column).Build())
			}
		}
		if elem != nil {
			t = a.tctx.Array(elem, uint32(len(node.Elems)), false)
		}
	}

	if t != nil {
		e.SetType(t)
	}
	return t
}

func (a *Analyzer) visitLiteral(node *ast.Literal) *types.Type {
	switch node.Kind {
	case ast.LitString:
		return a.tctx.Str()
	case ast.LitChar:
		return a.tctx.Char()
	case ast.LitInt:
		return a.tctx.Int()
	case ast.LitFloat:
		return a.tctx.Float()
	case ast.LitDouble:
		return a.tctx.Double()
	}

	// Identifier.
	switch node.Value {
	case "true", "false":
		return a.tctx.Bool()
	case "null":
		return a.tctx.Pointer(a.tctx.Void(), false)
	}

	if sym := a.lookup(node.Value); sym != nil {
		return sym.Type
	}
	a.errs.Add(errors.UndefinedSymbol(a.fnName(), node.Value, node.Pos().Line, node.Pos().Column))
	return nil
}

func (a *Analyzer) visitCall(node *ast.Call) *types.Type {
	calleeType := a.visitExpr(node.Callee)
	if calleeType == nil {
		// still check the arguments for their own errors
		for _, arg := range node.Args {
			a.visitExpr(arg)
		}
		return nil
	}

	ftype := calleeType
	if ftype.Kind == types.Pointer && ftype.Elem.Kind == types.Function {
		ftype = ftype.Elem
	}
	if ftype.Kind != types.Function {
		a.errs.Add(errors.NotCallable(a.fnName(), calleeType.String(), node.Pos().Line, node.Pos().Column))
		return nil
	}

	if len(node.Args) < len(ftype.Params) || (len(node.Args) > len(ftype.Params) && !ftype.Vararg) {
		a.errs.Add(errors.ArgCount(a.fnName(), len(ftype.Params), len(node.Args), node.Pos().Line, node.Pos().Column))
	}

	for i, arg := range node.Args {
		argType := a.visitExpr(arg)
		if argType == nil || i >= len(ftype.Params) {
			continue
		}
		if !argType.Compatible(ftype.Params[i]) {
			a.errs.Add(errors.ArgMismatch(a.fnName(), i, ftype.Params[i].String(), argType.String(), node.Pos().Line, node.Pos().Column))
		}
	}

	return ftype.Return
}

func (a *Analyzer) visitBinary(node *ast.Binary) *types.Type {
	lhs := a.visitExpr(node.LHS)
	rhs := a.visitExpr(node.RHS)
	if lhs == nil || rhs == nil {
		return nil
	}
	op := binOpNames[node.Op]

	switch node.Op {
	case token.Add, token.Sub, token.Star, token.Div:
		if lhs != rhs {
			a.errs.Add(errors.OperatorMismatch(a.fnName(), op, lhs.String(), rhs.String(), node.Pos().Line, node.Pos().Column))
			return nil
		}
		if !lhs.IsNumeric() && !lhs.IsFloat() {
			a.errs.Add(errors.New(errors.PhaseSema, errors.KindTypeMismatch).
				Func(a.fnName()).
				Detail("operator '%s' cannot be applied to non-numeric type '%s'", op, lhs).
				At(node.Pos().Line, node.Pos().Column).Build())
			return nil
		}
		return lhs

	case token.Eq, token.Neq, token.Lt, token.Gt, token.Le, token.Ge:
		if lhs != rhs {
			a.errs.Add(errors.OperatorMismatch(a.fnName(), op, lhs.String(), rhs.String(), node.Pos().Line, node.Pos().Column))
			return nil
		}
		if !lhs.IsNumeric() && !lhs.IsFloat() && lhs.Kind != types.String && lhs.Kind != types.Pointer {
			a.errs.Add(errors.OperatorNotApplicable(a.fnName(), op, lhs.String(), node.Pos().Line, node.Pos().Column))
			return nil
		}
		return a.tctx.Bool()

	case token.And, token.Or:
		for _, side := range []*types.Type{lhs, rhs} {
			if !side.IsNumeric() && !side.IsFloat() && side.Kind != types.Pointer {
				a.errs.Add(errors.OperatorNotApplicable(a.fnName(), op, side.String(), node.Pos().Line, node.Pos().Column))
				return nil
			}
		}
		return a.tctx.Bool()

	case token.Amp, token.BOr, token.BXor, token.Shl, token.Shr:
		if lhs != rhs {
			a.errs.Add(errors.OperatorMismatch(a.fnName(), op, lhs.String(), rhs.String(), node.Pos().Line, node.Pos().Column))
			return nil
		}
		if !lhs.IsNumeric() {
			a.errs.Add(errors.OperatorNotApplicable(a.fnName(), op, lhs.String(), node.Pos().Line, node.Pos().Column))
			return nil
		}
		return lhs
	}

	a.errs.Add(errors.OperatorNotApplicable(a.fnName(), node.Op.String(), lhs.String(), node.Pos().Line, node.Pos().Column))
	return nil
}

func (a *Analyzer) visitUnary(node *ast.Unary) *types.Type {
	x := a.visitExpr(node.X)
	if x == nil {
		return nil
	}

	switch node.Op {
	case token.Not:
		return a.tctx.Bool()

	case token.Amp:
		return a.tctx.Pointer(x, false)

	case token.Star:
		if x.Kind != types.Pointer {
			a.errs.Add(errors.OperatorNotApplicable(a.fnName(), "*", x.String(), node.Pos().Line, node.Pos().Column))
			return nil
		}
		return x.Elem

	case token.Tilde:
		if !x.IsNumeric() {
			a.errs.Add(errors.OperatorNotApplicable(a.fnName(), "~", x.String(), node.Pos().Line, node.Pos().Column))
			return nil
		}
		return x
	}
	return nil
}
