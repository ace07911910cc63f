package codegen

import (
	"github.com/itealang/itea/diag"
	"github.com/itealang/itea/frontend/ast"
	"github.com/itealang/itea/frontend/token"
	"github.com/itealang/itea/mir"
	"github.com/itealang/itea/types"
)

func (g *Generator) emitBlock(body []ast.Node) {
	for _, n := range body {
		g.emitStat(n)
	}
}

func (g *Generator) emitStat(n ast.Node) {
	g.b.SetLoc(n.Pos().Line, n.Pos().Column)

	switch node := n.(type) {
	case *ast.Return:
		if node.Value == nil {
			g.b.Ret(nil)
			return
		}
		val := g.emitExpr(node.Value)
		if val == nil || val.Kind == mir.KindNull {
			g.b.Ret(nil)
			return
		}
		g.b.Ret(val)

	case *ast.ExprStat:
		g.emitExpr(node.X)

	case *ast.Variable:
		g.emitVariable(node)

	case *ast.Assign:
		g.emitAssign(node)

	case *ast.If:
		g.emitIf(node)

	case *ast.While:
		g.emitWhile(node)

	case *ast.For:
		g.emitFor(node)

	case *ast.Break:
		if g.breakTarget == nil {
			diag.Fatalf("break outside of a loop. line %d, column %d", node.Pos().Line, node.Pos().Column)
		}
		g.b.Br(g.breakTarget)

	case *ast.Continue:
		if g.contTarget == nil {
			diag.Fatalf("continue outside of a loop. line %d, column %d", node.Pos().Line, node.Pos().Column)
		}
		g.b.Br(g.contTarget)

	default:
		diag.Fatalf("unknown statement. line %d, column %d", n.Pos().Line, n.Pos().Column)
	}
}

// emitVariable stores a local's initializer into its hoisted entry slot.
func (g *Generator) emitVariable(node *ast.Variable) {
	lc := g.locals[node.Name]
	if lc == nil {
		diag.Fatalf("use of undefined symbol '%s'. line %d, column %d", node.Name, node.Pos().Line, node.Pos().Column)
	}
	lc.load = nil
	if node.Init != nil {
		g.b.Store(lc.slot, g.emitExpr(node.Init))
	}
}

func (g *Generator) emitAssign(node *ast.Assign) {
	ptr := g.emitAddress(node.LHS)
	if ptr.Type.Kind != types.Pointer || ptr.Type.Elem.Const {
		diag.Fatalf("cannot assign to a value of type '%s'. line %d, column %d",
			ptr.Type.Elem, node.Pos().Line, node.Pos().Column)
	}

	rhs := g.emitExpr(node.RHS)

	if node.Op != 0 {
		cur := g.b.Load(ptr, "")
		var op mir.OpCode
		switch node.Op {
		case token.Add:
			op = mir.Add
		case token.Sub:
			op = mir.Sub
		case token.Star:
			op = mir.Mul
		case token.Div:
			op = mir.Div
		default:
			diag.Fatalf("invalid compound operator in assignment. line %d, column %d", node.Pos().Line, node.Pos().Column)
		}
		rhs = g.b.Arith(op, cur, rhs, "")
	}

	g.b.Store(ptr, rhs)

	// A store invalidates the cached load of the assigned local.
	if lit, ok := node.LHS.(*ast.Literal); ok && lit.Kind == ast.LitIdent {
		if lc := g.locals[lit.Value]; lc != nil {
			lc.load = nil
		}
	}
}

func (g *Generator) emitIf(node *ast.If) {
	f := g.mirFn
	merge := f.AppendBlock("if.merge")

	pred := g.expr2bool(g.emitExpr(node.Pred))
	then := f.AppendBlock("if.then")

	var falseTarget *mir.BasicBlock
	elseif := node.ElseIf
	switch {
	case elseif != nil:
		falseTarget = f.AppendBlock("if.elseif.cond")
	case node.Otherwise != nil:
		falseTarget = f.AppendBlock("if.else")
	default:
		falseTarget = merge
	}
	g.b.CondBr(pred, then, falseTarget)

	g.b.InsertInto(then)
	g.emitArm(node.Body, merge)

	cond := falseTarget
	for elseif != nil {
		g.b.InsertInto(cond)
		elifPred := g.expr2bool(g.emitExpr(elseif.Pred))
		elifThen := f.AppendBlock("if.elseif.then")

		switch {
		case elseif.Next != nil:
			cond = f.AppendBlock("if.elseif.cond")
		case node.Otherwise != nil:
			cond = f.AppendBlock("if.else")
		default:
			cond = merge
		}
		g.b.CondBr(elifPred, elifThen, cond)

		g.b.InsertInto(elifThen)
		g.emitArm(elseif.Body, merge)

		elseif = elseif.Next
	}

	if node.Otherwise != nil {
		g.b.InsertInto(cond)
		g.emitArm(node.Otherwise.Body, merge)
	}

	g.b.InsertInto(merge)
}

// emitArm lowers one conditional arm and closes it with a branch to
// merge unless the arm already terminated (a return inside the arm).
func (g *Generator) emitArm(body []ast.Node, merge *mir.BasicBlock) {
	g.invalidateLoads()
	g.emitBlock(body)
	if g.b.InsertBlock().Terminator() == nil {
		g.b.Br(merge)
	}
	g.invalidateLoads()
}

func (g *Generator) emitWhile(node *ast.While) {
	f := g.mirFn
	pred := f.AppendBlock("loop.pred")
	body := f.AppendBlock("loop.body")
	merge := f.AppendBlock("loop.merge")

	prevCont, prevBreak := g.contTarget, g.breakTarget
	g.contTarget, g.breakTarget = pred, merge

	g.b.Br(pred)
	g.b.InsertInto(pred)
	g.invalidateLoads()
	g.b.CondBr(g.expr2bool(g.emitExpr(node.Pred)), body, merge)

	g.b.InsertInto(body)
	g.invalidateLoads()
	g.emitBlock(node.Body)
	if g.b.InsertBlock().Terminator() == nil {
		g.b.Br(pred)
	}

	g.b.InsertInto(merge)
	g.invalidateLoads()

	g.contTarget, g.breakTarget = prevCont, prevBreak
}

// emitFor lowers a for loop with a dedicated loop.step block. The
// body's fallthrough and every continue, however deeply nested, branch
// to the step block, so the step always runs before control returns to
// the predicate.
func (g *Generator) emitFor(node *ast.For) {
	f := g.mirFn
	pred := f.AppendBlock("loop.pred")
	body := f.AppendBlock("loop.body")
	step := f.AppendBlock("loop.step")
	merge := f.AppendBlock("loop.merge")

	prevCont, prevBreak := g.contTarget, g.breakTarget
	g.contTarget, g.breakTarget = step, merge

	g.emitVariable(node.Var)

	g.b.Br(pred)
	g.b.InsertInto(pred)
	g.invalidateLoads()
	if node.Pred != nil {
		g.b.CondBr(g.expr2bool(g.emitExpr(node.Pred)), body, merge)
	} else {
		g.b.Br(body)
	}

	g.b.InsertInto(body)
	g.invalidateLoads()
	g.emitBlock(node.Body)
	if g.b.InsertBlock().Terminator() == nil {
		g.b.Br(step)
	}

	g.b.InsertInto(step)
	g.invalidateLoads()
	if node.Step != nil {
		g.emitStat(node.Step)
	}
	g.b.Br(pred)

	g.b.InsertInto(merge)
	g.invalidateLoads()

	g.contTarget, g.breakTarget = prevCont, prevBreak
}

// invalidateLoads drops every cached local load; crossing a block
// boundary makes the cached values stale.
func (g *Generator) invalidateLoads() {
	for _, lc := range g.locals {
		lc.load = nil
	}
}
