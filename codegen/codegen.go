package codegen

import (
	"go.uber.org/zap"

	"github.com/itealang/itea/diag"
	"github.com/itealang/itea/frontend/ast"
	"github.com/itealang/itea/mir"
	"github.com/itealang/itea/types"
)

// Options configure the emitted module's target description.
type Options struct {
	Triple      string
	DataLayout  mir.DataLayout
	IncludeDirs []string
}

// local tracks one stack-allocated variable: its entry-block slot and a
// per-block cached load of its current value.
type local struct {
	slot      *mir.Value
	load      *mir.Value
	loadBlock *mir.BasicBlock
}

// Generator lowers a type-annotated AST into a MIR module.
type Generator struct {
	ctx    *mir.Context
	b      *mir.Builder
	module *mir.Module

	fn     *ast.Function
	mirFn  *mir.Function
	locals map[string]*local

	contTarget  *mir.BasicBlock
	breakTarget *mir.BasicBlock

	// moduleName -> unprefixed name -> imported function
	modules map[string]map[string]*mir.Function
	include []string
}

// New creates a generator allocating against ctx.
func New(ctx *mir.Context) *Generator {
	return &Generator{
		ctx:     ctx,
		b:       mir.NewBuilder(ctx),
		modules: make(map[string]map[string]*mir.Function),
	}
}

func convCC(cc ast.CallConv) mir.CallConv {
	switch cc {
	case ast.CallFast:
		return mir.CallFast
	case ast.CallStd:
		return mir.CallStd
	case ast.CallAuto:
		return mir.CallAuto
	}
	return mir.CallC
}

// Emit lowers the whole tree and returns the finished module.
func (g *Generator) Emit(tree []ast.Node, opts Options) *mir.Module {
	if g.module != nil || g.b.InsertBlock() != nil {
		diag.Fatalf("cannot generate MIR while active")
	}

	g.module = mir.NewModule("[module]", g.ctx)
	g.module.Triple = opts.Triple
	g.module.DataLayout = opts.DataLayout
	g.include = opts.IncludeDirs

	for _, n := range tree {
		switch node := n.(type) {
		case *ast.Function:
			g.emitFunction(node)

		case *ast.FunctionImport:
			g.emitFunctionImport(node)

		case *ast.ModuleImport:
			g.emitModuleImport(node)

		case *ast.GlobalVariable:
			g.emitGlobalVariable(node)

		default:
			diag.Fatalf("unknown root statement. line %d, column %d", n.Pos().Line, n.Pos().Column)
		}
	}

	m := g.module
	g.module = nil
	return m
}

func (g *Generator) emitFunction(node *ast.Function) {
	ftype := g.funcType(node.ReturnType, node.Params, node.Vararg)

	f := g.module.AddFunction(node.Name, ftype)
	f.Storage = mir.StorageClass(node.Vis)
	f.CC = convCC(node.CC)
	f.Attrs = mir.FuncAttr(node.Attrs)
	for i, p := range node.Params {
		f.Params[i].Name = p.Name
	}

	logger().Debug("lowering function", zap.String("name", node.Name))

	g.fn = node
	g.mirFn = f
	g.locals = make(map[string]*local)
	g.b.InsertInto(f.AppendBlock("entry"))

	// Stack slots for every local declared anywhere in the body are
	// raised into the entry block; initializers run in place.
	for _, v := range collectVars(node.Body) {
		g.locals[v.Name] = &local{
			slot: g.b.Alloca(v.Type, v.Name+".addr"),
		}
	}

	g.emitBlock(node.Body)

	if g.b.InsertBlock().Terminator() == nil {
		if node.ReturnType.Kind != types.Void {
			diag.Fatalf("control reaches end of non-void function '%s'. line %d, column %d",
				node.Name, node.Pos().Line, node.Pos().Column)
		}
		if f.HasAttr(mir.AttrNoReturn) {
			g.b.UnreachableOp()
		} else {
			g.b.Ret(nil)
		}
	}

	g.fn = nil
	g.mirFn = nil
	g.locals = nil
	g.b.InsertInto(nil)
}

// collectVars gathers every local declaration in a body, including
// loop headers and nested arms.
func collectVars(body []ast.Node) []*ast.Variable {
	var out []*ast.Variable
	for _, n := range body {
		switch node := n.(type) {
		case *ast.Variable:
			out = append(out, node)
		case *ast.If:
			out = append(out, collectVars(node.Body)...)
			for arm := node.ElseIf; arm != nil; arm = arm.Next {
				out = append(out, collectVars(arm.Body)...)
			}
			if node.Otherwise != nil {
				out = append(out, collectVars(node.Otherwise.Body)...)
			}
		case *ast.While:
			out = append(out, collectVars(node.Body)...)
		case *ast.For:
			if node.Var != nil {
				out = append(out, node.Var)
			}
			out = append(out, collectVars(node.Body)...)
		}
	}
	return out
}

func (g *Generator) funcType(ret *types.Type, params []ast.Param, vararg bool) *types.Type {
	pts := make([]*types.Type, len(params))
	for i, p := range params {
		pts[i] = p.Type
	}
	return g.ctx.Types.Function(ret, pts, vararg)
}

func (g *Generator) emitGlobalVariable(node *ast.GlobalVariable) {
	var init *mir.Value
	if node.Init != nil {
		init = g.emitConstant(node.Init)
	}

	var gbl *mir.Global
	if init != nil && init.IsConstant(mir.ConstString) {
		gbl = g.module.AddGlobal(node.Name, init.Type, init)
	} else {
		gbl = g.module.AddGlobal(node.Name, node.Type, init)
	}
	gbl.Storage = mir.StorageClass(node.Vis)
	gbl.Attrs = mir.GlobalAttr(node.Attrs)
}

// emitConstant folds a global initializer into a constant value.
func (g *Generator) emitConstant(e ast.Expr) *mir.Value {
	switch node := e.(type) {
	case *ast.Literal:
		switch node.Kind {
		case ast.LitString:
			return g.ctx.String(node.Value)
		case ast.LitChar:
			return g.ctx.Number(uint64(node.Value[0]), 8, true)
		case ast.LitInt:
			return g.ctx.Number(parseInt(node.Value), 32, true)
		case ast.LitFloat:
			return g.ctx.Real(parseFloat(node.Value), 32)
		case ast.LitDouble:
			return g.ctx.Real(parseFloat(node.Value), 64)
		case ast.LitIdent:
			switch node.Value {
			case "true":
				return g.ctx.True()
			case "false":
				return g.ctx.False()
			case "null":
				return g.ctx.Null()
			}
		}

	case *ast.ArrayLit:
		elems := make([]*mir.Value, len(node.Elems))
		for i, el := range node.Elems {
			elems[i] = g.emitConstant(el)
		}
		if len(elems) == 0 {
			diag.Fatalf("empty array initializer. line %d, column %d", node.Pos().Line, node.Pos().Column)
		}
		return g.ctx.Array(elems[0].Type, elems)
	}

	diag.Fatalf("global initializer must be constant. line %d, column %d", e.Pos().Line, e.Pos().Column)
	return nil
}
