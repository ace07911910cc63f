package sema

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/itealang/itea/diag"
	"github.com/itealang/itea/errors"
	"github.com/itealang/itea/frontend/ast"
	"github.com/itealang/itea/frontend/lexer"
	"github.com/itealang/itea/frontend/parser"
	"github.com/itealang/itea/frontend/token"
	"github.com/itealang/itea/types"
)

// Symbol is one resolved name.
type Symbol struct {
	Name        string
	Type        *types.Type
	Const       bool
	IsFunction  bool
	IsMember    bool
	IsPublic    bool
	Initialized bool
}

// Analyzer walks the AST once, resolves every identifier, type-checks
// every expression and collects human-readable errors. It annotates
// expression nodes with their resolved types and never rewrites the
// tree.
type Analyzer struct {
	tctx    *types.Context
	include []string

	scopes []map[string]*Symbol
	errs   errors.List
	fn     *ast.Function
}

// New creates an analyzer resolving types against tctx and module
// imports against the given search directories.
func New(tctx *types.Context, includeDirs []string) *Analyzer {
	return &Analyzer{tctx: tctx, include: includeDirs}
}

// SourceExt is the conventional import file extension.
const SourceExt = ".itea"

func (a *Analyzer) pushScope() {
	a.scopes = append(a.scopes, make(map[string]*Symbol))
}

func (a *Analyzer) popScope() {
	a.scopes = a.scopes[:len(a.scopes)-1]
}

func (a *Analyzer) define(sym Symbol) {
	a.scopes[len(a.scopes)-1][sym.Name] = &sym
}

func (a *Analyzer) lookup(name string) *Symbol {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if sym, ok := a.scopes[i][name]; ok {
			return sym
		}
	}
	return nil
}

func (a *Analyzer) fnName() string {
	if a.fn != nil {
		return a.fn.Name
	}
	return ""
}

// Visit analyzes the whole tree and returns the collected errors.
func (a *Analyzer) Visit(root []ast.Node) []*errors.Error {
	a.pushScope()

	for _, n := range root {
		switch node := n.(type) {
		case *ast.Function:
			a.define(Symbol{
				Name:        node.Name,
				Type:        a.funcType(node.ReturnType, node.Params, node.Vararg),
				IsFunction:  true,
				IsPublic:    node.Vis == ast.Public,
				Initialized: true,
			})

			a.fn = node
			a.pushScope()
			for _, p := range node.Params {
				a.define(Symbol{Name: p.Name, Type: p.Type, Initialized: true})
			}
			a.visitBlock(node.Body)
			a.popScope()
			a.fn = nil

		case *ast.FunctionImport:
			a.define(Symbol{
				Name:        node.Name,
				Type:        a.funcType(node.ReturnType, node.Params, node.Vararg),
				IsFunction:  true,
				Initialized: true,
			})

		case *ast.ModuleImport:
			a.visitModuleImport(node)

		case *ast.GlobalVariable:
			if node.Init != nil {
				got := a.visitExpr(node.Init)
				if got != nil && !got.Compatible(node.Type) {
					a.errs.Add(errors.New(errors.PhaseSema, errors.KindTypeMismatch).
						Detail("global '%s': initializer type '%s' doesn't match '%s'", node.Name, got, node.Type).
						At(node.Pos().Line, node.Pos().Column).Build())
				}
			}
			a.define(Symbol{
				Name:        node.Name,
				Type:        node.Type,
				Const:       node.Type.Const,
				IsPublic:    node.Vis == ast.Public,
				Initialized: node.Init != nil,
			})

		default:
			a.errs.Add(errors.InvalidRoot(n.Pos().Line, n.Pos().Column))
		}
	}

	a.popScope()

	out := a.errs.All()
	a.errs = errors.List{}
	return out
}

func (a *Analyzer) funcType(ret *types.Type, params []ast.Param, vararg bool) *types.Type {
	pts := make([]*types.Type, len(params))
	for i, p := range params {
		pts[i] = p.Type
	}
	return a.tctx.Function(ret, pts, vararg)
}

// visitModuleImport parses `<path>.itea` from the first matching search
// directory and registers its import declarations under `<stem>::name`.
// Failures inside the imported file are reported at the using site.
func (a *Analyzer) visitModuleImport(node *ast.ModuleImport) {
	full := node.Path + SourceExt

	var content []byte
	var found string
	for _, dir := range a.include {
		candidate := filepath.Join(dir, full)
		data, err := os.ReadFile(candidate)
		if err == nil {
			content, found = data, candidate
			break
		}
	}
	if found == "" {
		a.errs.Add(errors.ImportNotFound(node.Path, node.Pos().Line, node.Pos().Column))
		return
	}

	tree, err := parseImported(string(content), a.tctx)
	if err != nil {
		a.errs.Add(errors.New(errors.PhaseSema, errors.KindInvalidRoot).
			Detail("failed to import module '%s': %s", node.Path, err).
			At(node.Pos().Line, node.Pos().Column).Build())
		return
	}

	stem := strings.TrimSuffix(filepath.Base(found), SourceExt)
	logger().Debug("imported module", zap.String("path", found), zap.String("stem", stem))

	for _, n := range tree {
		fi, ok := n.(*ast.FunctionImport)
		if !ok {
			a.errs.Add(errors.New(errors.PhaseSema, errors.KindInvalidRoot).
				Detail("invalid root statement in module '%s'", node.Path).
				At(node.Pos().Line, node.Pos().Column).Build())
			continue
		}
		a.define(Symbol{
			Name:        stem + "::" + fi.Name,
			Type:        a.funcType(fi.ReturnType, fi.Params, fi.Vararg),
			IsFunction:  true,
			IsMember:    true,
			IsPublic:    true,
			Initialized: true,
		})
	}
}

// parseImported runs the lexer and parser over an imported file,
// converting their fatal aborts into an error for the importer.
func parseImported(src string, tctx *types.Context) (tree []ast.Node, err error) {
	defer diag.Recover(&err)
	toks := lexer.Lex(src)
	tree = parser.New(toks, tctx).Parse()
	return tree, nil
}

func (a *Analyzer) visitBlock(body []ast.Node) {
	for _, n := range body {
		a.visitStat(n)
	}
}

func (a *Analyzer) visitStat(n ast.Node) {
	switch node := n.(type) {
	case *ast.Return:
		want := a.fn.ReturnType
		if node.Value == nil {
			if want.Kind != types.Void {
				a.errs.Add(errors.ReturnMismatch(a.fnName(), want.String(), "void", node.Pos().Line, node.Pos().Column))
			}
			return
		}
		got := a.visitExpr(node.Value)
		if got != nil && !got.Compatible(want) {
			a.errs.Add(errors.ReturnMismatch(a.fnName(), want.String(), got.String(), node.Pos().Line, node.Pos().Column))
		}

	case *ast.ExprStat:
		a.visitExpr(node.X)

	case *ast.Variable:
		a.visitVariable(node)

	case *ast.Assign:
		a.visitAssign(node)

	case *ast.If:
		a.visitExpr(node.Pred)
		a.visitBlock(node.Body)
		for arm := node.ElseIf; arm != nil; arm = arm.Next {
			a.visitExpr(arm.Pred)
			a.visitBlock(arm.Body)
		}
		if node.Otherwise != nil {
			a.visitBlock(node.Otherwise.Body)
		}

	case *ast.While:
		a.visitExpr(node.Pred)
		a.visitBlock(node.Body)

	case *ast.For:
		a.visitVariable(node.Var)
		if node.Pred != nil {
			a.visitExpr(node.Pred)
		}
		if node.Step != nil {
			a.visitStat(node.Step)
		}
		a.visitBlock(node.Body)

	case *ast.Break, *ast.Continue:
		// loop nesting is validated during lowering
	}
}

func (a *Analyzer) visitVariable(node *ast.Variable) {
	var initType *types.Type
	if node.Init != nil {
		initType = a.visitExpr(node.Init)
	}

	if node.Type != nil {
		if initType != nil && !initType.Compatible(node.Type) {
			a.errs.Add(errors.New(errors.PhaseSema, errors.KindTypeMismatch).
				Func(a.fnName()).
				Detail("variable initializer type (%s) doesn't match variable type (%s)", initType, node.Type).
				At(node.Pos().Line, node.Pos().Column).Build())
		}
	} else {
		node.Type = initType
	}

	if node.Type == nil {
		a.errs.Add(errors.New(errors.PhaseSema, errors.KindUndefinedType).
			Func(a.fnName()).
			Detail("variable '%s' has no type", node.Name).
			At(node.Pos().Line, node.Pos().Column).Build())
		return
	}

	a.define(Symbol{
		Name:        node.Name,
		Type:        node.Type,
		Const:       node.Type.Const,
		Initialized: node.Init != nil,
	})
}

func (a *Analyzer) visitAssign(node *ast.Assign) {
	lhsType := a.visitExpr(node.LHS)
	rhsType := a.visitExpr(node.RHS)
	if lhsType == nil || rhsType == nil {
		return
	}

	if lhsType.Const {
		a.errs.Add(errors.New(errors.PhaseSema, errors.KindNotAssignable).
			Func(a.fnName()).
			Detail("cannot assign to a value of type '%s'", lhsType).
			At(node.Pos().Line, node.Pos().Column).Build())
		return
	}
	if !rhsType.Compatible(lhsType) {
		a.errs.Add(errors.OperatorMismatch(a.fnName(), "=", lhsType.String(), rhsType.String(), node.Pos().Line, node.Pos().Column))
	}
	if node.Op != 0 && !lhsType.IsNumeric() && !lhsType.IsFloat() {
		a.errs.Add(errors.OperatorNotApplicable(a.fnName(), compoundName(node.Op), lhsType.String(), node.Pos().Line, node.Pos().Column))
	}
}

func compoundName(op token.Kind) string {
	switch op {
	case token.Add:
		return "+="
	case token.Sub:
		return "-="
	case token.Star:
		return "*="
	case token.Div:
		return "/="
	}
	return "="
}
