package codegen

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/itealang/itea/diag"
	"github.com/itealang/itea/frontend/ast"
	"github.com/itealang/itea/frontend/lexer"
	"github.com/itealang/itea/frontend/parser"
	"github.com/itealang/itea/frontend/sema"
	"github.com/itealang/itea/mir"
)

// emitFunctionImport declares an externally provided function.
func (g *Generator) emitFunctionImport(node *ast.FunctionImport) *mir.Function {
	f := g.module.AddFunction(node.Name, g.funcType(node.ReturnType, node.Params, node.Vararg))
	f.Storage = mir.Public
	f.CC = convCC(node.CC)
	f.Attrs = mir.FuncAttr(node.Attrs)
	for i, p := range node.Params {
		f.Params[i].Name = p.Name
	}
	return f
}

// emitModuleImport opens `<path>.itea` from the configured search
// directories, declares its import entries and registers them for
// `module::name` resolution. Imported names are prefixed with the
// module stem unless declared @nomangle.
func (g *Generator) emitModuleImport(node *ast.ModuleImport) {
	full := node.Path + sema.SourceExt

	var content []byte
	var found string
	for _, dir := range g.include {
		candidate := filepath.Join(dir, full)
		data, err := os.ReadFile(candidate)
		if err == nil {
			content, found = data, candidate
			break
		}
	}
	if found == "" {
		diag.Fatalf("Failed to import module '%s': failed to open file", node.Path)
	}

	toks := lexer.Lex(string(content))
	tree := parser.New(toks, g.ctx.Types).Parse()
	stem := strings.TrimSuffix(filepath.Base(found), sema.SourceExt)

	logger().Debug("importing module",
		zap.String("path", found),
		zap.Int("decls", len(tree)))

	imported := make(map[string]*mir.Function)
	for _, n := range tree {
		fi, ok := n.(*ast.FunctionImport)
		if !ok {
			diag.Fatalf("invalid root statement in module. line %d, column %d", n.Pos().Line, n.Pos().Column)
		}

		unprefixed := fi.Name
		if fi.Attrs&ast.AttrNoMangle == 0 {
			fi.Name = stem + "_" + fi.Name
		}
		imported[unprefixed] = g.emitFunctionImport(fi)
	}
	g.modules[stem] = imported
}
