package itea

import (
	"io"
	"os"
	"strings"

	"github.com/itealang/itea/backend/luau"
	"github.com/itealang/itea/backend/native"
	"github.com/itealang/itea/codegen"
	"github.com/itealang/itea/diag"
	"github.com/itealang/itea/errors"
	"github.com/itealang/itea/frontend/lexer"
	"github.com/itealang/itea/frontend/parser"
	"github.com/itealang/itea/frontend/sema"
	"github.com/itealang/itea/mir"
)

// Backend selects the output format.
type Backend int

const (
	// BackendNative emits a native object file through LLVM.
	BackendNative Backend = iota
	// BackendVM emits Luau VM bytecode.
	BackendVM
)

// Options configure one compilation.
type Options struct {
	Backend     Backend
	Triple      string
	OptLevel    int
	IncludeDirs []string

	DumpMIR     bool
	DumpFinalIR bool
	// DumpWriter receives the MIR dump and the bytecode dump; os.Stdout
	// when nil. The native back end's final IR dump does not go here: LLVM
	// prints it to standard error.
	DumpWriter io.Writer
}

// dataLayoutFor derives the module layout descriptor from the triple.
func dataLayoutFor(triple string) mir.DataLayout {
	dl := mir.DataLayout{MaxNativeBytes: 8}
	for _, arch := range []string{"i386", "i686", "arm-", "armv7", "wasm32", "riscv32", "mips-"} {
		if strings.HasPrefix(triple, arch) {
			dl.MaxNativeBytes = 4
			break
		}
	}
	if strings.HasPrefix(triple, "mips-") || strings.HasPrefix(triple, "sparc") {
		dl.BigEndian = true
	}
	return dl
}

// Compile runs the full pipeline over one source text and returns the
// back end's output bytes. Semantic errors come back as an
// *errors.List; fatal stage errors as a *diag.Abort.
func Compile(source string, opts Options) (out []byte, err error) {
	defer diag.Recover(&err)

	toks := lexer.Lex(source)

	ctx := mir.NewContext()
	tree := parser.New(toks, ctx.Types).Parse()

	analyzer := sema.New(ctx.Types, opts.IncludeDirs)
	if errs := analyzer.Visit(tree); len(errs) != 0 {
		list := &errors.List{}
		for _, e := range errs {
			list.Add(e)
		}
		return nil, list
	}

	gen := codegen.New(ctx)
	module := gen.Emit(tree, codegen.Options{
		Triple:      opts.Triple,
		DataLayout:  dataLayoutFor(opts.Triple),
		IncludeDirs: opts.IncludeDirs,
	})

	dumpW := opts.DumpWriter
	if dumpW == nil {
		dumpW = os.Stdout
	}
	if opts.DumpMIR {
		mir.Fdump(dumpW, module)
	}

	switch opts.Backend {
	case BackendVM:
		image := luau.Lower(module)
		if opts.DumpFinalIR {
			if _, derr := luau.Fdump(dumpW, image); derr != nil {
				return nil, errors.Wrap(errors.PhaseBytecode, errors.KindVerification, derr, "dump bytecode")
			}
		}
		return image, nil

	default:
		return native.Emit(module, native.Options{
			OptLevel: opts.OptLevel,
			DumpIR:   opts.DumpFinalIR,
		}), nil
	}
}
