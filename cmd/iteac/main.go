package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/itealang/itea"
	"github.com/itealang/itea/backend/luau"
	"github.com/itealang/itea/backend/native"
	"github.com/itealang/itea/codegen"
	"github.com/itealang/itea/errors"
	"github.com/itealang/itea/frontend/sema"
)

type args struct {
	source   string
	output   string
	triple   string
	backend  itea.Backend
	optLevel int
	include  []string
	verbose  bool
	flags    map[string]bool
}

var knownFlags = []string{"dump-mir", "dump-final-ir"}

func help(exe string) {
	fmt.Printf(
		"usage: %q <source> [...options]\n\n"+
			"options:\n"+
			"  -o, --output <file>     output file\n"+
			"  -t, --triple <triple>   set target triple\n"+
			"  -b, --backend <name>    back end: native (default) or vm\n"+
			"  -O[0-3]                 optimization level\n"+
			"  -I <path>               add import search path\n"+
			"  -v, --verbose           dump intermediate representations\n"+
			"  -h, --help              show this message and quit\n"+
			"  -f, --flag <name>       enable a compiler flag\n\n"+
			"flags:\n",
		exe,
	)
	for _, name := range knownFlags {
		fmt.Printf("  %s\n", name)
	}
}

// parseArgs reads the command line; the grammar is too irregular for the
// flag package (-O2 clustering, repeatable -I, one positional).
func parseArgs(argv []string) (*args, error) {
	if len(argv) < 2 {
		help(argv[0])
		os.Exit(1)
	}

	a := &args{optLevel: 2, flags: make(map[string]bool)}

	for i := 1; i < len(argv); i++ {
		arg := argv[i]

		value := func() (string, error) {
			i++
			if i >= len(argv) {
				return "", fmt.Errorf("option '%s' expects a value", arg)
			}
			return argv[i], nil
		}

		switch {
		case arg == "-h" || arg == "--help":
			help(argv[0])
			os.Exit(0)

		case arg == "-o" || arg == "--output":
			v, err := value()
			if err != nil {
				return nil, err
			}
			a.output = v

		case arg == "-t" || arg == "--triple":
			v, err := value()
			if err != nil {
				return nil, err
			}
			a.triple = v

		case arg == "-b" || arg == "--backend":
			v, err := value()
			if err != nil {
				return nil, err
			}
			switch v {
			case "native":
				a.backend = itea.BackendNative
			case "vm":
				a.backend = itea.BackendVM
			default:
				return nil, fmt.Errorf("unknown back end '%s'", v)
			}

		case arg == "-I":
			v, err := value()
			if err != nil {
				return nil, err
			}
			a.include = append(a.include, v)

		case arg == "-v" || arg == "--verbose":
			a.verbose = true

		case arg == "-f" || arg == "--flag":
			v, err := value()
			if err != nil {
				return nil, err
			}
			known := false
			for _, name := range knownFlags {
				if name == v {
					known = true
					break
				}
			}
			if !known {
				return nil, fmt.Errorf("unknown compiler flag '%s'", v)
			}
			a.flags[v] = true

		case strings.HasPrefix(arg, "-O") && len(arg) == 3 && arg[2] >= '0' && arg[2] <= '3':
			a.optLevel = int(arg[2] - '0')

		case strings.HasPrefix(arg, "-"):
			return nil, fmt.Errorf("unknown option '%s'", arg)

		default:
			if a.source != "" {
				return nil, fmt.Errorf("multiple source files")
			}
			a.source = arg
		}
	}

	if a.source == "" {
		return nil, fmt.Errorf("no source file")
	}
	return a, nil
}

func defaultOutput(source string, backend itea.Backend) string {
	base := strings.TrimSuffix(source, filepath.Ext(source))
	if backend == itea.BackendVM {
		return base + ".luauc"
	}
	return base + ".o"
}

func main() {
	a, err := parseArgs(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, styleError(err.Error()))
		os.Exit(1)
	}

	if a.verbose {
		logger, lerr := zap.NewDevelopment()
		if lerr == nil {
			sema.SetLogger(logger)
			codegen.SetLogger(logger)
			native.SetLogger(logger)
			luau.SetLogger(logger)
			defer logger.Sync()
		}
		a.flags["dump-mir"] = true
		a.flags["dump-final-ir"] = true
	}

	source, err := os.ReadFile(a.source)
	if err != nil {
		fmt.Fprintln(os.Stderr, styleError(fmt.Sprintf("failed to read '%s': %v", a.source, err)))
		os.Exit(1)
	}

	out, err := itea.Compile(string(source), itea.Options{
		Backend:     a.backend,
		Triple:      a.triple,
		OptLevel:    a.optLevel,
		IncludeDirs: append(a.include, filepath.Dir(a.source)),
		DumpMIR:     a.flags["dump-mir"],
		DumpFinalIR: a.flags["dump-final-ir"],
	})
	if err != nil {
		reportError(err)
		os.Exit(1)
	}

	output := a.output
	if output == "" {
		output = defaultOutput(a.source, a.backend)
	}
	// The output file is only opened once the back end committed.
	if err := os.WriteFile(output, out, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, styleError(fmt.Sprintf("failed to write '%s': %v", output, err)))
		os.Exit(1)
	}
}

func reportError(err error) {
	if list, ok := err.(*errors.List); ok {
		fmt.Fprintln(os.Stderr, styleHeader(fmt.Sprintf("%d error(s):", list.Len())))
		for _, e := range list.All() {
			fmt.Fprintf(os.Stderr, "  %s\n", styleError(e.Error()))
		}
		return
	}
	fmt.Fprintln(os.Stderr, styleError(err.Error()))
}
