package types

import (
	"fmt"
	"strconv"
	"strings"
)

var nameToKind = map[string]Kind{
	"void":   Void,
	"bool":   Bool,
	"char":   Char,
	"short":  Short,
	"int":    Int,
	"float":  Float,
	"long":   Long,
	"double": Double,
	"string": String,
}

// Parse resolves a textual type such as "unsigned int**[4]",
// "const char*" or "func(int)(char*, ...)" to its canonical Type.
// Recognized modifiers are const, signed and unsigned; suffixes are *,
// "* const" and [N]; the function form is func(<ret>)(<params>).
func (c *Context) Parse(s string) (*Type, error) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return nil, fmt.Errorf("unknown type")
	}

	if strings.HasPrefix(s, "func(") {
		return c.parseFunc(s)
	}

	// Separate the suffix symbols so they split into their own fields.
	for _, sym := range []string{"*", "[", "]"} {
		s = strings.ReplaceAll(s, sym, " "+sym+" ")
	}
	toks := strings.Fields(s)

	// Peel [N] dimension triples off wherever they appear.
	var dims []uint32
	for i := 0; i+2 < len(toks); {
		if toks[i] == "[" && toks[i+2] == "]" {
			n, err := strconv.ParseUint(toks[i+1], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("unknown type %q", s)
			}
			dims = append(dims, uint32(n))
			toks = append(toks[:i], toks[i+3:]...)
		} else {
			i++
		}
	}

	constant := false
	signed := true
	var base *Type
	i := 0
	for ; i < len(toks) && toks[i] != "*"; i++ {
		switch tok := toks[i]; tok {
		case "const":
			constant = true
		case "unsigned":
			signed = false
		case "signed":
			signed = true
		default:
			if base != nil {
				return nil, fmt.Errorf("unknown type %q", s)
			}
			if k, ok := nameToKind[tok]; ok {
				base = c.Primitive(k, constant, signed)
			} else if named, ok := c.named[tok]; ok {
				base = c.StructOf(named.Name, named.Fields, named.Packed, constant)
			} else {
				return nil, fmt.Errorf("unknown type %q", tok)
			}
		}
	}
	if base == nil {
		return nil, fmt.Errorf("unknown type %q", s)
	}
	// The modifiers may follow the name ("int unsigned" is not written in
	// practice but const commonly trails); re-intern with the final bits.
	if base.Kind != Struct {
		base = c.Primitive(base.Kind, constant, signed)
	}

	cur := base
	for ; i < len(toks); i++ {
		if toks[i] != "*" {
			return nil, fmt.Errorf("unknown type %q", s)
		}
		constp := false
		if i+1 < len(toks) && toks[i+1] == "const" {
			constp = true
			i++
		}
		cur = c.Pointer(cur, constp)
	}

	for _, d := range dims {
		cur = c.Array(cur, d, false)
	}
	return cur, nil
}

// parseFunc handles the func(<ret>)(<params>, ...) form; the result is a
// pointer to the function type.
func (c *Context) parseFunc(s string) (*Type, error) {
	firstClose := strings.IndexByte(s, ')')
	if firstClose < 0 || firstClose+1 >= len(s) || s[firstClose+1] != '(' {
		return nil, fmt.Errorf("unknown type %q", s)
	}
	secondClose := strings.IndexByte(s[firstClose+2:], ')')
	if secondClose < 0 {
		return nil, fmt.Errorf("unknown type %q", s)
	}
	secondClose += firstClose + 2

	ret, err := c.Parse(s[len("func("):firstClose])
	if err != nil {
		return nil, err
	}

	var params []*Type
	vararg := false
	for _, part := range strings.Split(s[firstClose+2:secondClose], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part == "..." {
			vararg = true
			continue
		}
		p, err := c.Parse(part)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}

	return c.Pointer(c.Function(ret, params, vararg), false), nil
}
