package types

import (
	"fmt"
	"strings"
)

// Kind discriminates the Type variants.
type Kind uint8

const (
	Void Kind = iota
	Bool
	Char
	Short
	Int
	Long
	Float
	Double
	String

	Pointer
	Array
	Function
	Struct
)

// Type is a canonical, immutable type descriptor. Types are hash-consed
// by a Context: two structurally equal types are the same pointer, so
// the rest of the compiler compares types with ==.
type Type struct {
	// id is assigned by the owning Context on insertion; it feeds the
	// structural hashes of composite types built on top of this one.
	id uint64

	Kind   Kind
	Const  bool
	Signed bool

	// Pointer pointee or Array element.
	Elem *Type
	// Array length.
	Len uint32

	// Function payload.
	Return *Type
	Params []*Type
	Vararg bool

	// Struct payload.
	Name   string
	Fields []*Type
	Packed bool
}

// IsNumeric reports whether the type is an integer type (Bool through Long).
func (t *Type) IsNumeric() bool {
	switch t.Kind {
	case Bool, Char, Short, Int, Long:
		return true
	}
	return false
}

// IsFloat reports whether the type is Float or Double.
func (t *Type) IsFloat() bool {
	return t.Kind == Float || t.Kind == Double
}

// IsIndexable reports whether the type supports element access.
func (t *Type) IsIndexable() bool {
	return t.Kind == Array || t.Kind == Pointer
}

// Element returns the pointee or element type, or nil.
func (t *Type) Element() *Type {
	if t.Kind == Array || t.Kind == Pointer {
		return t.Elem
	}
	return nil
}

// Bits returns the bit width of a numeric or floating type, 0 otherwise.
func (t *Type) Bits() uint8 {
	switch t.Kind {
	case Bool:
		return 1
	case Char:
		return 8
	case Short:
		return 16
	case Int, Float:
		return 32
	case Long, Double:
		return 64
	}
	return 0
}

func fpRank(k Kind) int {
	switch k {
	case Float:
		return 1
	case Double:
		return 2
	}
	return 0
}

// Compatible implements the assignment/operator compatibility matrix.
// It is not symmetric: t is the source, other the destination.
func (t *Type) Compatible(other *Type) bool {
	if other == nil {
		return false
	}
	if t == other {
		return true
	}
	if t.IsNumeric() && other.IsNumeric() {
		return true
	}
	if t.IsFloat() && other.IsFloat() {
		// a lower-rank float widens implicitly
		return fpRank(t.Kind) <= fpRank(other.Kind)
	}
	// A string literal decays to a char pointer at lowering time.
	if t.Kind == String && other.Kind == Pointer && other.Elem.Kind == Char {
		return true
	}
	if t.Kind == Pointer && other.Kind == Pointer {
		// pointees must match apart from const, and a const pointee may
		// not flow into a non-const one
		src, dst := *t.Elem, *other.Elem
		if src.Const && !dst.Const {
			return false
		}
		src.Const, dst.Const = false, false
		return structEqual(&src, &dst)
	}
	if t.Kind == Array && other.Kind == Array {
		return t.Len == other.Len && t.Elem.Compatible(other.Elem)
	}
	if t.Kind == Function && other.Kind == Function {
		if !t.Return.Compatible(other.Return) {
			return false
		}
		if len(t.Params) != len(other.Params) || t.Vararg != other.Vararg {
			return false
		}
		for i, p := range t.Params {
			if !p.Compatible(other.Params[i]) {
				return false
			}
		}
		return true
	}
	if t.Kind == Struct && other.Kind == Struct {
		return false // structs are compatible only by identity
	}
	return t.Kind == other.Kind
}

var kindNames = map[Kind]string{
	Void:   "void",
	Bool:   "bool",
	Char:   "char",
	Short:  "short",
	Int:    "int",
	Long:   "long",
	Float:  "float",
	Double: "double",
	String: "string",
}

// String renders the type in the same textual form Parse accepts.
func (t *Type) String() string {
	switch t.Kind {
	case Pointer:
		// Function pointers read and parse back in the bare func form.
		if t.Elem.Kind == Function {
			return t.Elem.String()
		}
		s := t.Elem.String() + "*"
		if t.Const {
			s += " const"
		}
		return s

	case Function:
		var b strings.Builder
		b.WriteString("func(")
		b.WriteString(t.Return.String())
		b.WriteString(")(")
		for i, p := range t.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.String())
		}
		if t.Vararg {
			if len(t.Params) > 0 {
				b.WriteString(", ")
			}
			b.WriteString("...")
		}
		b.WriteByte(')')
		return b.String()

	case Array:
		return fmt.Sprintf("%s[%d]", t.Elem.String(), t.Len)

	case Struct:
		return t.Name

	default:
		var b strings.Builder
		if t.Const {
			b.WriteString("const ")
		}
		if !t.Signed {
			b.WriteString("unsigned ")
		}
		b.WriteString(kindNames[t.Kind])
		return b.String()
	}
}
