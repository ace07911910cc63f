package mir

import (
	"math"

	"github.com/itealang/itea/diag"
	"github.com/itealang/itea/types"
)

// Context owns the constants of one compilation alongside the type
// universe they are typed against. Constants are hash-consed: equal
// requests return the same *Value.
type Context struct {
	Types *types.Context

	// 0 and 1 are the hot path; they get a direct slot per width and
	// signedness.
	zeros map[uint8]*Value
	ones  map[uint8]*Value

	nums map[numKey]*Value
	strs map[string]*Value
	arrs map[uint64][]*Value
	ptrs map[ptrKey]*Value
}

type numKey struct {
	bits   uint64
	width  uint8
	signed bool
	float  bool
}

type ptrKey struct {
	pointee *types.Type
	addr    uint64
}

// NewContext creates a fresh compilation context.
func NewContext() *Context {
	return &Context{
		Types: types.NewContext(),
		zeros: make(map[uint8]*Value),
		ones:  make(map[uint8]*Value),
		nums:  make(map[numKey]*Value),
		strs:  make(map[string]*Value),
		arrs:  make(map[uint64][]*Value),
		ptrs:  make(map[ptrKey]*Value),
	}
}

func (c *Context) intType(width uint8, signed bool) *types.Type {
	switch width {
	case 1:
		return c.Types.Bool()
	case 8:
		return c.Types.Primitive(types.Char, false, signed)
	case 16:
		return c.Types.Primitive(types.Short, false, signed)
	case 32:
		return c.Types.Primitive(types.Int, false, signed)
	case 64:
		return c.Types.Primitive(types.Long, false, signed)
	}
	diag.Fatalf("invalid integer constant width %d", width)
	return nil
}

// Number returns the canonical integer constant of the given payload,
// width and signedness. Width 1 forces the Bool type.
func (c *Context) Number(bits uint64, width uint8, signed bool) *Value {
	t := c.intType(width, signed)

	if bits == 0 || bits == 1 {
		cache := c.zeros
		if bits == 1 {
			cache = c.ones
		}
		slot := width
		if !signed {
			slot |= 0x80
		}
		if v, ok := cache[slot]; ok {
			return v
		}
		v := &Value{Kind: KindConstant, CKind: ConstNumber, Type: t, NumBits: bits}
		cache[slot] = v
		return v
	}

	key := numKey{bits: bits, width: width, signed: signed}
	if v, ok := c.nums[key]; ok {
		return v
	}
	v := &Value{Kind: KindConstant, CKind: ConstNumber, Type: t, NumBits: bits}
	c.nums[key] = v
	return v
}

// Real returns the canonical floating constant; width selects Float (32)
// or Double (64).
func (c *Context) Real(f float64, width uint8) *Value {
	var t *types.Type
	switch width {
	case 32:
		t = c.Types.Float()
	case 64:
		t = c.Types.Double()
	default:
		diag.Fatalf("invalid float constant width %d", width)
	}

	key := numKey{bits: math.Float64bits(f), width: width, float: true}
	if v, ok := c.nums[key]; ok {
		return v
	}
	v := &Value{Kind: KindConstant, CKind: ConstNumber, Type: t, NumBits: math.Float64bits(f)}
	c.nums[key] = v
	return v
}

// String returns the canonical string constant; its type is an array of
// const char sized to the byte length.
func (c *Context) String(s string) *Value {
	if v, ok := c.strs[s]; ok {
		return v
	}
	t := c.Types.Array(c.Types.Primitive(types.Char, true, true), uint32(len(s)), true)
	v := &Value{Kind: KindConstant, CKind: ConstString, Type: t, StrVal: s}
	c.strs[s] = v
	return v
}

// Array returns the canonical array constant over the given elements.
// Element values are themselves canonical, so buckets are compared by
// pointer identity.
func (c *Context) Array(elem *types.Type, values []*Value) *Value {
	sum := uint64(len(values))

	for _, have := range c.arrs[sum] {
		if len(have.Elems) != len(values) {
			continue
		}
		same := true
		for i := range values {
			if have.Elems[i] != values[i] {
				same = false
				break
			}
		}
		if same && have.Type.Elem == elem {
			return have
		}
	}

	t := c.Types.Array(elem, uint32(len(values)), true)
	v := &Value{Kind: KindConstant, CKind: ConstArray, Type: t, Elems: values}
	c.arrs[sum] = append(c.arrs[sum], v)
	return v
}

// Pointer returns the canonical pointer constant at addr.
func (c *Context) Pointer(pointee *types.Type, addr uint64) *Value {
	key := ptrKey{pointee: pointee, addr: addr}
	if v, ok := c.ptrs[key]; ok {
		return v
	}
	v := &Value{
		Kind:    KindConstant,
		CKind:   ConstPointer,
		Type:    c.Types.Pointer(pointee, false),
		NumBits: addr,
	}
	c.ptrs[key] = v
	return v
}

// Null returns the null pointer value (pointer to void, address 0).
func (c *Context) Null() *Value {
	return c.Pointer(c.Types.Void(), 0)
}

// True and False return the 1-bit boolean constants.
func (c *Context) True() *Value  { return c.Number(1, 1, true) }
func (c *Context) False() *Value { return c.Number(0, 1, true) }
