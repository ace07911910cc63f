package types

const (
	fnvOffset = 14695981039346656037
	fnvPrime  = 1099511628211
)

// Hasher accumulates an FNV-1a 64 structural hash.
type Hasher uint64

// NewHasher returns a Hasher seeded with the FNV offset basis.
func NewHasher() Hasher { return fnvOffset }

// Byte mixes a single byte.
func (h Hasher) Byte(b byte) Hasher {
	return (h ^ Hasher(b)) * fnvPrime
}

// Uint64 mixes eight bytes.
func (h Hasher) Uint64(v uint64) Hasher {
	for i := 0; i < 8; i++ {
		h = h.Byte(byte(v >> (8 * i)))
	}
	return h
}

// Bool mixes a flag.
func (h Hasher) Bool(v bool) Hasher {
	if v {
		return h.Byte(1)
	}
	return h.Byte(0)
}

// Str mixes a string.
func (h Hasher) Str(s string) Hasher {
	for i := 0; i < len(s); i++ {
		h = h.Byte(s[i])
	}
	return h
}

// Sum returns the accumulated hash.
func (h Hasher) Sum() uint64 { return uint64(h) }

// Context owns every Type of one compilation. All factory methods are
// hash-consing: structurally equal requests return the same *Type, so
// pointer equality implies structural equality. A Context is not safe
// for concurrent use; compilations each own one.
type Context struct {
	cache  map[uint64][]*Type
	named  map[string]*Type
	nextID uint64
}

// NewContext creates an empty type universe.
func NewContext() *Context {
	return &Context{
		cache: make(map[uint64][]*Type),
		named: make(map[string]*Type),
	}
}

func ptrBits(t *Type) uint64 {
	if t == nil {
		return 0
	}
	return t.id
}

func structEqual(a, b *Type) bool {
	if a.Kind != b.Kind || a.Const != b.Const || a.Signed != b.Signed {
		return false
	}
	if a.Elem != b.Elem || a.Len != b.Len {
		return false
	}
	if a.Return != b.Return || a.Vararg != b.Vararg || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	if a.Name != b.Name || a.Packed != b.Packed || len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if a.Fields[i] != b.Fields[i] {
			return false
		}
	}
	return true
}

// intern returns the canonical object for t, inserting it on first use.
// Collisions on the structural hash fall back to full comparison.
func (c *Context) intern(h uint64, t *Type) *Type {
	for _, have := range c.cache[h] {
		if structEqual(have, t) {
			return have
		}
	}
	c.nextID++
	t.id = c.nextID
	c.cache[h] = append(c.cache[h], t)
	return t
}

func hashType(t *Type) uint64 {
	h := NewHasher().
		Byte(byte(t.Kind)).
		Bool(t.Const).
		Bool(t.Signed).
		Uint64(ptrBits(t.Elem)).
		Uint64(uint64(t.Len)).
		Uint64(ptrBits(t.Return)).
		Bool(t.Vararg).
		Str(t.Name).
		Bool(t.Packed)
	for _, p := range t.Params {
		h = h.Uint64(ptrBits(p))
	}
	for _, f := range t.Fields {
		h = h.Uint64(ptrBits(f))
	}
	return h.Sum()
}

// Primitive returns the canonical primitive of the given kind.
func (c *Context) Primitive(k Kind, constant, signed bool) *Type {
	t := &Type{Kind: k, Const: constant, Signed: signed}
	return c.intern(hashType(t), t)
}

// Pointer returns the canonical pointer to pointee.
func (c *Context) Pointer(pointee *Type, constant bool) *Type {
	t := &Type{Kind: Pointer, Const: constant, Signed: true, Elem: pointee}
	return c.intern(hashType(t), t)
}

// Array returns the canonical array of length n over elem.
func (c *Context) Array(elem *Type, n uint32, constant bool) *Type {
	t := &Type{Kind: Array, Const: constant, Signed: true, Elem: elem, Len: n}
	return c.intern(hashType(t), t)
}

// Function returns the canonical function type.
func (c *Context) Function(ret *Type, params []*Type, vararg bool) *Type {
	t := &Type{Kind: Function, Signed: true, Return: ret, Params: params, Vararg: vararg}
	return c.intern(hashType(t), t)
}

// StructOf returns the canonical struct with the given name and fields.
func (c *Context) StructOf(name string, fields []*Type, packed, constant bool) *Type {
	t := &Type{Kind: Struct, Const: constant, Signed: true, Name: name, Fields: fields, Packed: packed}
	return c.intern(hashType(t), t)
}

// DefineNamed registers name as an alias usable in textual type syntax.
func (c *Context) DefineNamed(name string, t *Type) {
	if name == "" || t == nil {
		return
	}
	if _, ok := c.named[name]; !ok {
		c.named[name] = t
	}
}

// Shorthands for the primitives the compiler reaches for constantly.

func (c *Context) Void() *Type   { return c.Primitive(Void, false, true) }
func (c *Context) Bool() *Type   { return c.Primitive(Bool, false, true) }
func (c *Context) Char() *Type   { return c.Primitive(Char, false, true) }
func (c *Context) Short() *Type  { return c.Primitive(Short, false, true) }
func (c *Context) Int() *Type    { return c.Primitive(Int, false, true) }
func (c *Context) Long() *Type   { return c.Primitive(Long, false, true) }
func (c *Context) Float() *Type  { return c.Primitive(Float, false, true) }
func (c *Context) Double() *Type { return c.Primitive(Double, false, true) }
func (c *Context) Str() *Type    { return c.Primitive(String, false, true) }
