package types

import "testing"

func TestPrimitiveIdentity(t *testing.T) {
	c := NewContext()
	if c.Int() != c.Int() {
		t.Error("two Int requests returned distinct objects")
	}
	if c.Primitive(Int, false, true) != c.Int() {
		t.Error("Primitive and shorthand disagree")
	}
	if c.Primitive(Int, false, false) == c.Int() {
		t.Error("signedness must split the cache")
	}
	if c.Primitive(Int, true, true) == c.Int() {
		t.Error("constness must split the cache")
	}
}

func TestCompositeIdentity(t *testing.T) {
	c := NewContext()

	p1 := c.Pointer(c.Char(), false)
	p2 := c.Pointer(c.Char(), false)
	if p1 != p2 {
		t.Error("equal pointer types are distinct objects")
	}
	if c.Pointer(c.Char(), true) == p1 {
		t.Error("pointer constness ignored")
	}

	a1 := c.Array(c.Int(), 4, false)
	a2 := c.Array(c.Int(), 4, false)
	if a1 != a2 {
		t.Error("equal array types are distinct objects")
	}
	if c.Array(c.Int(), 5, false) == a1 {
		t.Error("array length ignored")
	}

	f1 := c.Function(c.Int(), []*Type{c.Int(), c.Int()}, false)
	f2 := c.Function(c.Int(), []*Type{c.Int(), c.Int()}, false)
	if f1 != f2 {
		t.Error("equal function types are distinct objects")
	}
	if c.Function(c.Int(), []*Type{c.Int(), c.Int()}, true) == f1 {
		t.Error("vararg flag ignored")
	}

	s1 := c.StructOf("vec2", []*Type{c.Float(), c.Float()}, false, false)
	s2 := c.StructOf("vec2", []*Type{c.Float(), c.Float()}, false, false)
	if s1 != s2 {
		t.Error("equal struct types are distinct objects")
	}
}

func TestParse(t *testing.T) {
	c := NewContext()
	tests := []struct {
		in   string
		want *Type
	}{
		{"int", c.Int()},
		{"  int  ", c.Int()},
		{"unsigned int", c.Primitive(Int, false, false)},
		{"const char", c.Primitive(Char, true, true)},
		{"const unsigned long", c.Primitive(Long, true, false)},
		{"char*", c.Pointer(c.Char(), false)},
		{"const char*", c.Pointer(c.Primitive(Char, true, true), false)},
		{"char* const", c.Pointer(c.Char(), true)},
		{"int**", c.Pointer(c.Pointer(c.Int(), false), false)},
		{"int[4]", c.Array(c.Int(), 4, false)},
		{"unsigned int**[4]", c.Array(c.Pointer(c.Pointer(c.Primitive(Int, false, false), false), false), 4, false)},
		{"func(void)()", c.Pointer(c.Function(c.Void(), nil, false), false)},
		{"func(int)(char*, ...)", c.Pointer(c.Function(c.Int(), []*Type{c.Pointer(c.Char(), false)}, true), false)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := c.Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseIdentical(t *testing.T) {
	c := NewContext()
	for _, s := range []string{"int", "char*", "int[8]", "func(int)(int, int)"} {
		a, err := c.Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		b, err := c.Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if a != b {
			t.Errorf("Parse(%q) not canonical", s)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	c := NewContext()
	for _, s := range []string{
		"int",
		"unsigned int",
		"const char*",
		"char* const",
		"int[4]",
		"long**",
		"func(int)(char*, ...)",
	} {
		first, err := c.Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		again, err := c.Parse(first.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", first.String(), err)
		}
		if first != again {
			t.Errorf("round trip of %q lost identity: %s vs %s", s, first, again)
		}
	}
}

func TestParseUnknown(t *testing.T) {
	c := NewContext()
	for _, s := range []string{"", "quux", "int[x]", "func(", "func(int)"} {
		if _, err := c.Parse(s); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", s)
		}
	}
}

func TestCompatible(t *testing.T) {
	c := NewContext()
	charp := c.Pointer(c.Char(), false)
	constCharp := c.Pointer(c.Primitive(Char, true, true), false)

	tests := []struct {
		name string
		src  *Type
		dst  *Type
		want bool
	}{
		{"identical", c.Int(), c.Int(), true},
		{"numeric_widening", c.Char(), c.Long(), true},
		{"float_widens", c.Float(), c.Double(), true},
		{"double_narrows", c.Double(), c.Float(), false},
		{"ptr_same_pointee", charp, charp, true},
		{"ptr_wrong_pointee", charp, c.Pointer(c.Int(), false), false},
		{"const_to_nonconst_pointee", constCharp, charp, false},
		{"array_same", c.Array(c.Int(), 4, false), c.Array(c.Int(), 4, false), true},
		{"array_len_mismatch", c.Array(c.Int(), 4, false), c.Array(c.Int(), 5, false), false},
		{"struct_identity_only", c.StructOf("a", nil, false, false), c.StructOf("b", nil, false, false), false},
		{"int_vs_ptr", c.Int(), charp, false},
		{"string_decays_to_charp", c.Str(), charp, true},
		{"string_decays_to_const_charp", c.Str(), constCharp, true},
		{"charp_not_string", charp, c.Str(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.src.Compatible(tt.dst); got != tt.want {
				t.Errorf("Compatible(%s -> %s) = %v, want %v", tt.src, tt.dst, got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	c := NewContext()
	tests := []struct {
		t    *Type
		want string
	}{
		{c.Int(), "int"},
		{c.Primitive(Int, false, false), "unsigned int"},
		{c.Primitive(Char, true, true), "const char"},
		{c.Pointer(c.Char(), true), "char* const"},
		{c.Array(c.Int(), 4, false), "int[4]"},
		{c.Function(c.Int(), []*Type{c.Int()}, true), "func(int)(int, ...)"},
		{c.StructOf("vec2", []*Type{c.Float(), c.Float()}, false, false), "vec2"},
	}
	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
