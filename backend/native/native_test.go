package native

import (
	"testing"

	"github.com/itealang/itea/mir"
)

func TestDataLayoutFor(t *testing.T) {
	tests := []struct {
		name string
		dl   mir.DataLayout
		want string
	}{
		{"le64", mir.DataLayout{MaxNativeBytes: 8}, "e-m:e-i64:64-f80:128-n8:16:32:64"},
		{"le32", mir.DataLayout{MaxNativeBytes: 4}, "e-m:e-p:32:32-i64:32-f80:32-n8:16:32"},
		{"minimal", mir.DataLayout{MaxNativeBytes: 0}, "e"},
		{"be64", mir.DataLayout{BigEndian: true, MaxNativeBytes: 8}, "E-m:e-i64:64-f80:128-n8:16:32:64"},
		{"be_minimal", mir.DataLayout{BigEndian: true}, "E"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dataLayoutFor(tt.dl); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPredicateTablesDense(t *testing.T) {
	// The MIR predicate enums index these tables directly; they must
	// stay dense and ordered.
	if len(icmpPreds) != int(mir.IntULE)+1 {
		t.Errorf("icmp table has %d entries", len(icmpPreds))
	}
	if len(fcmpPreds) != int(mir.FloatFalse)+1 {
		t.Errorf("fcmp table has %d entries", len(fcmpPreds))
	}
}
