package hostval

import (
	"math"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindInt32, "int32"},
		{KindFloat64, "float64"},
		{KindInt64, "int64"},
		{KindString, "string"},
		{KindBytes, "bytes"},
		{KindList, "list"},
		{KindFactor, "factor"},
		{Kind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestNASentinels(t *testing.T) {
	if !IsNAInt32(NAInt32) {
		t.Error("NAInt32 should test as missing")
	}
	if IsNAInt32(math.MinInt32 + 1) {
		t.Error("MinInt32+1 should not test as missing")
	}
	if !IsNAInt64(NAInt64) {
		t.Error("NAInt64 should test as missing")
	}
	if !IsNAFloat64(NAFloat64()) {
		t.Error("NAFloat64 should test as missing")
	}
	// Any NaN counts as missing, not just the canonical one.
	if !IsNAFloat64(math.Float64frombits(0x7ff8000000000001)) {
		t.Error("non-canonical NaN should test as missing")
	}
	if IsNAFloat64(math.Inf(1)) {
		t.Error("Inf is not missing")
	}
}

func TestValueLen(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want int
	}{
		{"int32", Int32s([]int32{1, 2, 3}), 3},
		{"float64", Float64s([]float64{1.5}), 1},
		{"int64", Int64s(nil), 0},
		{"string", Strings([]string{"a", "b"}), 2},
		{"bytes", Bytes([]byte{1, 2, 3, 4}), 4},
		{"list", List(Int32s(nil), Float64s(nil)), 2},
		{"factor", NewFactor([]int32{1, 2, 1}, []string{"a", "b"}), 3},
		{"invalid", Value{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Len(); got != tt.want {
				t.Errorf("Len() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAccessorPanicsOnWrongKind(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic accessing int32 value as float64")
		}
	}()
	Int32s([]int32{1}).Float64s()
}

func TestNewArray(t *testing.T) {
	tests := []struct {
		kind Kind
		n    int64
	}{
		{KindInt32, 4},
		{KindFloat64, 2},
		{KindInt64, 3},
		{KindString, 5},
		{KindBytes, 8},
		{KindList, 2},
		{KindFactor, 6},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			v := NewArray(tt.kind, tt.n)
			if v.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", v.Kind(), tt.kind)
			}
			if int64(v.Len()) != tt.n {
				t.Errorf("Len() = %d, want %d", v.Len(), tt.n)
			}
		})
	}
}

func TestNamedListIndex(t *testing.T) {
	v := NamedList([]string{"temp", "salt"}, []Value{Int32s(nil), Float64s(nil)})
	if got := v.Index("salt"); got != 1 {
		t.Errorf("Index(salt) = %d, want 1", got)
	}
	if got := v.Index("depth"); got != -1 {
		t.Errorf("Index(depth) = %d, want -1", got)
	}
}

func TestEqual(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal int32", Int32s([]int32{1, NAInt32}), Int32s([]int32{1, NAInt32}), true},
		{"unequal int32", Int32s([]int32{1}), Int32s([]int32{2}), false},
		{"nan equals nan", Float64s([]float64{nan, 1}), Float64s([]float64{nan, 1}), true},
		{"nan vs value", Float64s([]float64{nan}), Float64s([]float64{0}), false},
		{"kind mismatch", Int32s([]int32{1}), Int64s([]int64{1}), false},
		{"length mismatch", Strings([]string{"a"}), Strings([]string{"a", "b"}), false},
		{
			"factor levels matter",
			NewFactor([]int32{1}, []string{"a"}),
			NewFactor([]int32{1}, []string{"b"}),
			false,
		},
		{
			"nested list",
			NamedList([]string{"x"}, []Value{Float64s([]float64{nan})}),
			NamedList([]string{"x"}, []Value{Float64s([]float64{nan})}),
			true,
		},
		{
			"list names matter",
			NamedList([]string{"x"}, []Value{Int32s(nil)}),
			NamedList([]string{"y"}, []Value{Int32s(nil)}),
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithDims(t *testing.T) {
	v := Int32s([]int32{1, 2, 3, 4, 5, 6}).WithDims([]int64{2, 3})
	if d := v.Dims(); len(d) != 2 || d[0] != 2 || d[1] != 3 {
		t.Errorf("Dims() = %v, want [2 3]", d)
	}
	if Int32s(nil).Dims() != nil {
		t.Error("plain vector should carry no dims")
	}
}
