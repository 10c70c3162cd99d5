package hostval

import (
	"fmt"
	"math"
)

// Value is a dynamically typed host value: a vector of one of the
// closed set of kinds, a list of further values, or a labeled-integer
// factor. The zero Value is invalid.
//
// Accessors return the backing slice of the matching kind and panic on
// a kind mismatch; callers dispatch on Kind() first. Mutating the
// returned slice mutates the value.
type Value struct {
	kind   Kind
	i32    []int32
	f64    []float64
	i64    []int64
	str    []string
	raw    []byte
	list   []Value
	names  []string
	levels []string
	dims   []int64
}

// Int32s wraps an integer vector.
func Int32s(v []int32) Value { return Value{kind: KindInt32, i32: v} }

// Float64s wraps a floating vector.
func Float64s(v []float64) Value { return Value{kind: KindFloat64, f64: v} }

// Int64s wraps a wide integer vector.
func Int64s(v []int64) Value { return Value{kind: KindInt64, i64: v} }

// Strings wraps a string vector.
func Strings(v []string) Value { return Value{kind: KindString, str: v} }

// Bytes wraps a raw byte vector.
func Bytes(v []byte) Value { return Value{kind: KindBytes, raw: v} }

// List builds an unnamed list from the given items.
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// NamedList builds a list with element names. Panics if the lengths
// differ.
func NamedList(names []string, items []Value) Value {
	if len(names) != len(items) {
		panic(fmt.Sprintf("hostval: %d names for %d list items", len(names), len(items)))
	}
	return Value{kind: KindList, list: items, names: names}
}

// NewList allocates a list of n invalid items to be filled in place.
func NewList(n int) Value {
	return Value{kind: KindList, list: make([]Value, n)}
}

// NewNamedList allocates a list of n items with empty names.
func NewNamedList(n int) Value {
	return Value{kind: KindList, list: make([]Value, n), names: make([]string, n)}
}

// NewFactor wraps 1-based integer codes and their ordered level set.
// Code NAInt32 marks a missing element.
func NewFactor(codes []int32, levels []string) Value {
	return Value{kind: KindFactor, i32: codes, levels: levels}
}

// NewArray allocates a vector of n elements of the given kind. List
// and factor kinds are allocated with invalid items and no levels.
func NewArray(k Kind, n int64) Value {
	switch k {
	case KindInt32, KindFactor:
		return Value{kind: k, i32: make([]int32, n)}
	case KindFloat64:
		return Value{kind: k, f64: make([]float64, n)}
	case KindInt64:
		return Value{kind: k, i64: make([]int64, n)}
	case KindString:
		return Value{kind: k, str: make([]string, n)}
	case KindBytes:
		return Value{kind: k, raw: make([]byte, n)}
	case KindList:
		return Value{kind: k, list: make([]Value, n)}
	default:
		panic(fmt.Sprintf("hostval: cannot allocate array of kind %s", k))
	}
}

// Kind returns the dynamic kind.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether the value holds data of a known kind.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// Len returns the element count: vector length, list length, or byte
// count for byte vectors.
func (v Value) Len() int {
	switch v.kind {
	case KindInt32, KindFactor:
		return len(v.i32)
	case KindFloat64:
		return len(v.f64)
	case KindInt64:
		return len(v.i64)
	case KindString:
		return len(v.str)
	case KindBytes:
		return len(v.raw)
	case KindList:
		return len(v.list)
	default:
		return 0
	}
}

func (v Value) mustBe(k Kind) {
	if v.kind != k {
		panic(fmt.Sprintf("hostval: %s value accessed as %s", v.kind, k))
	}
}

// Int32s returns the backing slice of an integer vector.
func (v Value) Int32s() []int32 {
	v.mustBe(KindInt32)
	return v.i32
}

// Float64s returns the backing slice of a floating vector.
func (v Value) Float64s() []float64 {
	v.mustBe(KindFloat64)
	return v.f64
}

// Int64s returns the backing slice of a wide integer vector.
func (v Value) Int64s() []int64 {
	v.mustBe(KindInt64)
	return v.i64
}

// Strings returns the backing slice of a string vector.
func (v Value) Strings() []string {
	v.mustBe(KindString)
	return v.str
}

// Bytes returns the backing slice of a byte vector.
func (v Value) Bytes() []byte {
	v.mustBe(KindBytes)
	return v.raw
}

// Items returns the backing slice of a list.
func (v Value) Items() []Value {
	v.mustBe(KindList)
	return v.list
}

// Names returns the element names of a list, or nil for an unnamed
// list. The slice is mutable and len(Names()) == Len() when present.
func (v Value) Names() []string {
	v.mustBe(KindList)
	return v.names
}

// Index returns the position of the named list element, or -1.
func (v Value) Index(name string) int {
	v.mustBe(KindList)
	for i, n := range v.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Codes returns the 1-based level codes of a factor.
func (v Value) Codes() []int32 {
	v.mustBe(KindFactor)
	return v.i32
}

// Levels returns the ordered level set of a factor.
func (v Value) Levels() []string {
	v.mustBe(KindFactor)
	return v.levels
}

// Dims returns the array dims metadata, or nil for a plain vector.
func (v Value) Dims() []int64 { return v.dims }

// WithDims returns the value carrying array dims metadata.
func (v Value) WithDims(dims []int64) Value {
	v.dims = dims
	return v
}

// Equal reports deep equality. Floating NaNs compare equal to each
// other, so missing elements do not break comparisons in tests.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.Len() != o.Len() {
		return false
	}
	switch v.kind {
	case KindInt32:
		return int32sEqual(v.i32, o.i32)
	case KindFactor:
		return int32sEqual(v.i32, o.i32) && stringsEqual(v.levels, o.levels)
	case KindFloat64:
		for i := range v.f64 {
			a, b := v.f64[i], o.f64[i]
			if a != b && !(math.IsNaN(a) && math.IsNaN(b)) {
				return false
			}
		}
		return true
	case KindInt64:
		for i := range v.i64 {
			if v.i64[i] != o.i64[i] {
				return false
			}
		}
		return true
	case KindString:
		return stringsEqual(v.str, o.str)
	case KindBytes:
		for i := range v.raw {
			if v.raw[i] != o.raw[i] {
				return false
			}
		}
		return true
	case KindList:
		if !stringsEqual(v.names, o.names) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func int32sEqual(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
