package transcoder

import (
	"math"

	"github.com/scidata-io/ncbridge/errors"
	"github.com/scidata-io/ncbridge/hostval"
)

type shapeForm uint8

const (
	formScalar shapeForm = iota
	formFlat
	formArray
)

// Shape describes the extent of a conversion. Array dimensions are in
// storage order: the slowest-varying dimension first, the fastest
// last. A flat shape is a plain vector that carries no dimension
// metadata on the host side; text codecs treat its whole length as a
// single element.
type Shape struct {
	form shapeForm
	dims []int64
}

// Scalar is a single element with no dimensions.
func Scalar() Shape { return Shape{form: formScalar} }

// Vector is a flat run of n elements without array metadata.
func Vector(n int64) Shape { return Shape{form: formFlat, dims: []int64{n}} }

// Array has the given dimensions in storage order.
func Array(dims ...int64) Shape {
	d := append([]int64(nil), dims...)
	return Shape{form: formArray, dims: d}
}

// IsScalar reports a dimensionless single element.
func (s Shape) IsScalar() bool { return s.form == formScalar }

// IsFlat reports a vector without array metadata.
func (s Shape) IsFlat() bool { return s.form == formFlat }

// Rank returns the number of dimensions; 0 for scalars and flat
// vectors.
func (s Shape) Rank() int {
	if s.form == formArray {
		return len(s.dims)
	}
	return 0
}

// Dims returns the dimensions in storage order.
func (s Shape) Dims() []int64 { return s.dims }

// Count returns the element count, rejecting negative dimensions and
// products beyond int64.
func (s Shape) Count() (int64, error) {
	switch s.form {
	case formScalar:
		return 1, nil
	case formFlat:
		if s.dims[0] < 0 {
			return 0, errors.InvalidArgument(errors.PhaseShape, "negative length %d", s.dims[0])
		}
		return s.dims[0], nil
	}
	n := int64(1)
	for _, d := range s.dims {
		if d < 0 {
			return 0, errors.InvalidArgument(errors.PhaseShape, "negative dimension %d", d)
		}
		if d != 0 && n > math.MaxInt64/d {
			return 0, errors.Overflow(errors.PhaseShape, "element count exceeds int64")
		}
		n *= d
	}
	return n, nil
}

// CountOf computes the element count described by a host-supplied
// length vector: the product of its entries, 1 when the vector is
// empty or absent. Missing and non-finite entries are rejected.
func CountOf(v hostval.Value) (int64, error) {
	n := int64(1)
	mul := func(c int64) error {
		if c < 0 {
			return errors.Range(errors.PhaseShape, nil, c, "size")
		}
		if c != 0 && n > math.MaxInt64/c {
			return errors.Overflow(errors.PhaseShape, "element count exceeds int64")
		}
		n *= c
		return nil
	}
	switch v.Kind() {
	case hostval.KindInvalid:
		return 1, nil
	case hostval.KindInt32:
		for _, e := range v.Int32s() {
			if hostval.IsNAInt32(e) {
				return 0, errors.InvalidLength(errors.PhaseShape, "missing value in length vector")
			}
			if err := mul(int64(e)); err != nil {
				return 0, err
			}
		}
	case hostval.KindInt64:
		for _, e := range v.Int64s() {
			if hostval.IsNAInt64(e) {
				return 0, errors.InvalidLength(errors.PhaseShape, "missing value in length vector")
			}
			if err := mul(e); err != nil {
				return 0, err
			}
		}
	case hostval.KindFloat64:
		for _, e := range v.Float64s() {
			if hostval.IsNAFloat64(e) || math.IsInf(e, 0) {
				return 0, errors.InvalidLength(errors.PhaseShape, "non-finite value in length vector")
			}
			if e > int64MaxFloat {
				return 0, errors.Overflow(errors.PhaseShape, "element count exceeds int64")
			}
			if err := mul(int64(e)); err != nil {
				return 0, err
			}
		}
	default:
		return 0, errors.InvalidArgument(errors.PhaseShape,
			"numeric vector required for lengths, got %s", v.Kind())
	}
	return n, nil
}

// charLayout splits the shape for fixed-width text: the fastest
// dimension is the character stride, the rest count strings. A flat
// vector is one string spanning the whole length; a scalar is one
// single character.
func (s Shape) charLayout() (stride, cnt int64, err error) {
	switch s.form {
	case formScalar:
		return 1, 1, nil
	case formFlat:
		if s.dims[0] < 0 {
			return 0, 0, errors.InvalidArgument(errors.PhaseShape, "negative length %d", s.dims[0])
		}
		return s.dims[0], 1, nil
	}
	if len(s.dims) == 0 {
		return 1, 1, nil
	}
	stride = s.dims[len(s.dims)-1]
	rest := Array(s.dims[:len(s.dims)-1]...)
	cnt, err = rest.Count()
	if err != nil {
		return 0, 0, err
	}
	if stride < 0 {
		return 0, 0, errors.InvalidArgument(errors.PhaseShape, "negative dimension %d", stride)
	}
	return stride, cnt, nil
}

// hostDims returns the dimensions in host (fastest-first) order, or
// nil when the shape carries no array metadata. extra, when positive,
// is prepended as a new fastest-varying dimension; a flat or scalar
// shape is promoted to an array to accommodate it.
func (s Shape) hostDims(extra int64) []int64 {
	var out []int64
	if extra > 0 {
		out = append(out, extra)
	}
	switch s.form {
	case formScalar:
		if extra > 0 {
			return out
		}
		return nil
	case formFlat:
		if extra > 0 {
			return append(out, s.dims[0])
		}
		return nil
	}
	for i := len(s.dims) - 1; i >= 0; i-- {
		out = append(out, s.dims[i])
	}
	return out
}

// sub drops the fastest-varying dimension, for text reads where the
// character stride collapses into the string itself.
func (s Shape) sub() Shape {
	if s.form != formArray || len(s.dims) == 0 {
		return Scalar()
	}
	return Array(s.dims[:len(s.dims)-1]...)
}

// CountsFromValue converts a host-supplied length vector to storage
// order. Host vectors list dimensions fastest-first, so element i
// lands at storage position rank-1-i; missing elements and dimensions
// beyond the vector's length take the fill value verbatim. Negative
// or unrepresentable lengths are rejected.
func CountsFromValue(v hostval.Value, rank int, fill int64) ([]int64, error) {
	out := make([]int64, rank)
	for i := range out {
		out[i] = fill
	}
	nr := v.Len()
	if nr > rank {
		nr = rank
	}
	for i := 0; i < nr; i++ {
		var c int64
		na := false
		switch v.Kind() {
		case hostval.KindInt32:
			e := v.Int32s()[i]
			if na = hostval.IsNAInt32(e); !na {
				c = int64(e)
			}
		case hostval.KindInt64:
			e := v.Int64s()[i]
			if na = hostval.IsNAInt64(e); !na {
				c = e
			}
		case hostval.KindFloat64:
			e := v.Float64s()[i]
			if na = hostval.IsNAFloat64(e); !na {
				if e < 0 || e > int64MaxFloat {
					return nil, errors.Range(errors.PhaseShape, nil, e, "size")
				}
				c = int64(e)
			}
		default:
			return nil, errors.InvalidArgument(errors.PhaseShape,
				"numeric vector required for sizes, got %s", v.Kind())
		}
		if na {
			continue
		}
		if c < 0 {
			return nil, errors.Range(errors.PhaseShape, nil, c, "size")
		}
		out[rank-1-i] = c
	}
	return out, nil
}
