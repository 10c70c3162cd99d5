package transcoder

import (
	"math"
	"unsafe"

	"github.com/scidata-io/ncbridge/errors"
	"github.com/scidata-io/ncbridge/hostval"
	"github.com/scidata-io/ncbridge/nctype"
)

// hostNum are the host-side numeric representations.
type hostNum interface {
	~int32 | ~int64 | ~float64
}

// wireNum are the storage-side numeric element types.
type wireNum interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 |
		~int64 | ~uint64 | ~float32 | ~float64
}

const dblEpsilon = 2.220446049250313e-16

// 64-bit integer limits are not exact float64 values; shrink them by
// one epsilon so the range test never passes a value the cast would
// push outside the type.
const (
	int64MaxFloat  = float64(math.MaxInt64) * (1.0 - dblEpsilon)
	int64MinFloat  = float64(math.MinInt64) * (1.0 - dblEpsilon)
	uint64MaxFloat = float64(math.MaxUint64) * (1.0 - dblEpsilon)
)

// bounds is a valid range in host space. An unset side passes
// everything.
type bounds[S hostNum] struct {
	lo, hi       S
	hasLo, hasHi bool
}

func both[S hostNum](lo, hi S) bounds[S] {
	return bounds[S]{lo: lo, hi: hi, hasLo: true, hasHi: true}
}

func onlyLo[S hostNum](lo S) bounds[S] {
	return bounds[S]{lo: lo, hasLo: true}
}

// int32Bounds is the valid write range per wire kind for int32 hosts.
// Targets at least as wide as the host need no test beyond the sign.
func int32Bounds(k nctype.Kind) bounds[int32] {
	switch k {
	case nctype.KindByte:
		return both[int32](math.MinInt8, math.MaxInt8)
	case nctype.KindUByte:
		return both[int32](0, math.MaxUint8)
	case nctype.KindShort:
		return both[int32](math.MinInt16, math.MaxInt16)
	case nctype.KindUShort:
		return both[int32](0, math.MaxUint16)
	case nctype.KindUInt, nctype.KindUInt64:
		return onlyLo[int32](0)
	}
	return bounds[int32]{}
}

// float64Bounds is the valid write range per wire kind for float64
// hosts. Integral limits are exact up to 32 bits; the 64-bit limits
// use the epsilon-shrunk constants.
func float64Bounds(k nctype.Kind) bounds[float64] {
	switch k {
	case nctype.KindByte:
		return both[float64](math.MinInt8, math.MaxInt8)
	case nctype.KindUByte:
		return both[float64](0, math.MaxUint8)
	case nctype.KindShort:
		return both[float64](math.MinInt16, math.MaxInt16)
	case nctype.KindUShort:
		return both[float64](0, math.MaxUint16)
	case nctype.KindInt:
		return both[float64](math.MinInt32, math.MaxInt32)
	case nctype.KindUInt:
		return both[float64](0, math.MaxUint32)
	case nctype.KindInt64:
		return both[float64](int64MinFloat, int64MaxFloat)
	case nctype.KindUInt64:
		return both[float64](0, uint64MaxFloat)
	case nctype.KindFloat:
		return both[float64](-math.MaxFloat32, math.MaxFloat32)
	}
	return bounds[float64]{}
}

// int64Bounds is the valid write range per wire kind for int64 hosts.
// Unsigned 64-bit targets take the whole range, wrapping negatives
// through the sign bit.
func int64Bounds(k nctype.Kind) bounds[int64] {
	switch k {
	case nctype.KindByte:
		return both[int64](math.MinInt8, math.MaxInt8)
	case nctype.KindUByte:
		return both[int64](0, math.MaxUint8)
	case nctype.KindShort:
		return both[int64](math.MinInt16, math.MaxInt16)
	case nctype.KindUShort:
		return both[int64](0, math.MaxUint16)
	case nctype.KindInt:
		return both[int64](math.MinInt32, math.MaxInt32)
	case nctype.KindUInt:
		return both[int64](0, math.MaxUint32)
	}
	return bounds[int64]{}
}

// encodeNum writes host values as wire elements. Missing elements
// take the fill pattern, or defer an error to the end of the run so
// every element is still examined. In-range values are cast directly,
// or packed through round((v-add)/scale). The first out-of-range
// value stops the run; range errors outrank a pending missing error.
func encodeNum[S hostNum, D wireNum](in []S, out []D, b bounds[S], fill *D,
	scale, add float64, packed bool, isNA func(S) bool) (rangeAt int, missing bool) {
	for i, v := range in {
		switch {
		case isNA(v):
			if fill != nil {
				out[i] = *fill
			} else {
				missing = true
			}
		case (!b.hasLo || b.lo <= v) && (!b.hasHi || v <= b.hi):
			if packed {
				out[i] = D(math.Round((float64(v) - add) / scale))
			} else {
				out[i] = D(v)
			}
		default:
			return i, missing
		}
	}
	return -1, missing
}

// decodeNum converts wire elements to host values. Fill matches and
// values outside [lo, hi] become the missing sentinel; nothing errors.
// Iteration runs in reverse so the output may share the input's
// backing array when host elements are at least as wide.
func decodeNum[S wireNum, D hostNum](in []S, out []D, fill *S, lo, hi S, na D) {
	if fill != nil {
		f := *fill
		for i := len(out) - 1; i >= 0; i-- {
			v := in[i]
			if v == f || v < lo || hi < v {
				out[i] = na
			} else {
				out[i] = D(v)
			}
		}
		return
	}
	for i := len(out) - 1; i >= 0; i-- {
		v := in[i]
		if v < lo || hi < v {
			out[i] = na
		} else {
			out[i] = D(v)
		}
	}
}

// decodeUnpack is decodeNum with the packing transform applied to
// surviving values; the result container is always float64.
func decodeUnpack[S wireNum](in []S, out []float64, fill *S, lo, hi S, scale, add float64) {
	if fill != nil {
		f := *fill
		for i := len(out) - 1; i >= 0; i-- {
			v := in[i]
			if v == f || v < lo || hi < v {
				out[i] = hostval.NAFloat64()
			} else {
				out[i] = float64(v)*scale + add
			}
		}
		return
	}
	for i := len(out) - 1; i >= 0; i-- {
		v := in[i]
		if v < lo || hi < v {
			out[i] = hostval.NAFloat64()
		} else {
			out[i] = float64(v)*scale + add
		}
	}
}

// encodeNumeric converts one host numeric vector to the wire kind,
// instantiating the generic codec for the pair.
func encodeNumeric[S hostNum](t *Transcoder, src []S, natural func(nctype.Kind) bounds[S],
	isNA func(S) bool, typ *nctype.Type, n int64, opts *Options, path []string) (*WireData, error) {
	if int64(len(src)) < n {
		return nil, errors.DataLength(errors.PhaseEncode, path, int64(len(src)), n)
	}
	b := natural(typ.Kind())
	switch typ.Kind() {
	case nctype.KindByte:
		return encPair[S, int8](t, src, b, isNA, typ, n, opts, path)
	case nctype.KindUByte:
		return encPair[S, uint8](t, src, b, isNA, typ, n, opts, path)
	case nctype.KindShort:
		return encPair[S, int16](t, src, b, isNA, typ, n, opts, path)
	case nctype.KindUShort:
		return encPair[S, uint16](t, src, b, isNA, typ, n, opts, path)
	case nctype.KindInt:
		return encPair[S, int32](t, src, b, isNA, typ, n, opts, path)
	case nctype.KindUInt:
		return encPair[S, uint32](t, src, b, isNA, typ, n, opts, path)
	case nctype.KindInt64:
		return encPair[S, int64](t, src, b, isNA, typ, n, opts, path)
	case nctype.KindUInt64:
		return encPair[S, uint64](t, src, b, isNA, typ, n, opts, path)
	case nctype.KindFloat:
		return encPair[S, float32](t, src, b, isNA, typ, n, opts, path)
	case nctype.KindDouble:
		return encPair[S, float64](t, src, b, isNA, typ, n, opts, path)
	}
	return nil, errors.UnsupportedType(errors.PhaseEncode, "numeric", typ.Name())
}

// encPair runs the write codec for one (host, wire) type pair. When
// the pair is the identity and no policy applies, the result aliases
// the host vector's storage; the checks still run over every element.
func encPair[S hostNum, D wireNum](t *Transcoder, src []S, b bounds[S], isNA func(S) bool,
	typ *nctype.Type, n int64, opts *Options, path []string) (*WireData, error) {
	size := int64(unsafe.Sizeof(*new(D)))
	if err := opts.checkAttrs(errors.PhaseEncode, int(size)); err != nil {
		return nil, err
	}
	var fill *D
	if opts != nil {
		fill = loadAttr[D](opts.Fill)
		if m := loadAttr[D](opts.Min); m != nil {
			if lo := S(*m); !b.hasLo || b.lo < lo {
				b.lo, b.hasLo = lo, true
			}
		}
		if m := loadAttr[D](opts.Max); m != nil {
			if hi := S(*m); !b.hasHi || hi < b.hi {
				b.hi, b.hasHi = hi, true
			}
		}
	}
	scale, add := opts.factors()
	packed := opts.packed()

	w := &WireData{}
	if fill == nil && !packed && sameType[S, D]() {
		w.Bytes = bytesOf(src[:n])
	} else {
		nb, err := mulSize(n, size)
		if err != nil {
			return nil, err
		}
		w.Bytes = t.mem.Alloc(int(nb))
	}
	out := wireView[D](w.Bytes, n)
	rangeAt, missing := encodeNum(src[:n], out, b, fill, scale, add, packed, isNA)
	if rangeAt >= 0 {
		return nil, errors.Range(errors.PhaseEncode, path, src[rangeAt], typ.Name())
	}
	if missing {
		return nil, errors.MissingValue(errors.PhaseEncode, path, typ.Name())
	}
	return w, nil
}

// decodeNumericInto fills a pre-allocated host container from wire
// elements. The wire buffer may alias the container's storage.
func decodeNumericInto(dst hostval.Value, wire *WireData, typ *nctype.Type,
	n int64, opts *Options) error {
	if err := opts.checkAttrs(errors.PhaseDecode, typ.Kind().Size()); err != nil {
		return err
	}
	if opts.packed() {
		out := dst.Float64s()[:n]
		scale, add := opts.factors()
		switch typ.Kind() {
		case nctype.KindByte:
			unpackPair[int8](wire, out, opts, math.MinInt8, math.MaxInt8, scale, add)
		case nctype.KindUByte:
			unpackPair[uint8](wire, out, opts, 0, math.MaxUint8, scale, add)
		case nctype.KindShort:
			unpackPair[int16](wire, out, opts, math.MinInt16, math.MaxInt16, scale, add)
		case nctype.KindUShort:
			unpackPair[uint16](wire, out, opts, 0, math.MaxUint16, scale, add)
		case nctype.KindInt:
			unpackPair[int32](wire, out, opts, math.MinInt32, math.MaxInt32, scale, add)
		case nctype.KindUInt:
			unpackPair[uint32](wire, out, opts, 0, math.MaxUint32, scale, add)
		case nctype.KindInt64:
			unpackPair[int64](wire, out, opts, math.MinInt64, math.MaxInt64, scale, add)
		case nctype.KindUInt64:
			unpackPair[uint64](wire, out, opts, 0, math.MaxUint64, scale, add)
		case nctype.KindFloat:
			unpackPair[float32](wire, out, opts, -math.MaxFloat32, math.MaxFloat32, scale, add)
		case nctype.KindDouble:
			unpackPair[float64](wire, out, opts, -math.MaxFloat64, math.MaxFloat64, scale, add)
		}
		return nil
	}

	switch dst.Kind() {
	case hostval.KindInt32:
		out := dst.Int32s()[:n]
		switch typ.Kind() {
		case nctype.KindByte:
			decPair[int8](wire, out, opts, math.MinInt8, math.MaxInt8, hostval.NAInt32)
		case nctype.KindUByte:
			decPair[uint8](wire, out, opts, 0, math.MaxUint8, hostval.NAInt32)
		case nctype.KindShort:
			decPair[int16](wire, out, opts, math.MinInt16, math.MaxInt16, hostval.NAInt32)
		case nctype.KindUShort:
			decPair[uint16](wire, out, opts, 0, math.MaxUint16, hostval.NAInt32)
		case nctype.KindInt:
			decPair[int32](wire, out, opts, math.MinInt32, math.MaxInt32, hostval.NAInt32)
		}
	case hostval.KindInt64:
		out := dst.Int64s()[:n]
		switch typ.Kind() {
		case nctype.KindInt64:
			decPair[int64](wire, out, opts, math.MinInt64, math.MaxInt64, hostval.NAInt64)
		case nctype.KindUInt64:
			decPair[uint64](wire, out, opts, 0, math.MaxUint64, hostval.NAInt64)
		}
	case hostval.KindFloat64:
		out := dst.Float64s()[:n]
		na := hostval.NAFloat64()
		switch typ.Kind() {
		case nctype.KindByte:
			decPair[int8](wire, out, opts, math.MinInt8, math.MaxInt8, na)
		case nctype.KindUByte:
			decPair[uint8](wire, out, opts, 0, math.MaxUint8, na)
		case nctype.KindShort:
			decPair[int16](wire, out, opts, math.MinInt16, math.MaxInt16, na)
		case nctype.KindUShort:
			decPair[uint16](wire, out, opts, 0, math.MaxUint16, na)
		case nctype.KindInt:
			decPair[int32](wire, out, opts, math.MinInt32, math.MaxInt32, na)
		case nctype.KindUInt:
			decPair[uint32](wire, out, opts, 0, math.MaxUint32, na)
		case nctype.KindInt64:
			decPair[int64](wire, out, opts, math.MinInt64, math.MaxInt64, na)
		case nctype.KindUInt64:
			decPair[uint64](wire, out, opts, 0, math.MaxUint64, na)
		case nctype.KindFloat:
			decPair[float32](wire, out, opts, -math.MaxFloat32, math.MaxFloat32, na)
		case nctype.KindDouble:
			decPair[float64](wire, out, opts, -math.MaxFloat64, math.MaxFloat64, na)
		}
	}
	return nil
}

// decPair runs the read codec for one (wire, host) pair. lo and hi
// are the wire type's natural limits, replaced by the Min/Max
// patterns when present.
func decPair[S wireNum, D hostNum](wire *WireData, out []D, opts *Options, lo, hi S, na D) {
	in := wireView[S](wire.Bytes, int64(len(out)))
	var fill *S
	if opts != nil {
		fill = loadAttr[S](opts.Fill)
		if m := loadAttr[S](opts.Min); m != nil {
			lo = *m
		}
		if m := loadAttr[S](opts.Max); m != nil {
			hi = *m
		}
	}
	decodeNum(in, out, fill, lo, hi, na)
}

func unpackPair[S wireNum](wire *WireData, out []float64, opts *Options, lo, hi S, scale, add float64) {
	in := wireView[S](wire.Bytes, int64(len(out)))
	var fill *S
	if opts != nil {
		fill = loadAttr[S](opts.Fill)
		if m := loadAttr[S](opts.Min); m != nil {
			lo = *m
		}
		if m := loadAttr[S](opts.Max); m != nil {
			hi = *m
		}
	}
	decodeUnpack(in, out, fill, lo, hi, scale, add)
}

// wireView reinterprets a wire buffer as n typed elements. The buffer
// must be suitably aligned; arena allocations and typed host vectors
// both are.
func wireView[T wireNum](b []byte, n int64) []T {
	if n <= 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
}

// bytesOf exposes the backing bytes of a numeric host vector without
// copying.
func bytesOf[S hostNum](s []S) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(s[0])))
}

// loadAttr decodes an attribute pattern as a wire element. The copy
// tolerates unaligned input.
func loadAttr[T wireNum](b []byte) *T {
	if b == nil {
		return nil
	}
	v := new(T)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v)), b)
	return v
}

// sameType reports whether two type parameters are the identical
// type, which makes the write codec's cast the identity.
func sameType[S, D any]() bool {
	var d D
	_, ok := any(&d).(*S)
	return ok
}

func mulSize(n, size int64) (int64, error) {
	if size > 0 && n > math.MaxInt64/size {
		return 0, errors.Overflow(errors.PhaseAlloc, "buffer size exceeds int64")
	}
	return n * size, nil
}
