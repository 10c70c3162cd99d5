package transcoder

import (
	"unsafe"

	"github.com/scidata-io/ncbridge/errors"
	"github.com/scidata-io/ncbridge/hostval"
	"github.com/scidata-io/ncbridge/nctype"
)

// Decode is an in-flight staged read: the wire buffer is exposed for
// the storage layer to fill, then Finish converts in place.
type Decode struct {
	t     *Transcoder
	typ   *nctype.Type
	shape Shape
	opts  *Options
	host  hostval.Value
	wire  *WireData
	n     int64
}

// StartDecode prepares a read of the identified type: it allocates
// the host container up front and, when wire is nil, a wire buffer
// sharing the container's storage wherever layouts allow, so
// fixed-width data converts in place without a second copy. A non-nil
// wire is consumed as-is.
func (t *Transcoder) StartDecode(id nctype.ID, shape Shape, opts *Options, wire *WireData) (*Decode, error) {
	typ, err := t.reg.Lookup(id)
	if err != nil {
		return nil, err
	}
	n, err := shape.Count()
	if err != nil {
		return nil, err
	}
	host, err := t.allocHost(typ, shape, n, opts)
	if err != nil {
		return nil, err
	}
	if wire == nil {
		wire, err = t.newWire(host, typ, shape, n, opts)
		if err != nil {
			return nil, err
		}
	}
	return &Decode{t: t, typ: typ, shape: shape, opts: opts, host: host, wire: wire, n: n}, nil
}

// Wire returns the buffer the storage layer fills with raw elements.
func (d *Decode) Wire() *WireData { return d.wire }

// Finish converts the filled wire buffer and returns the host value.
// Reads never fail on data values; errors are limited to undecodable
// enum patterns, malformed buffers and attribute mismatches.
func (d *Decode) Finish() (hostval.Value, error) {
	if err := d.t.convert(d.host, d.wire, d.typ, d.shape, d.n, d.opts, nil); err != nil {
		return hostval.Value{}, err
	}
	return d.host, nil
}

// Decode converts one wire buffer to a host value in a single step.
func (t *Transcoder) Decode(wire *WireData, id nctype.ID, shape Shape, opts *Options) (hostval.Value, error) {
	typ, err := t.reg.Lookup(id)
	if err != nil {
		return hostval.Value{}, err
	}
	return t.decodeWire(wire, typ, shape, opts, nil)
}

// decodeWire allocates a host container and converts into it. Unlike
// the staged path it never aliases the wire buffer, so recursive
// conversions may reclaim the buffer afterward.
func (t *Transcoder) decodeWire(wire *WireData, typ *nctype.Type, shape Shape, opts *Options, path []string) (hostval.Value, error) {
	n, err := shape.Count()
	if err != nil {
		return hostval.Value{}, err
	}
	host, err := t.allocHost(typ, shape, n, opts)
	if err != nil {
		return hostval.Value{}, err
	}
	if err := t.convert(host, wire, typ, shape, n, opts, path); err != nil {
		return hostval.Value{}, err
	}
	return host, nil
}

// allocHost picks and allocates the host container for one wire type.
// Integer kinds land in the narrowest exact host kind under
// FitNumeric and float64 otherwise; packing forces float64. Char data
// becomes strings, dropping the fastest dimension, or raw bytes under
// RawText. Enums become factors over the member names, opaque data a
// byte vector with the element size as a new fastest dimension.
func (t *Transcoder) allocHost(typ *nctype.Type, shape Shape, n int64, opts *Options) (hostval.Value, error) {
	switch k := typ.Kind(); {
	case k.IsNumeric():
		return hostval.NewArray(numericHostKind(k, opts), n).WithDims(shape.hostDims(0)), nil
	case k == nctype.KindChar:
		if opts != nil && opts.RawText {
			return hostval.NewArray(hostval.KindBytes, n).WithDims(shape.hostDims(0)), nil
		}
		_, cnt, err := shape.charLayout()
		if err != nil {
			return hostval.Value{}, err
		}
		return hostval.NewArray(hostval.KindString, cnt).WithDims(shape.sub().hostDims(0)), nil
	case k == nctype.KindString:
		return hostval.NewArray(hostval.KindString, n).WithDims(shape.hostDims(0)), nil
	case k == nctype.KindEnum:
		return hostval.NewFactor(make([]int32, n), memberNames(typ)).WithDims(shape.hostDims(0)), nil
	case k == nctype.KindOpaque:
		nb, err := mulSize(n, int64(typ.Size()))
		if err != nil {
			return hostval.Value{}, err
		}
		return hostval.NewArray(hostval.KindBytes, nb).WithDims(shape.hostDims(int64(typ.Size()))), nil
	case k == nctype.KindVlen:
		return hostval.NewList(int(n)).WithDims(shape.hostDims(0)), nil
	case k == nctype.KindCompound:
		return hostval.NewNamedList(len(typ.Fields())), nil
	}
	return hostval.Value{}, errors.UnsupportedType(errors.PhaseDecode, "", typ.Name())
}

// numericHostKind is the container ladder for numeric reads.
func numericHostKind(k nctype.Kind, opts *Options) hostval.Kind {
	if opts.packed() {
		return hostval.KindFloat64
	}
	if opts != nil && opts.FitNumeric {
		switch k {
		case nctype.KindByte, nctype.KindUByte, nctype.KindShort, nctype.KindUShort, nctype.KindInt:
			return hostval.KindInt32
		case nctype.KindInt64, nctype.KindUInt64:
			return hostval.KindInt64
		}
	}
	return hostval.KindFloat64
}

func memberNames(typ *nctype.Type) []string {
	ms := typ.Members()
	names := make([]string, len(ms))
	for i := range ms {
		names[i] = ms[i].Name
	}
	return names
}

// newWire allocates the wire buffer for a staged read. Host storage
// is at least as wide as the wire elements for numeric reads and
// identical for raw text and opaque reads, so those buffers live
// inside the host container and convert in place. Everything else
// gets scratch from the allocator.
func (t *Transcoder) newWire(host hostval.Value, typ *nctype.Type, shape Shape, n int64, opts *Options) (*WireData, error) {
	need, err := wireBytesNeeded(typ, shape, n)
	if err != nil {
		return nil, err
	}
	switch k := typ.Kind(); {
	case k.IsNumeric():
		return &WireData{Bytes: hostNumBacking(host)[:need]}, nil
	case k == nctype.KindChar && opts != nil && opts.RawText:
		return &WireData{Bytes: host.Bytes()[:need]}, nil
	case k == nctype.KindOpaque:
		return &WireData{Bytes: host.Bytes()[:need]}, nil
	}
	return &WireData{Bytes: t.mem.Alloc(int(need))}, nil
}

func hostNumBacking(v hostval.Value) []byte {
	switch v.Kind() {
	case hostval.KindInt32:
		return bytesOf(v.Int32s())
	case hostval.KindInt64:
		return bytesOf(v.Int64s())
	case hostval.KindFloat64:
		return bytesOf(v.Float64s())
	}
	return nil
}

// wireBytesNeeded is the fixed-layout byte count of one conversion.
func wireBytesNeeded(typ *nctype.Type, shape Shape, n int64) (int64, error) {
	switch typ.Kind() {
	case nctype.KindChar:
		stride, cnt, err := shape.charLayout()
		if err != nil {
			return 0, err
		}
		return mulSize(cnt, stride)
	case nctype.KindString, nctype.KindVlen:
		return mulSize(n, nctype.RefSize)
	default:
		return mulSize(n, int64(typ.Size()))
	}
}

// convert dispatches the read conversion for a filled wire buffer.
func (t *Transcoder) convert(host hostval.Value, wire *WireData, typ *nctype.Type,
	shape Shape, n int64, opts *Options, path []string) error {
	need, err := wireBytesNeeded(typ, shape, n)
	if err != nil {
		return err
	}
	if int64(len(wire.Bytes)) < need {
		return errors.InvalidArgument(errors.PhaseDecode,
			"wire buffer holds %d bytes, conversion needs %d", len(wire.Bytes), need)
	}
	switch typ.Kind() {
	case nctype.KindChar:
		if host.Kind() == hostval.KindBytes {
			copyIfDistinct(host.Bytes(), wire.Bytes)
			return nil
		}
		stride, _, _ := shape.charLayout()
		charsToStrings(wire, host.Strings(), stride)
		return nil
	case nctype.KindString:
		stringsFromWire(wire, host.Strings())
		return nil
	case nctype.KindEnum:
		return enumToFactor(wire, host, typ, n, opts, path)
	case nctype.KindOpaque:
		copyIfDistinct(host.Bytes(), wire.Bytes)
		return nil
	case nctype.KindVlen:
		return vlenToList(t, wire, host, typ, n, opts, path)
	case nctype.KindCompound:
		return compoundToList(t, wire, host, typ, shape, n, opts, path)
	}
	return decodeNumericInto(host, t.alignedNumeric(wire, typ.Kind().Size()), typ, n, opts)
}

// alignedNumeric returns wire, or an arena copy when the buffer is not
// naturally aligned for the element width. Serialized payloads place
// nested element runs at arbitrary offsets, and the typed views over
// numeric elements need natural alignment.
func (t *Transcoder) alignedNumeric(wire *WireData, size int) *WireData {
	if size <= 1 || len(wire.Bytes) == 0 ||
		uintptr(unsafe.Pointer(&wire.Bytes[0]))%uintptr(size) == 0 {
		return wire
	}
	b := t.mem.Alloc(len(wire.Bytes))
	copy(b, wire.Bytes)
	return &WireData{Bytes: b}
}
