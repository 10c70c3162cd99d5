package transcoder

import (
	ncbridge "github.com/scidata-io/ncbridge"
	"github.com/scidata-io/ncbridge/arena"
	"github.com/scidata-io/ncbridge/errors"
	"github.com/scidata-io/ncbridge/hostval"
	"github.com/scidata-io/ncbridge/nctype"
)

// Transcoder converts host values to and from the wire layout of the
// types in one registry. Scratch buffers come from the allocator; the
// caller brackets conversion scopes with the allocator's Mark and
// Reset, after which every WireData from the scope is dead.
//
// A Transcoder and its allocator belong to one goroutine at a time.
type Transcoder struct {
	reg *nctype.Registry
	mem ncbridge.Allocator
}

// New returns a transcoder over the registry's types. A nil allocator
// gets a private arena.
func New(reg *nctype.Registry, mem ncbridge.Allocator) *Transcoder {
	if mem == nil {
		mem = arena.New()
	}
	return &Transcoder{reg: reg, mem: mem}
}

// Registry returns the registry the transcoder resolves types in.
func (t *Transcoder) Registry() *nctype.Registry { return t.reg }

// Allocator returns the scratch allocator, for scope bracketing.
func (t *Transcoder) Allocator() ncbridge.Allocator { return t.mem }

// Encode converts a host value to the wire layout of the identified
// type, shaped by shape. The result may alias the host value's
// storage when the layouts coincide; it stays valid until the
// enclosing allocator scope resets.
//
// Encoding is strict: out-of-range values, missing values without a
// fill pattern, and short host containers all fail, and a failed
// conversion exposes no partial result.
func (t *Transcoder) Encode(v hostval.Value, id nctype.ID, shape Shape, opts *Options) (*WireData, error) {
	typ, err := t.reg.Lookup(id)
	if err != nil {
		return nil, err
	}
	return t.encode(v, typ, shape, opts, nil)
}

// encode dispatches on the host kind, then the wire kind. Pairs
// outside the conversion matrix fail with an unsupported-type error.
func (t *Transcoder) encode(v hostval.Value, typ *nctype.Type, shape Shape, opts *Options, path []string) (*WireData, error) {
	n, err := shape.Count()
	if err != nil {
		return nil, err
	}
	switch v.Kind() {
	case hostval.KindInt32:
		if typ.Kind().IsNumeric() {
			return encodeNumeric(t, v.Int32s(), int32Bounds, hostval.IsNAInt32, typ, n, opts, path)
		}
	case hostval.KindFactor:
		if typ.Kind() == nctype.KindEnum {
			return encodeEnum(t, v, typ, n, opts, path)
		}
		// A factor headed anywhere but an enum converts by its codes.
		if typ.Kind().IsNumeric() {
			return encodeNumeric(t, v.Codes(), int32Bounds, hostval.IsNAInt32, typ, n, opts, path)
		}
	case hostval.KindFloat64:
		if typ.Kind().IsNumeric() {
			return encodeNumeric(t, v.Float64s(), float64Bounds, hostval.IsNAFloat64, typ, n, opts, path)
		}
	case hostval.KindInt64:
		if typ.Kind().IsNumeric() {
			return encodeNumeric(t, v.Int64s(), int64Bounds, hostval.IsNAInt64, typ, n, opts, path)
		}
	case hostval.KindString:
		switch typ.Kind() {
		case nctype.KindChar:
			return encodeChars(t, v, shape, path)
		case nctype.KindString:
			return encodeStrings(t, v, n, path)
		}
	case hostval.KindBytes:
		switch typ.Kind() {
		case nctype.KindChar:
			return encodeRawChars(v, n, path)
		case nctype.KindOpaque:
			return encodeOpaque(v, typ, n, path)
		}
	case hostval.KindList:
		switch typ.Kind() {
		case nctype.KindVlen:
			return encodeVlen(t, v, typ, n, opts, path)
		case nctype.KindCompound:
			return encodeCompound(t, v, typ, n, path)
		}
	}
	return nil, errors.UnsupportedType(errors.PhaseEncode, v.Kind().String(), typ.Name())
}
