package memstore

import (
	"github.com/scidata-io/ncbridge/errors"
	"github.com/scidata-io/ncbridge/nctype"
	"github.com/scidata-io/ncbridge/transcoder"
)

// Attrs are the per-variable conversion conventions. Set once, they
// apply to every read and write of the variable: fill patterns map to
// and from host missing values, validity bounds reject out-of-range
// data, and packing factors scale stored integers to host floats as
//
//	host = stored*Scale + Add
//
// Patterns are laid out as one wire element of the variable's type.
type Attrs struct {
	FillValue []byte
	MinValid  []byte
	MaxValid  []byte
	Scale     *float64
	Add       *float64
}

func (a Attrs) validate(typ *nctype.Type) error {
	k := typ.Kind()
	patternsOK := k.IsNumeric() || k == nctype.KindEnum
	for _, p := range []struct {
		name string
		pat  []byte
	}{
		{"fill value", a.FillValue},
		{"minimum", a.MinValid},
		{"maximum", a.MaxValid},
	} {
		if p.pat == nil {
			continue
		}
		if !patternsOK {
			return errors.InvalidArgument(errors.PhaseStore,
				"%s attribute not supported for %s type %q", p.name, k, typ.Name())
		}
		if len(p.pat) != typ.Size() {
			return errors.InvalidArgument(errors.PhaseStore,
				"%s attribute holds %d bytes, type %q elements hold %d",
				p.name, len(p.pat), typ.Name(), typ.Size())
		}
	}
	if a.Scale != nil || a.Add != nil {
		if !k.IsNumeric() {
			return errors.InvalidArgument(errors.PhaseStore,
				"packing attributes not supported for %s type %q", k, typ.Name())
		}
		if a.Scale != nil && *a.Scale == 0 {
			return errors.InvalidArgument(errors.PhaseStore, "packing scale is zero")
		}
	}
	return nil
}

func (a Attrs) clone() Attrs {
	c := Attrs{
		FillValue: append([]byte(nil), a.FillValue...),
		MinValid:  append([]byte(nil), a.MinValid...),
		MaxValid:  append([]byte(nil), a.MaxValid...),
	}
	if a.Scale != nil {
		v := *a.Scale
		c.Scale = &v
	}
	if a.Add != nil {
		v := *a.Add
		c.Add = &v
	}
	return c
}

// options assembles the conversion options for one access from the
// variable's attributes and the caller's container choices.
func (a Attrs) options(g GetOptions) *transcoder.Options {
	return &transcoder.Options{
		Fill:       a.FillValue,
		Min:        a.MinValid,
		Max:        a.MaxValid,
		Scale:      a.Scale,
		Add:        a.Add,
		RawText:    g.RawText,
		FitNumeric: g.FitNumeric,
	}
}
