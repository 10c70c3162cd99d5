package transcoder

import (
	"github.com/scidata-io/ncbridge/errors"
)

// Options carries the per-variable conversion policy. The zero value
// converts with no fill, no valid range, no packing, and the default
// container choices.
type Options struct {
	// Fill is the fill pattern in the wire type's byte layout. On
	// write, missing host elements become this pattern; without it
	// they raise a missing-value error. On read, matching elements
	// become missing.
	Fill []byte

	// Min and Max bound the valid range, in the wire type's byte
	// layout. On read, values outside the range become missing. On
	// write they narrow the destination type's natural bounds.
	Min []byte
	Max []byte

	// Scale and Add select packed storage: writes store
	// round((v-Add)/Scale), reads return v*Scale + Add. Either one
	// alone implies the other's identity value.
	Scale *float64
	Add   *float64

	// RawText reads char data into a byte vector instead of strings.
	RawText bool

	// FitNumeric reads integer wire types into the smallest host
	// container that holds them exactly, instead of float64.
	FitNumeric bool
}

func (o *Options) packed() bool {
	return o != nil && (o.Scale != nil || o.Add != nil)
}

func (o *Options) factors() (scale, add float64) {
	scale, add = 1.0, 0.0
	if o == nil {
		return scale, add
	}
	if o.Scale != nil {
		scale = *o.Scale
	}
	if o.Add != nil {
		add = *o.Add
	}
	return scale, add
}

// textOnly keeps the container-choice flags and drops value policy;
// compound fields convert without fill, range or packing.
func (o *Options) textOnly() *Options {
	if o == nil {
		return &Options{}
	}
	return &Options{RawText: o.RawText, FitNumeric: o.FitNumeric}
}

// checkAttrs verifies that the attribute patterns match the wire
// type's element width.
func (o *Options) checkAttrs(phase errors.Phase, size int) error {
	if o == nil {
		return nil
	}
	for _, a := range []struct {
		name string
		b    []byte
	}{{"fill", o.Fill}, {"min", o.Min}, {"max", o.Max}} {
		if a.b != nil && len(a.b) != size {
			return errors.InvalidArgument(phase,
				"%s pattern is %d bytes, wire type needs %d", a.name, len(a.b), size)
		}
	}
	return nil
}
