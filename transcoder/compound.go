package transcoder

import (
	"encoding/binary"

	"github.com/scidata-io/ncbridge/errors"
	"github.com/scidata-io/ncbridge/hostval"
	"github.com/scidata-io/ncbridge/nctype"
)

// encodeCompound interleaves named list items into compound elements.
// Each field converts as its own array with the element count as the
// slowest dimension, then scatters into place; padding bytes stay
// zero. Fields convert without fill, range or packing policy. The
// list may carry extra items, but every field needs a matching name.
func encodeCompound(t *Transcoder, v hostval.Value, typ *nctype.Type, n int64, path []string) (*WireData, error) {
	items := v.Items()
	names := v.Names()
	if names == nil {
		return nil, errors.InvalidArgument(errors.PhaseEncode,
			"named list required for compound type %q", typ.Name())
	}
	fields := typ.Fields()
	if len(items) < len(fields) {
		return nil, errors.InvalidArgument(errors.PhaseEncode,
			"list has %d items, compound type %q needs %d fields", len(items), typ.Name(), len(fields))
	}
	size := int64(typ.Size())
	nb, err := mulSize(n, size)
	if err != nil {
		return nil, err
	}
	w := &WireData{Bytes: t.mem.Alloc(int(nb))}
	for _, f := range fields {
		fieldPath := append(path[:len(path):len(path)], f.Name)
		idx := v.Index(f.Name)
		if idx < 0 {
			return nil, errors.New(errors.PhaseEncode, errors.KindNotFound).
				Path(fieldPath...).WireType(typ.Name()).
				Detail("no list item for compound field %q", f.Name).Build()
		}
		mark := t.mem.Mark()
		fshape := Array(append([]int64{n}, f.Dims...)...)
		child, err := t.encode(items[idx], f.Type, fshape, &Options{}, fieldPath)
		if err != nil {
			return nil, err
		}
		flen := int64(f.Type.Size()) * f.Count()
		for e := int64(0); e < n; e++ {
			copy(w.Bytes[e*size+int64(f.Offset):e*size+int64(f.Offset)+flen],
				child.Bytes[e*flen:(e+1)*flen])
		}
		if len(child.Elems) > 0 {
			rebase := uint64(len(w.Elems))
			w.Elems = append(w.Elems, child.Elems...)
			shiftRefs(w.Bytes, n, size, f, rebase)
		} else {
			// Field scratch holds no referenced payloads; reclaim it.
			t.mem.Reset(mark)
		}
	}
	return w, nil
}

// shiftRefs re-homes the slot references scattered from one field's
// conversion, which indexed the field's own side table, into the
// parent's table.
func shiftRefs(buf []byte, n, size int64, f nctype.Field, rebase uint64) {
	subOffs := slotOffsets(f.Type)
	fsize := int64(f.Type.Size())
	fc := f.Count()
	for e := int64(0); e < n; e++ {
		base := e*size + int64(f.Offset)
		for j := int64(0); j < fc; j++ {
			for _, so := range subOffs {
				slot := buf[base+j*fsize+int64(so)+8 : base+j*fsize+int64(so)+16]
				if ref := binary.LittleEndian.Uint64(slot); ref != 0 {
					binary.LittleEndian.PutUint64(slot, ref+rebase)
				}
			}
		}
	}
}

// FixedLayout reports whether every element of t occupies exactly
// t.Size() contiguous bytes with no side-table references. Strings,
// vlens and compounds embedding either are not fixed.
func FixedLayout(t *nctype.Type) bool {
	return len(slotOffsets(t)) == 0
}

// slotOffsets locates the variable-size slots within one element of a
// type: the element itself for string and vlen, the slots of every
// field element for compound, none otherwise.
func slotOffsets(t *nctype.Type) []int {
	switch t.Kind() {
	case nctype.KindString, nctype.KindVlen:
		return []int{0}
	case nctype.KindCompound:
		var offs []int
		for _, f := range t.Fields() {
			sub := slotOffsets(f.Type)
			if len(sub) == 0 {
				continue
			}
			fsize := f.Type.Size()
			for j := int64(0); j < f.Count(); j++ {
				for _, so := range sub {
					offs = append(offs, f.Offset+int(j)*fsize+so)
				}
			}
		}
		return offs
	}
	return nil
}

// compoundToList splits compound elements into a named host list, one
// item per field. Each field gathers into a contiguous run and
// converts with the parent's dimensions extended by the field's own;
// only the container-choice flags pass through.
func compoundToList(t *Transcoder, wire *WireData, dst hostval.Value, typ *nctype.Type,
	shape Shape, n int64, opts *Options, path []string) error {
	size := int64(typ.Size())
	items := dst.Items()
	names := dst.Names()
	childOpts := opts.textOnly()
	for fi, f := range typ.Fields() {
		fieldPath := append(path[:len(path):len(path)], f.Name)
		flen := int64(f.Type.Size()) * f.Count()
		mark := t.mem.Mark()
		nb, err := mulSize(n, flen)
		if err != nil {
			return err
		}
		buf := t.mem.Alloc(int(nb))
		for e := int64(0); e < n; e++ {
			copy(buf[e*flen:(e+1)*flen],
				wire.Bytes[e*size+int64(f.Offset):e*size+int64(f.Offset)+flen])
		}
		// Gathered slots still reference the parent's side table.
		child := &WireData{Bytes: buf, Elems: wire.Elems}
		item, err := t.decodeWire(child, f.Type, fieldShape(shape, n, f.Dims), childOpts, fieldPath)
		if err != nil {
			return err
		}
		items[fi] = item
		names[fi] = f.Name
		t.mem.Reset(mark)
	}
	return nil
}

// fieldShape extends the parent extent with a field's fixed
// dimensions. Dimensionless parents promote to arrays only when the
// field itself is dimensioned.
func fieldShape(parent Shape, n int64, fdims []int64) Shape {
	switch {
	case parent.IsScalar():
		if len(fdims) == 0 {
			return Scalar()
		}
		return Array(fdims...)
	case parent.IsFlat():
		if len(fdims) == 0 {
			return Vector(n)
		}
		return Array(append([]int64{n}, fdims...)...)
	}
	dims := append(append([]int64(nil), parent.Dims()...), fdims...)
	return Array(dims...)
}
