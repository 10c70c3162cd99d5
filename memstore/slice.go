package memstore

import (
	"math"

	"github.com/scidata-io/ncbridge/errors"
	"github.com/scidata-io/ncbridge/hostval"
	"github.com/scidata-io/ncbridge/nctype"
	"github.com/scidata-io/ncbridge/transcoder"
)

// Slices address a dense hyperslab of a variable: a start corner and
// a count per dimension, both host vectors in fastest-first order, as
// the data itself is laid out on the host side. Missing start
// elements begin at the origin; missing counts run to the extent.
// Slicing needs a fixed element layout, so string, vlen and compound
// variables with reference slots only move through PutVar and GetVar.

// GetSlice reads a hyperslab of a variable as a host value.
func (s *Store) GetSlice(name string, start, count hostval.Value, opts GetOptions) (hostval.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vr, typ, err := s.lookupVar(name)
	if err != nil {
		return hostval.Value{}, err
	}
	lens, off, cnt, err := s.resolveSlab(vr, typ, start, count)
	if err != nil {
		return hostval.Value{}, err
	}
	raw, _, err := s.payload(vr)
	if err != nil {
		return hostval.Value{}, err
	}
	wire, err := parsePayload(raw)
	if err != nil {
		return hostval.Value{}, err
	}
	esize := int64(typ.Size())
	fullLen, slabLen, err := slabSizes(lens, cnt, esize)
	if err != nil {
		return hostval.Value{}, err
	}
	if int64(len(wire.Bytes)) < fullLen {
		return hostval.Value{}, errors.Corrupt("payload shorter than variable extent", nil)
	}
	mem := s.tr.Allocator()
	mark := mem.Mark()
	defer mem.Reset(mark)
	slab := mem.Alloc(int(slabLen))
	copySlab(wire.Bytes, slab, lens, off, cnt, esize, true)
	return s.tr.Decode(&transcoder.WireData{Bytes: slab}, vr.Type, slabShape(cnt), vr.attrs.options(opts))
}

// PutSlice writes a host value into a hyperslab of a variable. A
// variable without data first materializes its full extent, filled
// with the fill-value attribute pattern or zero bytes.
func (s *Store) PutSlice(name string, start, count hostval.Value, v hostval.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vr, typ, err := s.lookupVar(name)
	if err != nil {
		return err
	}
	lens, off, cnt, err := s.resolveSlab(vr, typ, start, count)
	if err != nil {
		return err
	}
	esize := int64(typ.Size())
	fullLen, slabLen, err := slabSizes(lens, cnt, esize)
	if err != nil {
		return err
	}
	mem := s.tr.Allocator()
	mark := mem.Mark()
	defer mem.Reset(mark)
	wire, err := s.tr.Encode(v, vr.Type, slabShape(cnt), vr.attrs.options(GetOptions{}))
	if err != nil {
		return err
	}
	full, err := s.fullExtent(vr, typ, fullLen)
	if err != nil {
		return err
	}
	copySlab(full, wire.Bytes[:slabLen], lens, off, cnt, esize, false)
	return s.storePayload(vr, flattenPayload(&transcoder.WireData{Bytes: full}))
}

// resolveSlab converts host start and count vectors to storage-order
// offsets and extents, bounds-checked against the dimensions.
func (s *Store) resolveSlab(vr *Variable, typ *nctype.Type, start, count hostval.Value) (lens, off, cnt []int64, err error) {
	if !transcoder.FixedLayout(typ) {
		return nil, nil, nil, errors.InvalidArgument(errors.PhaseStore,
			"type %q holds references; slice %q with PutVar/GetVar instead", typ.Name(), vr.Name)
	}
	rank := len(vr.Dims)
	lens = s.dimLengths(vr)
	off, err = transcoder.CountsFromValue(start, rank, 0)
	if err != nil {
		return nil, nil, nil, err
	}
	cnt, err = transcoder.CountsFromValue(count, rank, -1)
	if err != nil {
		return nil, nil, nil, err
	}
	for i := range cnt {
		if cnt[i] < 0 {
			cnt[i] = lens[i] - off[i]
		}
		if off[i] < 0 || cnt[i] < 0 || off[i]+cnt[i] > lens[i] {
			return nil, nil, nil, errors.InvalidArgument(errors.PhaseStore,
				"slice [%d, %d) exceeds dimension %q length %d",
				off[i], off[i]+cnt[i], vr.Dims[i], lens[i])
		}
	}
	return lens, off, cnt, nil
}

// slabSizes returns the byte lengths of the full extent and of the
// slab, guarding the products.
func slabSizes(lens, cnt []int64, esize int64) (fullLen, slabLen int64, err error) {
	full, err := extentProduct(lens)
	if err != nil {
		return 0, 0, err
	}
	slab, err := extentProduct(cnt)
	if err != nil {
		return 0, 0, err
	}
	if full > math.MaxInt64/esize || slab > math.MaxInt64/esize {
		return 0, 0, errors.Overflow(errors.PhaseStore, "slice byte size exceeds int64")
	}
	return full * esize, slab * esize, nil
}

func extentProduct(dims []int64) (int64, error) {
	n := int64(1)
	for _, d := range dims {
		if d != 0 && n > math.MaxInt64/d {
			return 0, errors.Overflow(errors.PhaseStore, "extent product exceeds int64")
		}
		n *= d
	}
	return n, nil
}

func slabShape(cnt []int64) transcoder.Shape {
	if len(cnt) == 0 {
		return transcoder.Scalar()
	}
	return transcoder.Array(cnt...)
}

// copySlab moves a hyperslab between the full-extent buffer and a
// dense slab buffer, toSlab picking the direction. The innermost
// dimension is contiguous in both, so it moves in whole runs.
func copySlab(full, slab []byte, lens, off, cnt []int64, esize int64, toSlab bool) {
	r := len(lens)
	if r == 0 {
		if toSlab {
			copy(slab, full[:esize])
		} else {
			copy(full[:esize], slab)
		}
		return
	}
	for _, c := range cnt {
		if c == 0 {
			return
		}
	}
	strides := make([]int64, r)
	strides[r-1] = esize
	for i := r - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * lens[i+1]
	}
	runBytes := cnt[r-1] * esize
	idx := make([]int64, r-1)
	slabOff := int64(0)
	for {
		fullOff := off[r-1] * esize
		for i := 0; i < r-1; i++ {
			fullOff += (off[i] + idx[i]) * strides[i]
		}
		if toSlab {
			copy(slab[slabOff:slabOff+runBytes], full[fullOff:fullOff+runBytes])
		} else {
			copy(full[fullOff:fullOff+runBytes], slab[slabOff:slabOff+runBytes])
		}
		slabOff += runBytes
		k := r - 2
		for ; k >= 0; k-- {
			idx[k]++
			if idx[k] < cnt[k] {
				break
			}
			idx[k] = 0
		}
		if k < 0 {
			return
		}
	}
}

// fullExtent returns a mutable full-extent buffer for a slab write:
// a clone of the stored payload, or a fresh buffer primed with the
// fill pattern when the variable has no data yet.
func (s *Store) fullExtent(vr *Variable, typ *nctype.Type, fullLen int64) ([]byte, error) {
	if vr.data == nil {
		buf := make([]byte, fullLen)
		if pat := vr.attrs.FillValue; len(pat) == typ.Size() {
			for o := 0; o+len(pat) <= len(buf); o += len(pat) {
				copy(buf[o:], pat)
			}
		}
		return buf, nil
	}
	raw, _, err := s.payload(vr)
	if err != nil {
		return nil, err
	}
	wire, err := parsePayload(raw)
	if err != nil {
		return nil, err
	}
	if int64(len(wire.Bytes)) < fullLen {
		return nil, errors.Corrupt("payload shorter than variable extent", nil)
	}
	return append([]byte(nil), wire.Bytes...), nil
}
