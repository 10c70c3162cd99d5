package transcoder

import (
	"encoding/binary"

	"github.com/scidata-io/ncbridge/nctype"
)

// WireData carries one conversion result in the storage layout.
//
// Bytes is the fixed-layout buffer: packed elements for atomic and
// fixed-size types, or a run of 16-byte slots for variable-size types
// (string, vlen). Each slot holds a little-endian element count and a
// 1-based reference into Elems; a zero reference means no payload, the
// null-pointer rule for empty elements.
//
// Buffers owned by a storage layer may carry a release hook; the
// decoder runs it once the data has been copied out.
type WireData struct {
	Bytes   []byte
	Elems   []*WireData
	release func()
}

// SetRelease installs a hook returning storage-owned buffers to their
// pool. The decoder calls Release after consuming the data.
func (w *WireData) SetRelease(fn func()) {
	w.release = fn
}

// Release runs the release hook, at most once.
func (w *WireData) Release() {
	if w.release != nil {
		w.release()
		w.release = nil
	}
}

// Slot reads the i-th variable-size slot. The returned element is nil
// when the slot carries no payload.
func (w *WireData) Slot(i int64) (count uint64, elem *WireData) {
	s := w.Bytes[i*nctype.RefSize : (i+1)*nctype.RefSize]
	count = binary.LittleEndian.Uint64(s)
	ref := binary.LittleEndian.Uint64(s[8:])
	if ref == 0 {
		return count, nil
	}
	return count, w.Elems[ref-1]
}

// PutSlot stores count and elem in the i-th slot, appending elem to
// the side table. A nil elem records a count with no payload.
func (w *WireData) PutSlot(i int64, count uint64, elem *WireData) {
	s := w.Bytes[i*nctype.RefSize : (i+1)*nctype.RefSize]
	binary.LittleEndian.PutUint64(s, count)
	if elem == nil {
		binary.LittleEndian.PutUint64(s[8:], 0)
		return
	}
	w.Elems = append(w.Elems, elem)
	binary.LittleEndian.PutUint64(s[8:], uint64(len(w.Elems)))
}
