package transcoder

import (
	"github.com/scidata-io/ncbridge/errors"
	"github.com/scidata-io/ncbridge/hostval"
	"github.com/scidata-io/ncbridge/nctype"
)

// encodeVlen converts a host list to variable-length elements, one
// slot per item. Fill, range and packing policy applies inside each
// element.
func encodeVlen(t *Transcoder, v hostval.Value, typ *nctype.Type, n int64, opts *Options, path []string) (*WireData, error) {
	items := v.Items()
	if int64(len(items)) < n {
		return nil, errors.DataLength(errors.PhaseEncode, path, int64(len(items)), n)
	}
	base := typ.Base()
	nb, err := mulSize(n, nctype.RefSize)
	if err != nil {
		return nil, err
	}
	w := &WireData{Bytes: t.mem.Alloc(int(nb))}
	for i := int64(0); i < n; i++ {
		length := vlenItemLen(items[i], base)
		if length <= 0 {
			w.PutSlot(i, 0, nil)
			continue
		}
		elem, err := t.encode(items[i], base, Vector(length), opts, path)
		if err != nil {
			return nil, err
		}
		w.PutSlot(i, uint64(length), elem)
	}
	return w, nil
}

// vlenItemLen measures one list item in base-type elements: the
// characters of the first string for char bases, whole opaque
// elements for opaque bases, the item's own length otherwise.
func vlenItemLen(item hostval.Value, base *nctype.Type) int64 {
	switch {
	case base.Kind() == nctype.KindChar && item.Kind() == hostval.KindString:
		if item.Len() == 0 {
			return 0
		}
		return int64(len(item.Strings()[0]))
	case base.Kind() == nctype.KindOpaque && item.Kind() == hostval.KindBytes:
		return int64(item.Len()) / int64(base.Size())
	default:
		return int64(item.Len())
	}
}

// vlenToList expands variable-length elements into a host list, each
// converted as a flat run with the full option set.
func vlenToList(t *Transcoder, wire *WireData, dst hostval.Value, typ *nctype.Type, n int64, opts *Options, path []string) error {
	base := typ.Base()
	items := dst.Items()
	for i := int64(0); i < n; i++ {
		count, elem := wire.Slot(i)
		if elem == nil {
			count = 0
			elem = &WireData{}
		}
		item, err := t.decodeWire(elem, base, Vector(int64(count)), opts, path)
		if err != nil {
			return err
		}
		items[i] = item
		elem.Release()
	}
	return nil
}
