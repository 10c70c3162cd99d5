package memstore

import (
	"encoding/binary"
	"sync"

	"github.com/scidata-io/ncbridge/errors"
	"github.com/scidata-io/ncbridge/nctype"
	"github.com/scidata-io/ncbridge/transcoder"
)

// Stored payloads flatten a wire tree into one buffer so the whole
// variable compresses as a unit:
//
//	node = u64 byteLen | bytes | u32 elemCount | node...
//
// Lengths and counts are little-endian. The element payloads of a
// string or vlen variable nest recursively in slot order.

// payloadSize returns the flattened size of a wire tree.
func payloadSize(w *transcoder.WireData) int {
	n := 8 + len(w.Bytes) + 4
	for _, e := range w.Elems {
		n += payloadSize(e)
	}
	return n
}

// flattenPayload serializes a wire tree into a fresh buffer. Encoding
// results may alias host or arena storage; the flat copy is the
// store-owned form.
func flattenPayload(w *transcoder.WireData) []byte {
	buf := make([]byte, 0, payloadSize(w))
	return appendPayload(buf, w)
}

func appendPayload(buf []byte, w *transcoder.WireData) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(w.Bytes)))
	buf = append(buf, w.Bytes...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(w.Elems)))
	for _, e := range w.Elems {
		buf = appendPayload(buf, e)
	}
	return buf
}

// maxPayloadNodes bounds the element recursion when parsing, so a
// corrupt count cannot allocate unboundedly.
const maxPayloadNodes = 1 << 28

type payloadParser struct {
	raw   []byte
	off   int
	nodes int
}

func (p *payloadParser) parse() (*transcoder.WireData, error) {
	p.nodes++
	if p.nodes > maxPayloadNodes {
		return nil, errors.Corrupt("payload element count exceeds limit", nil)
	}
	if p.off+8 > len(p.raw) {
		return nil, errors.Corrupt("payload truncated in length header", nil)
	}
	blen := binary.LittleEndian.Uint64(p.raw[p.off:])
	p.off += 8
	if blen > uint64(len(p.raw)-p.off) {
		return nil, errors.Corrupt("payload length exceeds buffer", nil)
	}
	w := &transcoder.WireData{Bytes: p.raw[p.off : p.off+int(blen)]}
	p.off += int(blen)
	if p.off+4 > len(p.raw) {
		return nil, errors.Corrupt("payload truncated in element count", nil)
	}
	nelem := binary.LittleEndian.Uint32(p.raw[p.off:])
	p.off += 4
	for i := uint32(0); i < nelem; i++ {
		e, err := p.parse()
		if err != nil {
			return nil, err
		}
		w.Elems = append(w.Elems, e)
	}
	return w, nil
}

// parsePayload rebuilds the wire tree for one variable. Node bytes
// alias raw, which callers must treat as immutable.
func parsePayload(raw []byte) (*transcoder.WireData, error) {
	p := &payloadParser{raw: raw}
	w, err := p.parse()
	if err != nil {
		return nil, err
	}
	if p.off != len(raw) {
		return nil, errors.Corrupt("payload has trailing bytes", nil)
	}
	return w, nil
}

// armForRead loans pooled copies to the wire runs that conversion
// releases: the primary of a string read, and the element runs down
// any chain of vlen bases. Runs below a compound base stay unarmed;
// their release is a no-op.
func (s *Store) armForRead(w *transcoder.WireData, typ *nctype.Type) {
	switch typ.Kind() {
	case nctype.KindString:
		if len(w.Bytes) > 0 {
			s.loan(w)
		}
	case nctype.KindVlen:
		s.armVlenElems(w, typ.Base())
	}
}

func (s *Store) armVlenElems(w *transcoder.WireData, base *nctype.Type) {
	for _, e := range w.Elems {
		s.loan(e)
		if base.Kind() == nctype.KindVlen {
			s.armVlenElems(e, base.Base())
		}
	}
}

var loanPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 256)
		return &b
	},
}

// loan replaces w's bytes with a pooled copy and arms a release hook
// that returns the copy and bumps the released counter. Loaned runs
// must not outlive the conversion that consumes them.
func (s *Store) loan(w *transcoder.WireData) {
	bp := loanPool.Get().(*[]byte)
	if cap(*bp) < len(w.Bytes) {
		*bp = make([]byte, len(w.Bytes))
	}
	buf := (*bp)[:len(w.Bytes)]
	copy(buf, w.Bytes)
	w.Bytes = buf
	s.stats.BuffersLoaned++
	w.SetRelease(func() {
		*bp = buf[:0]
		loanPool.Put(bp)
		s.stats.BuffersReleased++
	})
}
