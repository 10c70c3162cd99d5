package transcoder

import (
	"bytes"
	"math"
	"unsafe"

	"github.com/scidata-io/ncbridge/errors"
	"github.com/scidata-io/ncbridge/hostval"
	"github.com/scidata-io/ncbridge/nctype"
)

// maxReadLen caps the characters taken from one text element on read,
// the host vector model's maximum string length.
const maxReadLen = math.MaxInt32

// encodeChars lays host strings out as fixed-width character runs.
// Each string occupies the fastest dimension: longer strings are
// truncated without a terminator, shorter ones zero-padded.
func encodeChars(t *Transcoder, v hostval.Value, shape Shape, path []string) (*WireData, error) {
	stride, cnt, err := shape.charLayout()
	if err != nil {
		return nil, err
	}
	strs := v.Strings()
	if int64(len(strs)) < cnt {
		return nil, errors.DataLength(errors.PhaseEncode, path, int64(len(strs)), cnt)
	}
	nb, err := mulSize(cnt, stride)
	if err != nil {
		return nil, err
	}
	w := &WireData{Bytes: t.mem.Alloc(int(nb))}
	for i := int64(0); i < cnt; i++ {
		copy(w.Bytes[i*stride:(i+1)*stride], strs[i])
	}
	return w, nil
}

// charsToStrings rebuilds host strings from fixed-width character
// runs. A run ends at the first NUL, or spans the whole stride when
// none appears.
func charsToStrings(wire *WireData, out []string, stride int64) {
	rlen := stride
	if rlen > maxReadLen {
		rlen = maxReadLen
	}
	for i := range out {
		seg := wire.Bytes[int64(i)*stride : int64(i)*stride+rlen]
		if j := bytes.IndexByte(seg, 0); j >= 0 {
			seg = seg[:j]
		}
		out[i] = string(seg)
	}
}

// encodeRawChars passes a host byte vector through as character data,
// aliasing its storage.
func encodeRawChars(v hostval.Value, n int64, path []string) (*WireData, error) {
	raw := v.Bytes()
	if int64(len(raw)) < n {
		return nil, errors.DataLength(errors.PhaseEncode, path, int64(len(raw)), n)
	}
	return &WireData{Bytes: raw[:n]}, nil
}

// copyIfDistinct copies wire bytes into a host buffer unless the two
// already share storage.
func copyIfDistinct(dst []byte, src []byte) {
	if len(dst) == 0 || len(src) == 0 || &dst[0] == &src[0] {
		return
	}
	copy(dst, src)
}

// encodeStrings fills a slot run from host strings, aliasing each
// string's bytes. Empty strings become empty slots.
func encodeStrings(t *Transcoder, v hostval.Value, n int64, path []string) (*WireData, error) {
	strs := v.Strings()
	if int64(len(strs)) < n {
		return nil, errors.DataLength(errors.PhaseEncode, path, int64(len(strs)), n)
	}
	nb, err := mulSize(n, nctype.RefSize)
	if err != nil {
		return nil, err
	}
	w := &WireData{Bytes: t.mem.Alloc(int(nb))}
	for i := int64(0); i < n; i++ {
		s := strs[i]
		if len(s) == 0 {
			w.PutSlot(i, 0, nil)
			continue
		}
		w.PutSlot(i, uint64(len(s)), &WireData{Bytes: stringBytes(s)})
	}
	return w, nil
}

// stringsFromWire rebuilds host strings from a slot run. Empty slots
// stay the empty string; oversized payloads are truncated. The run's
// release hook fires after the copy, truncated or not, but never for
// a zero-element run.
func stringsFromWire(wire *WireData, out []string) {
	for i := range out {
		count, elem := wire.Slot(int64(i))
		if count == 0 || elem == nil {
			continue
		}
		if count > maxReadLen {
			count = maxReadLen
		}
		b := elem.Bytes
		if uint64(len(b)) < count {
			count = uint64(len(b))
		}
		if count > 0 {
			out[i] = string(b[:count])
		}
	}
	if len(out) > 0 {
		wire.Release()
	}
}

func stringBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
