package transcoder

import (
	"encoding/binary"

	"github.com/scidata-io/ncbridge/errors"
	"github.com/scidata-io/ncbridge/hostval"
	"github.com/scidata-io/ncbridge/nctype"
)

// encodeEnum writes factor codes as enum members. Every factor level
// must name a member, checked up front so unused levels fail too.
// Missing codes take the fill pattern when present; any other code
// outside 1..len(levels) is an error.
func encodeEnum(t *Transcoder, v hostval.Value, typ *nctype.Type, n int64, opts *Options, path []string) (*WireData, error) {
	size := int64(typ.Size())
	if err := opts.checkAttrs(errors.PhaseEncode, int(size)); err != nil {
		return nil, err
	}
	codes := v.Codes()
	if int64(len(codes)) < n {
		return nil, errors.DataLength(errors.PhaseEncode, path, int64(len(codes)), n)
	}
	levels := v.Levels()
	members := typ.Members()
	bits := make([]uint64, len(levels))
	for li, name := range levels {
		found := false
		for mi := range members {
			if members[mi].Name == name {
				bits[li] = typ.MemberBits(mi)
				found = true
				break
			}
		}
		if !found {
			return nil, errors.UnmatchedLevel(errors.PhaseEncode, path, name, typ.Name())
		}
	}

	nb, err := mulSize(n, size)
	if err != nil {
		return nil, err
	}
	w := &WireData{Bytes: t.mem.Alloc(int(nb))}
	var fill []byte
	if opts != nil {
		fill = opts.Fill
	}
	for i := int64(0); i < n; i++ {
		c := codes[i]
		dst := w.Bytes[i*size : (i+1)*size]
		switch {
		case hostval.IsNAInt32(c) && fill != nil:
			copy(dst, fill)
		case c >= 1 && int64(c) <= int64(len(levels)):
			storeBits(dst, bits[c-1])
		default:
			return nil, errors.New(errors.PhaseEncode, errors.KindRange).
				Path(path...).WireType(typ.Name()).
				Detail("invalid index %d in factor", c).Build()
		}
	}
	return w, nil
}

// enumToFactor reads enum members into factor codes. The fill pattern
// is registered after the members, so a fill colliding with a member
// reads as missing. Unknown bit patterns are an error.
func enumToFactor(wire *WireData, dst hostval.Value, typ *nctype.Type, n int64, opts *Options, path []string) error {
	size := int64(typ.Size())
	if err := opts.checkAttrs(errors.PhaseDecode, int(size)); err != nil {
		return err
	}
	members := typ.Members()
	index := make(map[uint64]int32, len(members)+1)
	for mi := range members {
		index[typ.MemberBits(mi)] = int32(mi + 1)
	}
	if opts != nil && opts.Fill != nil {
		index[loadBits(opts.Fill)] = hostval.NAInt32
	}
	codes := dst.Codes()
	for i := int64(0); i < n; i++ {
		b := loadBits(wire.Bytes[i*size : (i+1)*size])
		c, ok := index[b]
		if !ok {
			return errors.UnknownEnumValue(errors.PhaseDecode, path, b, typ.Name())
		}
		codes[i] = c
	}
	return nil
}

// storeBits writes the low len(dst) bytes of a little-endian bit
// pattern, the wire layout of enum members of any base width.
func storeBits(dst []byte, bits uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], bits)
	copy(dst, tmp[:len(dst)])
}

// loadBits reads a bit pattern of up to 8 bytes, zero-extending.
func loadBits(src []byte) uint64 {
	var tmp [8]byte
	copy(tmp[:], src)
	return binary.LittleEndian.Uint64(tmp[:])
}
