package memstore

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/scidata-io/ncbridge/compress"
	"github.com/scidata-io/ncbridge/errors"
	"github.com/scidata-io/ncbridge/nctype"
)

// Snapshots serialize a whole store: dimensions, user types in
// definition order, variables with attributes and their compressed
// payloads. Integers are little-endian; payloads stay in the store's
// codec, named in the header so a reader can decode without the
// original configuration.
const (
	snapshotMagic   = "NCBS"
	snapshotVersion = 1
)

const (
	classEnum uint8 = iota + 1
	classOpaque
	classVlen
	classCompound
)

// Sanity caps for snapshot reads: anything beyond these is a corrupt
// or hostile header, not a real dataset.
const (
	maxSnapName  = 1 << 20
	maxSnapCount = 1 << 24
	maxSnapDims  = 1 << 10
)

// WriteTo serializes the store. It implements io.WriterTo.
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)
	sw := &snapWriter{w: bw}

	sw.bytes([]byte(snapshotMagic))
	sw.u8(snapshotVersion)
	sw.u8(uint8(s.ckind))

	sw.u32(uint32(len(s.dims)))
	for _, d := range s.dims {
		sw.str(d.Name)
		sw.u64(uint64(d.Length))
	}

	types := s.reg.UserTypes()
	sw.u32(uint32(len(types)))
	for _, t := range types {
		s.writeType(sw, t)
	}

	sw.u32(uint32(len(s.varOrder)))
	for _, name := range s.varOrder {
		s.writeVar(sw, s.vars[name])
	}

	if sw.err == nil {
		sw.err = bw.Flush()
	}
	if sw.err != nil {
		return cw.n, errors.Wrap(errors.PhaseStore, errors.KindIO, sw.err, "write snapshot")
	}
	Logger().Debug("wrote snapshot",
		zap.Int64("bytes", cw.n),
		zap.Int("dims", len(s.dims)),
		zap.Int("types", len(types)),
		zap.Int("vars", len(s.varOrder)))
	return cw.n, nil
}

func (s *Store) writeType(sw *snapWriter, t *nctype.Type) {
	switch t.Kind() {
	case nctype.KindEnum:
		sw.u8(classEnum)
		sw.str(t.Name())
		sw.u32(uint32(t.ID()))
		sw.u32(uint32(t.Base().ID()))
		ms := t.Members()
		sw.u32(uint32(len(ms)))
		for _, m := range ms {
			sw.str(m.Name)
			sw.u64(uint64(m.Value))
		}
	case nctype.KindOpaque:
		sw.u8(classOpaque)
		sw.str(t.Name())
		sw.u32(uint32(t.ID()))
		sw.u64(uint64(t.Size()))
	case nctype.KindVlen:
		sw.u8(classVlen)
		sw.str(t.Name())
		sw.u32(uint32(t.ID()))
		sw.u32(uint32(t.Base().ID()))
	case nctype.KindCompound:
		sw.u8(classCompound)
		sw.str(t.Name())
		sw.u32(uint32(t.ID()))
		fs := t.Fields()
		sw.u32(uint32(len(fs)))
		for _, f := range fs {
			sw.str(f.Name)
			sw.u32(uint32(f.Type.ID()))
			sw.u32(uint32(len(f.Dims)))
			for _, d := range f.Dims {
				sw.u64(uint64(d))
			}
		}
	}
}

const (
	attrFill uint8 = 1 << iota
	attrMin
	attrMax
	attrScale
	attrAdd
)

func (s *Store) writeVar(sw *snapWriter, v *Variable) {
	sw.str(v.Name)
	sw.u64(v.id)
	sw.u32(uint32(v.Type))
	sw.u32(uint32(len(v.Dims)))
	for _, d := range v.Dims {
		sw.u32(uint32(s.dimIdx[d]))
	}
	var flags uint8
	a := v.attrs
	if a.FillValue != nil {
		flags |= attrFill
	}
	if a.MinValid != nil {
		flags |= attrMin
	}
	if a.MaxValid != nil {
		flags |= attrMax
	}
	if a.Scale != nil {
		flags |= attrScale
	}
	if a.Add != nil {
		flags |= attrAdd
	}
	sw.u8(flags)
	for _, pat := range [][]byte{a.FillValue, a.MinValid, a.MaxValid} {
		if pat != nil {
			sw.u32(uint32(len(pat)))
			sw.bytes(pat)
		}
	}
	if a.Scale != nil {
		sw.u64(math.Float64bits(*a.Scale))
	}
	if a.Add != nil {
		sw.u64(math.Float64bits(*a.Add))
	}
	if v.data == nil {
		sw.u8(0)
		return
	}
	sw.u8(1)
	sw.u64(uint64(v.rawLen))
	sw.u64(uint64(len(v.data)))
	sw.bytes(v.data)
}

// ReadFrom loads a snapshot into an empty store, adopting the
// snapshot's codec. It implements io.ReaderFrom.
func (s *Store) ReadFrom(r io.Reader) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.dims) > 0 || len(s.vars) > 0 || len(s.reg.UserTypes()) > 0 {
		return 0, errors.InvalidArgument(errors.PhaseStore, "snapshot load needs an empty store")
	}
	cr := &countingReader{r: r}
	sr := &snapReader{r: bufio.NewReader(cr)}

	magic := sr.bytes(len(snapshotMagic))
	if sr.err == nil && string(magic) != snapshotMagic {
		return cr.n, errors.Corrupt(fmt.Sprintf("bad snapshot magic %q", magic), nil)
	}
	if v := sr.u8(); sr.err == nil && v != snapshotVersion {
		return cr.n, errors.Corrupt(fmt.Sprintf("unsupported snapshot version %d", v), nil)
	}
	kind := compress.Kind(sr.u8())
	codec, err := compress.Get(kind)
	if sr.err == nil && err != nil {
		return cr.n, errors.Corrupt("unknown snapshot codec", err)
	}

	ndims := sr.count(maxSnapCount)
	for i := 0; i < int(ndims) && sr.err == nil; i++ {
		name := sr.str()
		length := int64(sr.u64())
		if sr.err != nil {
			break
		}
		if length < 0 {
			sr.fail("dimension length overflows")
			break
		}
		s.dimIdx[name] = len(s.dims)
		s.dims = append(s.dims, &Dim{Name: name, Length: length})
	}

	ntypes := sr.count(maxSnapCount)
	for i := 0; i < int(ntypes) && sr.err == nil; i++ {
		s.readType(sr)
	}

	nvars := sr.count(maxSnapCount)
	for i := 0; i < int(nvars) && sr.err == nil; i++ {
		s.readVar(sr)
	}

	if sr.err != nil {
		return cr.n, errors.Corrupt("read snapshot", sr.err)
	}
	s.codec = codec
	s.ckind = kind
	Logger().Debug("loaded snapshot",
		zap.Int64("bytes", cr.n),
		zap.Int("dims", len(s.dims)),
		zap.Int("vars", len(s.vars)),
		zap.Stringer("compression", kind))
	return cr.n, nil
}

func (s *Store) readType(sr *snapReader) {
	class := sr.u8()
	name := sr.str()
	id := nctype.ID(sr.u32())
	if sr.err != nil {
		return
	}
	var t *nctype.Type
	var err error
	switch class {
	case classEnum:
		base := nctype.ID(sr.u32())
		n := sr.count(maxSnapCount)
		members := make([]nctype.Member, 0, n)
		for i := 0; i < int(n) && sr.err == nil; i++ {
			mname := sr.str()
			val := int64(sr.u64())
			members = append(members, nctype.Member{Name: mname, Value: val})
		}
		if sr.err != nil {
			return
		}
		t, err = s.reg.DefineEnum(name, base, members)
	case classOpaque:
		size := sr.u64()
		if sr.err != nil {
			return
		}
		if size > math.MaxInt32 {
			sr.fail("opaque size overflows")
			return
		}
		t, err = s.reg.DefineOpaque(name, int(size))
	case classVlen:
		elem := nctype.ID(sr.u32())
		if sr.err != nil {
			return
		}
		t, err = s.reg.DefineVlen(name, elem)
	case classCompound:
		n := sr.count(maxSnapCount)
		fields := make([]nctype.FieldDef, 0, n)
		for i := 0; i < int(n) && sr.err == nil; i++ {
			fname := sr.str()
			ftype := nctype.ID(sr.u32())
			nd := sr.count(maxSnapDims)
			dims := make([]int64, 0, nd)
			for j := 0; j < int(nd) && sr.err == nil; j++ {
				dims = append(dims, int64(sr.u64()))
			}
			fields = append(fields, nctype.FieldDef{Name: fname, Type: ftype, Dims: dims})
		}
		if sr.err != nil {
			return
		}
		t, err = s.reg.DefineCompound(name, fields)
	default:
		sr.fail("unknown type class %d", class)
		return
	}
	if err != nil {
		sr.err = err
		return
	}
	if t.ID() != id {
		sr.fail("type %q reloaded under id %d, snapshot says %d", name, t.ID(), id)
	}
}

func (s *Store) readVar(sr *snapReader) {
	name := sr.str()
	id := sr.u64()
	typeID := nctype.ID(sr.u32())
	nd := sr.count(maxSnapDims)
	dims := make([]string, 0, nd)
	for i := 0; i < int(nd) && sr.err == nil; i++ {
		di := sr.u32()
		if sr.err == nil && int(di) >= len(s.dims) {
			sr.fail("variable %q references dimension %d of %d", name, di, len(s.dims))
			return
		}
		if sr.err == nil {
			dims = append(dims, s.dims[di].Name)
		}
	}
	flags := sr.u8()
	var a Attrs
	for _, p := range []struct {
		bit uint8
		dst *[]byte
	}{
		{attrFill, &a.FillValue},
		{attrMin, &a.MinValid},
		{attrMax, &a.MaxValid},
	} {
		if flags&p.bit == 0 {
			continue
		}
		n := sr.count(maxSnapName)
		*p.dst = sr.bytes(int(n))
	}
	if flags&attrScale != 0 {
		v := math.Float64frombits(sr.u64())
		a.Scale = &v
	}
	if flags&attrAdd != 0 {
		v := math.Float64frombits(sr.u64())
		a.Add = &v
	}
	hasData := sr.u8()
	if sr.err == nil && hasData > 1 {
		sr.fail("variable %q has data flag %d", name, hasData)
		return
	}
	var data []byte
	var rawLen uint64
	if hasData == 1 {
		rawLen = sr.u64()
		dlen := sr.u64()
		if sr.err == nil && dlen > math.MaxInt32 {
			sr.fail("variable %q payload length overflows", name)
			return
		}
		data = sr.bytes(int(dlen))
	}
	if sr.err != nil {
		return
	}
	if want := xxhash.Sum64String(name); id != want {
		sr.fail("variable %q id mismatch: snapshot %d, hash %d", name, id, want)
		return
	}
	typ, err := s.reg.Lookup(typeID)
	if err != nil {
		sr.err = err
		return
	}
	if err := a.validate(typ); err != nil {
		sr.err = err
		return
	}
	if _, exists := s.vars[name]; exists {
		sr.fail("variable %q appears twice", name)
		return
	}
	v := &Variable{
		Name:   name,
		Type:   typeID,
		Dims:   dims,
		id:     id,
		attrs:  a,
		data:   data,
		rawLen: int(rawLen),
	}
	if prev, clash := s.byHash[id]; clash && prev.Name != name {
		s.hashOK = false
	}
	s.byHash[id] = v
	s.vars[name] = v
	s.varOrder = append(s.varOrder, name)
	s.stats.BytesRaw += int64(rawLen)
	s.stats.BytesStored += int64(len(data))
}

// Open loads a snapshot into a fresh store. The snapshot's codec
// overrides the configured compression for existing payloads and
// later writes.
func Open(r io.Reader, cfg Config) (*Store, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := s.ReadFrom(r); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// snapWriter writes little-endian fields with a sticky error.
type snapWriter struct {
	w   *bufio.Writer
	err error
}

func (s *snapWriter) bytes(b []byte) {
	if s.err == nil {
		_, s.err = s.w.Write(b)
	}
}

func (s *snapWriter) u8(v uint8) {
	if s.err == nil {
		s.err = s.w.WriteByte(v)
	}
}

func (s *snapWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	s.bytes(b[:])
}

func (s *snapWriter) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	s.bytes(b[:])
}

func (s *snapWriter) str(v string) {
	s.u32(uint32(len(v)))
	s.bytes([]byte(v))
}

// snapReader reads little-endian fields with a sticky error.
type snapReader struct {
	r   *bufio.Reader
	err error
}

func (s *snapReader) fail(format string, args ...any) {
	if s.err == nil {
		s.err = fmt.Errorf(format, args...)
	}
}

func (s *snapReader) bytes(n int) []byte {
	if s.err != nil {
		return nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(s.r, b); err != nil {
		s.err = err
		return nil
	}
	return b
}

func (s *snapReader) u8() uint8 {
	if s.err != nil {
		return 0
	}
	b, err := s.r.ReadByte()
	if err != nil {
		s.err = err
		return 0
	}
	return b
}

func (s *snapReader) u32() uint32 {
	b := s.bytes(4)
	if s.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (s *snapReader) u64() uint64 {
	b := s.bytes(8)
	if s.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// count reads a u32 element count, rejecting anything over the cap.
func (s *snapReader) count(limit uint32) uint32 {
	n := s.u32()
	if s.err == nil && n > limit {
		s.fail("count %d exceeds limit %d", n, limit)
		return 0
	}
	return n
}

func (s *snapReader) str() string {
	n := s.count(maxSnapName)
	return string(s.bytes(int(n)))
}
