package memstore

import (
	"math"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/maypok86/otter"
	"go.uber.org/zap"

	"github.com/scidata-io/ncbridge/arena"
	"github.com/scidata-io/ncbridge/compress"
	"github.com/scidata-io/ncbridge/errors"
	"github.com/scidata-io/ncbridge/nctype"
	"github.com/scidata-io/ncbridge/transcoder"
)

// defaultCacheBytes caps the decompressed-payload cache when the
// configuration leaves it unset.
const defaultCacheBytes = 64 << 20

// Config carries store construction options. The zero value stores
// payloads uncompressed behind the default cache.
type Config struct {
	// Compression selects the payload codec. Zero means none.
	Compression compress.Kind

	// CacheBytes bounds the decompressed-payload cache. Zero picks the
	// default; negative disables caching.
	CacheBytes int64
}

// Stats are cumulative operation counters. Loaned and released buffer
// counts match after every completed read; a persistent gap means a
// conversion dropped a run it should have consumed.
type Stats struct {
	CacheHits       uint64
	CacheMisses     uint64
	BuffersLoaned   uint64
	BuffersReleased uint64
	BytesRaw        int64 // serialized payload bytes before compression
	BytesStored     int64 // payload bytes held after compression
}

// Dim is one named extent shared by variable shapes.
type Dim struct {
	Name   string
	Length int64
}

// Variable is one typed array under named dimensions. Definition
// fields are read-only once defined; data arrives through PutVar and
// PutSlice.
type Variable struct {
	Name string
	Type nctype.ID
	Dims []string // slowest-varying first

	id     uint64 // advisory name hash
	attrs  Attrs
	data   []byte // compressed payload, nil until written
	rawLen int
}

// ID returns the variable's name hash. It indexes lookups until a
// collision disables it.
func (v *Variable) ID() uint64 { return v.id }

// HasData reports whether the variable has been written.
func (v *Variable) HasData() bool { return v.data != nil }

// StoredBytes returns the compressed payload size.
func (v *Variable) StoredBytes() int { return len(v.data) }

// RawBytes returns the serialized payload size before compression.
func (v *Variable) RawBytes() int { return v.rawLen }

// Attrs returns a copy of the variable's conversion attributes.
func (v *Variable) Attrs() Attrs { return v.attrs.clone() }

// Store is an in-memory dataset: named dimensions, typed variables
// and their compressed payloads, with conversion to and from host
// values on every access. All methods are safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	reg   *nctype.Registry
	tr    *transcoder.Transcoder
	codec compress.Codec
	ckind compress.Kind

	dims   []*Dim
	dimIdx map[string]int

	varOrder []string
	vars     map[string]*Variable

	// Advisory hash index in front of the name map. A collision
	// flips hashOK off and resolution falls back to exact names.
	byHash map[uint64]*Variable
	hashOK bool

	cache    otter.Cache[string, []byte]
	useCache bool

	stats Stats
}

// New creates an empty store with its own type registry.
func New(cfg Config) (*Store, error) {
	kind := cfg.Compression
	if kind == 0 {
		kind = compress.None
	}
	codec, err := compress.Get(kind)
	if err != nil {
		return nil, errors.InvalidArgument(errors.PhaseStore, "compression: %v", err)
	}
	s := &Store{
		reg:    nctype.NewRegistry(),
		codec:  codec,
		ckind:  kind,
		dimIdx: make(map[string]int),
		vars:   make(map[string]*Variable),
		byHash: make(map[uint64]*Variable),
		hashOK: true,
	}
	s.tr = transcoder.New(s.reg, arena.New())
	cacheBytes := cfg.CacheBytes
	if cacheBytes == 0 {
		cacheBytes = defaultCacheBytes
	}
	if cacheBytes > 0 {
		if cacheBytes > math.MaxInt32 {
			cacheBytes = math.MaxInt32
		}
		builder, err := otter.NewBuilder[string, []byte](int(cacheBytes))
		if err != nil {
			return nil, errors.InvalidArgument(errors.PhaseStore, "cache: %v", err)
		}
		s.cache, err = builder.
			Cost(func(key string, value []byte) uint32 {
				return uint32(len(key) + len(value))
			}).
			Build()
		if err != nil {
			return nil, errors.InvalidArgument(errors.PhaseStore, "cache: %v", err)
		}
		s.useCache = true
	}
	return s, nil
}

// Close releases the payload cache. The store is unusable afterward.
func (s *Store) Close() {
	if s.useCache {
		s.cache.Close()
		s.useCache = false
	}
}

// Registry exposes the store's type registry for user type
// definitions. Define types before the variables that use them.
func (s *Store) Registry() *nctype.Registry { return s.reg }

// Compression returns the payload codec kind.
func (s *Store) Compression() compress.Kind { return s.ckind }

// Stats returns a snapshot of the operation counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// DefineDim registers a named extent. Lengths are fixed at
// definition.
func (s *Store) DefineDim(name string, length int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		return errors.InvalidArgument(errors.PhaseStore, "dimension name is empty")
	}
	if length < 0 {
		return errors.InvalidArgument(errors.PhaseStore, "dimension %q has negative length %d", name, length)
	}
	if _, exists := s.dimIdx[name]; exists {
		return errors.Exists(errors.PhaseStore, "dimension", name)
	}
	s.dimIdx[name] = len(s.dims)
	s.dims = append(s.dims, &Dim{Name: name, Length: length})
	return nil
}

// Dim returns a defined dimension.
func (s *Store) Dim(name string) (Dim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.dimIdx[name]
	if !ok {
		return Dim{}, errors.NotFound(errors.PhaseStore, "dimension", name)
	}
	return *s.dims[i], nil
}

// Dims returns the dimensions in definition order.
func (s *Store) Dims() []Dim {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Dim, len(s.dims))
	for i, d := range s.dims {
		out[i] = *d
	}
	return out
}

// DefineVar registers a variable of the given type over previously
// defined dimensions, slowest-varying first. No dimensions declare a
// scalar.
func (s *Store) DefineVar(name string, typeID nctype.ID, dims ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		return errors.InvalidArgument(errors.PhaseStore, "variable name is empty")
	}
	if _, exists := s.vars[name]; exists {
		return errors.Exists(errors.PhaseStore, "variable", name)
	}
	if _, err := s.reg.Lookup(typeID); err != nil {
		return err
	}
	for _, d := range dims {
		if _, ok := s.dimIdx[d]; !ok {
			return errors.NotFound(errors.PhaseStore, "dimension", d)
		}
	}
	v := &Variable{
		Name: name,
		Type: typeID,
		Dims: append([]string(nil), dims...),
		id:   xxhash.Sum64String(name),
	}
	if prev, clash := s.byHash[v.id]; clash && prev.Name != name {
		s.hashOK = false
		Logger().Warn("variable id collision, falling back to name resolution",
			zap.String("variable", name),
			zap.String("existing", prev.Name),
			zap.Uint64("id", v.id))
	}
	s.byHash[v.id] = v
	s.vars[name] = v
	s.varOrder = append(s.varOrder, name)
	return nil
}

// Var returns a defined variable.
func (s *Store) Var(name string) (*Variable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vars[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseStore, "variable", name)
	}
	return v, nil
}

// VarByID resolves a variable through the advisory hash index. It
// reports false once a collision has disabled the index; resolve by
// exact name then.
func (s *Store) VarByID(id uint64) (*Variable, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hashOK {
		return nil, false
	}
	v, ok := s.byHash[id]
	return v, ok
}

// VarNames returns the variable names in definition order.
func (s *Store) VarNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.varOrder...)
}

// SetAttrs replaces a variable's conversion attributes. Fill and
// validity patterns must match the wire element size; packing factors
// apply to numeric types only.
func (s *Store) SetAttrs(name string, a Attrs) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vars[name]
	if !ok {
		return errors.NotFound(errors.PhaseStore, "variable", name)
	}
	typ, err := s.reg.Lookup(v.Type)
	if err != nil {
		return err
	}
	if err := a.validate(typ); err != nil {
		return err
	}
	v.attrs = a.clone()
	return nil
}

// lookupVar resolves a variable and its type under the lock.
func (s *Store) lookupVar(name string) (*Variable, *nctype.Type, error) {
	v, ok := s.vars[name]
	if !ok {
		return nil, nil, errors.NotFound(errors.PhaseStore, "variable", name)
	}
	typ, err := s.reg.Lookup(v.Type)
	if err != nil {
		return nil, nil, err
	}
	return v, typ, nil
}

// dimLengths resolves a variable's dimension lengths, slowest first.
func (s *Store) dimLengths(v *Variable) []int64 {
	lens := make([]int64, len(v.Dims))
	for i, d := range v.Dims {
		lens[i] = s.dims[s.dimIdx[d]].Length
	}
	return lens
}

// varShape builds the full-extent conversion shape for a variable.
func (s *Store) varShape(v *Variable) transcoder.Shape {
	if len(v.Dims) == 0 {
		return transcoder.Scalar()
	}
	return transcoder.Array(s.dimLengths(v)...)
}
