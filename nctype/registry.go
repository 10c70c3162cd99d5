package nctype

import (
	"sync"

	"github.com/scidata-io/ncbridge/errors"
)

// FieldDef declares one compound field. Dims, when present, declare a
// fixed sub-array shape for the field.
type FieldDef struct {
	Name string
	Type ID
	Dims []int64
}

// Registry holds the wire types of one dataset: the twelve atomic
// types under fixed ids plus user-defined types from FirstUserID up.
// Definition happens before conversions start; lookups are read-only
// and safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byID   map[ID]*Type
	byName map[string]*Type
	nextID ID
}

var atomicKinds = map[ID]Kind{
	ByteID:   KindByte,
	CharID:   KindChar,
	ShortID:  KindShort,
	IntID:    KindInt,
	FloatID:  KindFloat,
	DoubleID: KindDouble,
	UByteID:  KindUByte,
	UShortID: KindUShort,
	UIntID:   KindUInt,
	Int64ID:  KindInt64,
	UInt64ID: KindUInt64,
	StringID: KindString,
}

// NewRegistry returns a registry with the atomic types pre-registered.
func NewRegistry() *Registry {
	r := &Registry{
		byID:   make(map[ID]*Type, len(atomicKinds)),
		byName: make(map[string]*Type, len(atomicKinds)),
		nextID: FirstUserID,
	}
	for id, kind := range atomicKinds {
		t := &Type{id: id, kind: kind, name: kind.String(), size: kind.Size()}
		r.byID[id] = t
		r.byName[t.name] = t
	}
	return r
}

// Lookup returns the type with the given id.
func (r *Registry) Lookup(id ID) (*Type, error) {
	r.mu.RLock()
	t, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.PhaseSchema, errors.KindNotFound).
			Detail("type id %d not defined", id).Build()
	}
	return t, nil
}

// LookupName returns the type with the given name.
func (r *Registry) LookupName(name string) (*Type, error) {
	r.mu.RLock()
	t, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound(errors.PhaseSchema, "type", name)
	}
	return t, nil
}

// UserTypes returns the user-defined types in definition order.
func (r *Registry) UserTypes() []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Type, 0, len(r.byID)-len(atomicKinds))
	for id := FirstUserID; id < r.nextID; id++ {
		if t, ok := r.byID[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

func (r *Registry) insert(t *Type) (*Type, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[t.name]; exists {
		return nil, errors.Exists(errors.PhaseSchema, "type", t.name)
	}
	t.id = r.nextID
	r.nextID++
	r.byID[t.id] = t
	r.byName[t.name] = t
	return t, nil
}

// DefineEnum registers an enumeration over an integer atomic base.
// Member values must be distinct bit patterns representable in the
// base width; a 64-bit unsigned base accepts negative values as
// wrapped bit patterns.
func (r *Registry) DefineEnum(name string, base ID, members []Member) (*Type, error) {
	if name == "" {
		return nil, errors.InvalidArgument(errors.PhaseSchema, "enum type needs a name")
	}
	bt, err := r.Lookup(base)
	if err != nil {
		return nil, err
	}
	if !bt.kind.IsInteger() {
		return nil, errors.InvalidArgument(errors.PhaseSchema,
			"enum base must be an integer atomic type, got %s", bt.kind)
	}
	if len(members) == 0 {
		return nil, errors.InvalidArgument(errors.PhaseSchema, "enum type %q needs at least one member", name)
	}

	names := make(map[string]struct{}, len(members))
	patterns := make(map[uint64]struct{}, len(members))
	for _, m := range members {
		if m.Name == "" {
			return nil, errors.InvalidArgument(errors.PhaseSchema, "enum type %q has an unnamed member", name)
		}
		if _, dup := names[m.Name]; dup {
			return nil, errors.Exists(errors.PhaseSchema, "enum member", m.Name)
		}
		names[m.Name] = struct{}{}
		if err := checkMemberFits(m.Value, bt.kind); err != nil {
			return nil, err
		}
		bits := truncBits(uint64(m.Value), bt.size)
		if _, dup := patterns[bits]; dup {
			return nil, errors.InvalidArgument(errors.PhaseSchema,
				"enum type %q: duplicate member value %#x", name, bits)
		}
		patterns[bits] = struct{}{}
	}

	t := &Type{
		kind:    KindEnum,
		name:    name,
		size:    bt.size,
		base:    bt,
		members: append([]Member(nil), members...),
	}
	return r.insert(t)
}

func checkMemberFits(v int64, base Kind) error {
	var lo, hi int64
	switch base {
	case KindByte:
		lo, hi = -0x80, 0x7f
	case KindUByte:
		lo, hi = 0, 0xff
	case KindShort:
		lo, hi = -0x8000, 0x7fff
	case KindUShort:
		lo, hi = 0, 0xffff
	case KindInt:
		lo, hi = -0x80000000, 0x7fffffff
	case KindUInt:
		lo, hi = 0, 0xffffffff
	default:
		// 64-bit bases hold any bit pattern.
		return nil
	}
	if v < lo || v > hi {
		return errors.InvalidArgument(errors.PhaseSchema,
			"enum member value %d does not fit base %s", v, base)
	}
	return nil
}

// DefineOpaque registers a fixed-width blob type.
func (r *Registry) DefineOpaque(name string, size int) (*Type, error) {
	if name == "" {
		return nil, errors.InvalidArgument(errors.PhaseSchema, "opaque type needs a name")
	}
	if size <= 0 {
		return nil, errors.InvalidArgument(errors.PhaseSchema, "opaque type %q needs a positive size", name)
	}
	return r.insert(&Type{kind: KindOpaque, name: name, size: size})
}

// DefineVlen registers a variable-length array type over any element
// type, atomic or user-defined.
func (r *Registry) DefineVlen(name string, elem ID) (*Type, error) {
	if name == "" {
		return nil, errors.InvalidArgument(errors.PhaseSchema, "vlen type needs a name")
	}
	et, err := r.Lookup(elem)
	if err != nil {
		return nil, err
	}
	return r.insert(&Type{kind: KindVlen, name: name, size: RefSize, base: et})
}

// DefineCompound registers a record type. Field offsets follow C
// struct layout: each field aligned to its own alignment, the total
// size padded to the widest alignment.
func (r *Registry) DefineCompound(name string, fields []FieldDef) (*Type, error) {
	if name == "" {
		return nil, errors.InvalidArgument(errors.PhaseSchema, "compound type needs a name")
	}
	if len(fields) == 0 {
		return nil, errors.InvalidArgument(errors.PhaseSchema, "compound type %q needs at least one field", name)
	}

	seen := make(map[string]struct{}, len(fields))
	laid := make([]Field, 0, len(fields))
	offset := 0
	maxAlign := 1
	for _, fd := range fields {
		if fd.Name == "" {
			return nil, errors.InvalidArgument(errors.PhaseSchema, "compound type %q has an unnamed field", name)
		}
		if _, dup := seen[fd.Name]; dup {
			return nil, errors.Exists(errors.PhaseSchema, "compound field", fd.Name)
		}
		seen[fd.Name] = struct{}{}

		ft, err := r.Lookup(fd.Type)
		if err != nil {
			return nil, err
		}
		count := int64(1)
		for _, d := range fd.Dims {
			if d <= 0 {
				return nil, errors.InvalidArgument(errors.PhaseSchema,
					"compound field %q has a non-positive dim %d", fd.Name, d)
			}
			count *= d
			if count > int64(1)<<40 {
				return nil, errors.Overflow(errors.PhaseSchema, "compound field size exceeds limit")
			}
		}

		align := ft.Alignment()
		offset = alignUp(offset, align)
		laid = append(laid, Field{
			Name:   fd.Name,
			Offset: offset,
			Type:   ft,
			Dims:   append([]int64(nil), fd.Dims...),
		})
		offset += ft.Size() * int(count)
		if align > maxAlign {
			maxAlign = align
		}
	}

	t := &Type{
		kind:   KindCompound,
		name:   name,
		size:   alignUp(offset, maxAlign),
		align:  maxAlign,
		fields: laid,
	}
	return r.insert(t)
}

func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	rem := n % align
	if rem == 0 {
		return n
	}
	return n + align - rem
}
