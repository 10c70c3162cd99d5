package nctype

// ID identifies a type within a registry. Atomic types occupy fixed
// low ids; user-defined types are assigned ids from FirstUserID up.
type ID int32

// Atomic type ids, stable across registries.
const (
	InvalidID ID = 0
	ByteID    ID = 1
	CharID    ID = 2
	ShortID   ID = 3
	IntID     ID = 4
	FloatID   ID = 5
	DoubleID  ID = 6
	UByteID   ID = 7
	UShortID  ID = 8
	UIntID    ID = 9
	Int64ID   ID = 10
	UInt64ID  ID = 11
	StringID  ID = 12

	// FirstUserID is the first id handed to a user-defined type.
	FirstUserID ID = 32
)

// Member is one (name, value) pair of an enum type. Value holds the
// member's bits; for unsigned base kinds it is reinterpreted at the
// base's width, so large unsigned values wrap through negatives.
type Member struct {
	Name  string
	Value int64
}

// Field is one named, offset-addressed member of a compound type.
// Dims, when present, make the field a fixed-shape sub-array; Size
// already accounts for the element count.
type Field struct {
	Name   string
	Offset int
	Type   *Type
	Dims   []int64
}

// Count returns the number of elements in one field slot.
func (f Field) Count() int64 {
	n := int64(1)
	for _, d := range f.Dims {
		n *= d
	}
	return n
}

// Type describes one wire type: an atomic kind or a user-defined
// enum, opaque, vlen or compound. Descriptors are built by a Registry
// and read-only afterward.
type Type struct {
	id   ID
	kind Kind
	name string
	size int

	base    *Type    // enum base or vlen element type
	members []Member // enum
	fields  []Field  // compound
	align   int      // compound alignment
}

func (t *Type) ID() ID       { return t.id }
func (t *Type) Kind() Kind   { return t.kind }
func (t *Type) Name() string { return t.name }

// Size returns the byte width of one element: the atomic width, the
// enum base width, the opaque width, the padded compound width, or
// the RefSize slot width for string and vlen.
func (t *Type) Size() int { return t.size }

// Alignment returns the required byte alignment within a compound
// layout.
func (t *Type) Alignment() int {
	switch t.kind {
	case KindEnum:
		return t.base.Alignment()
	case KindOpaque:
		return 1
	case KindVlen:
		return 8
	case KindCompound:
		return t.align
	default:
		return t.kind.Alignment()
	}
}

// Base returns the enum base type or the vlen element type.
func (t *Type) Base() *Type { return t.base }

// Members returns the ordered member set of an enum type.
func (t *Type) Members() []Member { return t.members }

// Fields returns the ordered field set of a compound type.
func (t *Type) Fields() []Field { return t.fields }

// MemberBits returns member i's value truncated to the base width,
// the exact bit pattern stored on the wire.
func (t *Type) MemberBits(i int) uint64 {
	return truncBits(uint64(t.members[i].Value), t.base.size)
}

func truncBits(bits uint64, size int) uint64 {
	if size >= 8 {
		return bits
	}
	return bits & (1<<(8*size) - 1)
}
