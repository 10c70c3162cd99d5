package nctype

// RefSize is the byte width of the slot occupied by a variable-size
// element (string or vlen) inside any fixed layout: a {count, ref}
// pair of 64-bit words referencing a side table of element buffers.
// It stands in for the {length, pointer} pair of the storage format's
// in-memory API.
const RefSize = 16

// Kind identifies a wire type class: one of the fixed-width atomic
// kinds or one of the four user-defined classes.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindByte
	KindUByte
	KindShort
	KindUShort
	KindInt
	KindUInt
	KindInt64
	KindUInt64
	KindFloat
	KindDouble
	KindChar
	KindString
	KindEnum
	KindOpaque
	KindVlen
	KindCompound
)

var kindNames = [...]string{
	KindInvalid:  "invalid",
	KindByte:     "byte",
	KindUByte:    "ubyte",
	KindShort:    "short",
	KindUShort:   "ushort",
	KindInt:      "int",
	KindUInt:     "uint",
	KindInt64:    "int64",
	KindUInt64:   "uint64",
	KindFloat:    "float",
	KindDouble:   "double",
	KindChar:     "char",
	KindString:   "string",
	KindEnum:     "enum",
	KindOpaque:   "opaque",
	KindVlen:     "vlen",
	KindCompound: "compound",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsAtomic reports whether the kind is one of the built-in atomic
// types rather than a user-defined class.
func (k Kind) IsAtomic() bool {
	return k >= KindByte && k <= KindString
}

// IsNumeric reports whether the kind routes through the numeric
// conversion matrix.
func (k Kind) IsNumeric() bool {
	return k >= KindByte && k <= KindDouble
}

// IsInteger reports whether the kind is a fixed-width integer.
func (k Kind) IsInteger() bool {
	return k >= KindByte && k <= KindUInt64
}

// IsUserClass reports whether the kind is one of the user-defined
// type classes.
func (k Kind) IsUserClass() bool {
	return k >= KindEnum && k <= KindCompound
}

// Size returns the byte width of one element of an atomic kind.
// Variable-size kinds occupy a RefSize slot in fixed layouts.
// User classes report 0; their width lives on the Type.
func (k Kind) Size() int {
	switch k {
	case KindByte, KindUByte, KindChar:
		return 1
	case KindShort, KindUShort:
		return 2
	case KindInt, KindUInt, KindFloat:
		return 4
	case KindInt64, KindUInt64, KindDouble:
		return 8
	case KindString:
		return RefSize
	default:
		return 0
	}
}

// Alignment returns the required byte alignment of an atomic kind in
// a compound layout. Char aligns to 1, variable-size slots to 8.
func (k Kind) Alignment() int {
	switch k {
	case KindByte, KindUByte, KindChar:
		return 1
	case KindShort, KindUShort:
		return 2
	case KindInt, KindUInt, KindFloat:
		return 4
	case KindInt64, KindUInt64, KindDouble:
		return 8
	case KindString:
		return 8
	default:
		return 0
	}
}
