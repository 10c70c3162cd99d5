package hostval

// Kind identifies the dynamic type of a host value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt32
	KindFloat64
	KindInt64
	KindString
	KindBytes
	KindList
	KindFactor
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindInt32:   "int32",
	KindFloat64: "float64",
	KindInt64:   "int64",
	KindString:  "string",
	KindBytes:   "bytes",
	KindList:    "list",
	KindFactor:  "factor",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsNumeric reports whether values of this kind route through the
// numeric conversion matrix. Factor codes are numeric when the target
// is not an enum.
func (k Kind) IsNumeric() bool {
	switch k {
	case KindInt32, KindFloat64, KindInt64, KindFactor:
		return true
	default:
		return false
	}
}
