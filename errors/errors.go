package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseSchema Phase = "schema" // type definition and lookup
	PhaseShape  Phase = "shape"  // dimension and length handling
	PhaseEncode Phase = "encode" // host to wire
	PhaseDecode Phase = "decode" // wire to host
	PhaseAlloc  Phase = "alloc"  // scoped allocation
	PhaseStore  Phase = "store"  // dataset storage operations
)

// Kind categorizes the error
type Kind string

const (
	KindRange            Kind = "range"              // value outside destination bounds on write
	KindMissingValue     Kind = "missing_value"      // missing value with no fill configured
	KindDataLength       Kind = "data_length"        // host container shorter than the shape demands
	KindUnsupportedType  Kind = "unsupported_type"   // no codec for the host/wire kind pair
	KindUnmatchedLevel   Kind = "unmatched_level"    // factor level with no enum member
	KindUnknownEnumValue Kind = "unknown_enum_value" // wire enum value with no member
	KindInvalidLength    Kind = "invalid_length"     // non-finite or missing shape element
	KindOverflow         Kind = "overflow"           // count or size arithmetic overflow
	KindInvalidArgument  Kind = "invalid_argument"   // malformed request parameter
	KindNotFound         Kind = "not_found"          // unknown type, dimension or variable
	KindExists           Kind = "exists"             // duplicate definition
	KindCorrupt          Kind = "corrupt"            // undecodable stored payload
	KindIO               Kind = "io"                 // snapshot or codec transport failure
)

// Error is the structured error type used throughout the library
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	HostKind string
	WireType string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.HostKind != "" || e.WireType != "" {
		b.WriteString(": ")
		if e.HostKind != "" && e.WireType != "" {
			b.WriteString("host kind ")
			b.WriteString(e.HostKind)
			b.WriteString(", wire type ")
			b.WriteString(e.WireType)
		} else if e.HostKind != "" {
			b.WriteString("host kind ")
			b.WriteString(e.HostKind)
		} else {
			b.WriteString("wire type ")
			b.WriteString(e.WireType)
		}
	}

	if e.Detail != "" {
		if e.HostKind != "" || e.WireType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// HostKind sets the host value kind name
func (b *Builder) HostKind(k string) *Builder {
	b.err.HostKind = k
	return b
}

// WireType sets the wire type name
func (b *Builder) WireType(t string) *Builder {
	b.err.WireType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Range creates a range error for a value outside the destination bounds
func Range(phase Phase, path []string, value any, wireType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindRange,
		Path:     path,
		WireType: wireType,
		Detail:   fmt.Sprintf("value %v outside valid range of %s", value, wireType),
		Value:    value,
	}
}

// MissingValue creates an error for a missing value with no fill configured
func MissingValue(phase Phase, path []string, wireType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindMissingValue,
		Path:     path,
		WireType: wireType,
		Detail:   "missing values sent without conversion to a fill value",
	}
}

// DataLength creates an error for a host container shorter than the shape demands
func DataLength(phase Phase, path []string, have, want int64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDataLength,
		Path:   path,
		Detail: fmt.Sprintf("data length %d shorter than %d elements required by shape", have, want),
	}
}

// UnsupportedType creates an error for a host/wire pair with no codec
func UnsupportedType(phase Phase, hostKind, wireType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindUnsupportedType,
		HostKind: hostKind,
		WireType: wireType,
		Detail:   "no conversion between host kind and wire type",
	}
}

// UnmatchedLevel creates an error for a factor level with no enum member
func UnmatchedLevel(phase Phase, path []string, level, enumType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindUnmatchedLevel,
		Path:     path,
		WireType: enumType,
		Detail:   fmt.Sprintf("level %q has no matching member in enum type", level),
		Value:    level,
	}
}

// UnknownEnumValue creates an error for a wire enum value with no member
func UnknownEnumValue(phase Phase, path []string, bits uint64, enumType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindUnknownEnumValue,
		Path:     path,
		WireType: enumType,
		Detail:   fmt.Sprintf("enum value %#x not defined by type", bits),
		Value:    bits,
	}
}

// InvalidLength creates an error for a bad shape element
func InvalidLength(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidLength,
		Detail: detail,
	}
}

// Overflow creates an error for count or size arithmetic overflow
func Overflow(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Detail: detail,
	}
}

// InvalidArgument creates an error for a malformed request parameter
func InvalidArgument(phase Phase, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidArgument,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Exists creates a duplicate-definition error
func Exists(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindExists,
		Detail: fmt.Sprintf("%s %q already defined", what, name),
	}
}

// Corrupt creates an error for an undecodable stored payload
func Corrupt(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseStore,
		Kind:   KindCorrupt,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
