// Package transcoder converts host values to and from the wire layout
// of a scientific array store's type system.
//
// This package is the conversion engine: it takes dynamically typed
// host vectors (hostval) and produces the packed binary layout of a
// registered wire type (nctype), and back, honoring per-variable
// fill, valid-range and packing conventions.
//
//	┌────────────────────────────────────────────────────────────┐
//	│ hostval.Value ←→ [Transcoder] ←→ WireData (storage layout) │
//	└────────────────────────────────────────────────────────────┘
//
// # Wire Layout
//
// Fixed-width data is packed contiguously at the type's element
// width. Variable-size types occupy 16-byte slots referencing a side
// table of element buffers:
//
//	Type            Element layout
//	───────────────────────────────────────────────
//	byte..double    1/2/4/8-byte native elements
//	char            bytes, one string per fastest dim
//	string          {count, ref} slot + side table
//	enum            base-type bit patterns
//	opaque          size bytes per element, verbatim
//	vlen            {count, ref} slot + side table
//	compound        padded C struct layout per element
//
// # Key Types
//
//	Transcoder  - converts against one type registry
//	WireData    - one conversion result: bytes + side table
//	Shape       - scalar, flat vector or dimensioned array extent
//	Options     - fill, valid range, scale/add, container flags
//	Decode      - staged read: expose wire buffer, fill, Finish
//
// # Write Flow
//
//  1. Encode(value, typeID, shape, opts) → *WireData
//  2. Hand WireData to the storage layer.
//  3. Reset the allocator scope; the WireData is dead.
//
// Writes are strict: a value outside the destination's range fails
// with a range error, a missing value without a configured fill fails
// with a missing-value error, a short host container fails with a
// data-length error. A failed conversion exposes no partial buffer.
//
// # Read Flow
//
//  1. StartDecode(typeID, shape, opts, nil) → *Decode
//  2. Fill Decode.Wire().Bytes with raw elements.
//  3. Decode.Finish() → hostval.Value
//
// Reads never fail on data values: fill matches and values outside
// the valid range become the host missing sentinel. Decode (the
// one-step form) converts an already-filled WireData directly.
//
// # In-Place Conversion
//
// For numeric, raw-text and opaque reads the staged wire buffer
// aliases the host container's storage, and conversion walks
// backwards from the last element so widening in place never clobbers
// unread input. Encode aliases host storage for identity numeric
// conversions; the missing and range checks still run over every
// element.
//
// # Buffer Ownership
//
// Scratch comes from the Transcoder's allocator; callers bracket each
// conversion scope with Mark and Reset. Storage-owned buffers carry a
// release hook (WireData.SetRelease) which the read path runs once
// consumed: per element for vlen data, once per string array unless
// it has zero elements.
//
// # Thread Safety
//
// A Transcoder and its allocator serve one goroutine at a time. The
// registry it reads is safe for concurrent use; run concurrent
// conversions with separate Transcoder instances.
//
// # Error Handling
//
// Errors use the structured types from the errors package:
//
//	[encode] range: value 300 outside valid range of ubyte
//	[encode] unmatched_level at reading.kind: level "x" has no matching member in enum type
package transcoder
