package ncbridge

// Allocator provides request-scoped scratch memory for conversions.
// Buffers live until the enclosing scope resets or releases the
// allocator; the engine never frees them individually.
//
// Alloc returns a zeroed buffer aligned to 8 bytes, so callers may
// reinterpret it as a slice of any fixed-width numeric type.
type Allocator interface {
	Alloc(n int) []byte

	// Mark returns the current high-water position. Reset rolls the
	// allocator back to a previous mark, reclaiming every buffer
	// handed out since. Buffers obtained before the mark stay valid.
	Mark() int64
	Reset(mark int64)
}
