package compress

// NoOpCodec passes payloads through untouched, for data that is
// already dense (packed integers, opaque blobs) or when CPU matters
// more than storage.
//
// Both directions return the input slice itself without copying, so
// callers must not modify a payload they still hold the other end of.
type NoOpCodec struct{}

var _ Codec = (*NoOpCodec)(nil)

// NewNoOpCodec returns the pass-through codec.
func NewNoOpCodec() NoOpCodec {
	return NoOpCodec{}
}

// Compress returns data unchanged.
func (NoOpCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data unchanged.
func (NoOpCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
