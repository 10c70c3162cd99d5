package compress

// ZstdCodec gives the best ratio of the built-in algorithms, suited
// to archival datasets and payloads written once and read rarely.
//
// Two implementations back the same type: a cgo build binds the
// reference zstd library, a pure-Go build uses klauspost's port. The
// wire format is identical either way.
type ZstdCodec struct{}

var _ Codec = (*ZstdCodec)(nil)

// NewZstdCodec returns a Zstandard codec.
func NewZstdCodec() ZstdCodec {
	return ZstdCodec{}
}
