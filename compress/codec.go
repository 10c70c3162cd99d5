package compress

import "fmt"

// Kind identifies a compression algorithm in stored payload headers.
type Kind uint8

const (
	None Kind = 0x1 // no compression
	Zstd Kind = 0x2 // Zstandard
	S2   Kind = 0x3 // S2 (Snappy-compatible superset)
	LZ4  Kind = 0x4 // LZ4 block format
)

// String returns the algorithm name.
func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	case S2:
		return "s2"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(0x%x)", uint8(k))
	}
}

// ParseKind maps an algorithm name, as written in configuration or a
// dataset header, to its Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "none", "":
		return None, nil
	case "zstd":
		return Zstd, nil
	case "s2":
		return S2, nil
	case "lz4":
		return LZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// Compressor compresses one payload at a time.
//
// The returned slice is newly allocated and owned by the caller; the
// input is never modified. Implementations may reuse internal scratch
// between calls.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a payload compressed by the matching
// Compressor. Corrupted or foreign input returns an error rather than
// garbage.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions of one algorithm. All built-in
// codecs are stateless values, safe for concurrent use.
type Codec interface {
	Compressor
	Decompressor
}

var builtin = map[Kind]Codec{
	None: NewNoOpCodec(),
	Zstd: NewZstdCodec(),
	S2:   NewS2Codec(),
	LZ4:  NewLZ4Codec(),
}

// Get returns the built-in codec for the given kind.
func Get(k Kind) (Codec, error) {
	if c, ok := builtin[k]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("unsupported compression: %s", k)
}
