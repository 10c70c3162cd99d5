package compress

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func allCodecs() map[string]Codec {
	return map[string]Codec{
		"none": NewNoOpCodec(),
		"zstd": NewZstdCodec(),
		"s2":   NewS2Codec(),
		"lz4":  NewLZ4Codec(),
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{None, "none"},
		{Zstd, "zstd"},
		{S2, "s2"},
		{LZ4, "lz4"},
		{Kind(0x9), "unknown(0x9)"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, tt.kind.String())
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{None, Zstd, S2, LZ4} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		require.Equal(t, k, got)
	}

	got, err := ParseKind("")
	require.NoError(t, err)
	require.Equal(t, None, got)

	_, err = ParseKind("brotli")
	require.Error(t, err)
}

func TestGet(t *testing.T) {
	for _, k := range []Kind{None, Zstd, S2, LZ4} {
		codec, err := Get(k)
		require.NoError(t, err)
		require.NotNil(t, codec)
	}

	_, err := Get(Kind(0x9))
	require.Error(t, err)
}

func TestAllCodecsEmptyData(t *testing.T) {
	for name, codec := range allCodecs() {
		t.Run(name, func(t *testing.T) {
			compressed, err := codec.Compress(nil)
			require.NoError(t, err)
			require.Empty(t, compressed)

			decompressed, err := codec.Decompress(nil)
			require.NoError(t, err)
			require.Empty(t, decompressed)
		})
	}
}

func TestAllCodecsRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{name: "small_text", data: []byte("surface temperature, kelvin")},
		{name: "repeated_pattern", data: bytes.Repeat([]byte{0x10, 0x27, 0, 0}, 512)},
		{name: "single_byte", data: []byte{0x42}},
		{
			name: "float_run",
			data: func() []byte {
				data := make([]byte, 8192)
				for i := range data {
					data[i] = byte((i * 7) % 251)
				}
				return data
			}(),
		},
		{name: "zeros", data: make([]byte, 1<<16)},
	}

	for codecName, codec := range allCodecs() {
		t.Run(codecName, func(t *testing.T) {
			for _, tc := range testCases {
				t.Run(tc.name, func(t *testing.T) {
					compressed, err := codec.Compress(tc.data)
					require.NoError(t, err)

					decompressed, err := codec.Decompress(compressed)
					require.NoError(t, err)
					require.Equal(t, tc.data, decompressed)
				})
			}
		})
	}
}

func TestCompressedDataErrors(t *testing.T) {
	// Codecs with framing must reject garbage instead of returning it.
	garbage := []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03}
	for _, name := range []string{"zstd", "s2"} {
		t.Run(name, func(t *testing.T) {
			codec := allCodecs()[name]
			_, err := codec.Decompress(garbage)
			require.Error(t, err)
		})
	}
}

func TestConcurrentUse(t *testing.T) {
	data := bytes.Repeat([]byte("level pressure 101325 pa "), 256)
	for name, codec := range allCodecs() {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 50; j++ {
						compressed, err := codec.Compress(data)
						if err != nil {
							t.Error(err)
							return
						}
						decompressed, err := codec.Decompress(compressed)
						if err != nil {
							t.Error(err)
							return
						}
						if !bytes.Equal(data, decompressed) {
							t.Error("round trip mismatch")
							return
						}
					}
				}()
			}
			wg.Wait()
		})
	}
}
