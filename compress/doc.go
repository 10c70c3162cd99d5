// Package compress provides the payload codecs for stored variable
// data.
//
// Variable payloads are compressed after conversion to the wire
// layout and decompressed before conversion back, one whole payload
// per call. The algorithm travels in the dataset header as a Kind
// byte, so any build can read any dataset.
//
// # Algorithms
//
//   - None: pass-through, for dense or incompressible payloads
//   - Zstd: best ratio, for archival data
//   - S2:   balanced ratio and speed
//   - LZ4:  fastest decompression, for read-heavy data
//
// All built-in codecs are stateless values and safe for concurrent
// use; internal scratch is pooled where the underlying library
// benefits from reuse.
//
// # Choosing
//
//	codec, err := compress.Get(compress.LZ4)
//	if err != nil { ... }
//	packed, err := codec.Compress(payload)
//	...
//	payload, err = codec.Decompress(packed)
//
// Zstd binds the reference C library under cgo and falls back to the
// pure-Go port otherwise; both produce the standard frame format.
package compress
