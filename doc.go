// Package ncbridge converts values between a dynamically typed host data
// model and the self-describing binary type system of a scientific array
// store.
//
// The host side has few numeric kinds (one integer, one floating, one
// wide 64-bit integer) plus strings, raw bytes, lists and labeled-integer
// factors, each with its own missing-value convention. The wire side has
// many fixed-width numeric types, fixed- and variable-length character
// data, and four user-defined classes: enumerations, opaque blobs,
// variable-length arrays and padded compound records, nesting arbitrarily.
// The engine detects every value that cannot round-trip (overflow,
// precision loss, unmapped missing value) and fails rather than corrupt
// data, and applies fill/valid-range/packing conventions per variable.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	ncbridge/            Root package with the scoped Allocator interface
//	├── transcoder/      The conversion engine: encode, three-phase decode, codecs
//	├── hostval/         Closed tagged-variant host value model with NA sentinels
//	├── nctype/          Wire type system: atomic kinds, user types, registry
//	├── arena/           Request-scoped bump allocator with mark/rollback
//	├── memstore/        In-memory array store driving the engine end to end
//	├── compress/        Payload codecs: none, lz4, s2, zstd (cgo and pure)
//	└── errors/          Structured conversion errors
//
// # Quick Start
//
// Define a variable, write host data, read it back:
//
//	store, err := memstore.New(memstore.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	store.DefineDim("time", 4)
//	store.DefineVar("temp", nctype.DoubleID, "time")
//
//	err = store.PutVar("temp", hostval.Float64s([]float64{21.4, 21.5, 21.7, 21.9}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	got, err := store.GetVar("temp", memstore.GetOptions{})
//	fmt.Println(got.Float64s()) // [21.4 21.5 21.7 21.9]
//
// The engine itself is usable without the store:
//
//	reg := nctype.NewRegistry()
//	tr := transcoder.New(reg, arena.New())
//	wire, err := tr.Encode(hostval.Int32s(codes), nctype.IntID, transcoder.Vector(3), nil)
//
// # Conversion Semantics
//
// Writes are strict: an out-of-range value fails with a range error, a
// missing value without a configured fill fails with a missing-value
// error, and nothing of a failed conversion is exposed. Reads never fail
// on data values: fill matches and out-of-valid-range values map to the
// host missing sentinel. Packed variables (scale/add) store
// round((v-add)/scale) and read back v*scale + add.
//
// # Thread Safety
//
// Registry and Store are safe for concurrent use. A Transcoder call and
// its buffers belong to a single goroutine; run concurrent conversions
// with separate allocators.
package ncbridge
