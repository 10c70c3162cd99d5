// Package memstore is an in-memory dataset backing the conversion
// pipeline: named dimensions, typed variables, per-variable
// conversion attributes, compressed payload storage and snapshot
// serialization.
//
// A store owns a type registry and a transcoder. Writes convert host
// values to wire form, flatten the wire tree and compress it; reads
// decompress through a size-bounded cache and convert back. The
// variable's attributes, fill pattern, validity bounds and packing
// factors, apply on both directions without per-call flags.
//
//	st, _ := memstore.New(memstore.Config{Compression: compress.Zstd})
//	st.DefineDim("time", 365)
//	st.DefineVar("temp", nctype.FloatID, "time")
//	st.PutVar("temp", hostval.Float64s(readings))
//	v, _ := st.GetVar("temp", memstore.GetOptions{})
//
// Hyperslab access goes through PutSlice and GetSlice for types with
// a fixed element layout. Whole stores serialize with WriteTo and
// load back with Open.
package memstore
