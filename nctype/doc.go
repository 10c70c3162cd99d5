// Package nctype describes the storage-side type system: the twelve
// atomic types under their fixed ids, plus user-defined enum, opaque,
// vlen and compound types allocated from FirstUserID up.
//
// A Registry is the unit of definition. Atomic types exist in every
// registry; user types are defined once, before any data conversion,
// and the resulting *Type descriptors carry everything a codec needs:
// byte width, alignment, base type, enum members and compound field
// layout. Compound offsets follow C struct rules so fixed layouts can
// be exchanged with native readers.
//
// Variable-size types (string, vlen) occupy a fixed RefSize slot in
// any containing layout; the slot holds a length and a reference
// rather than the data itself.
package nctype
