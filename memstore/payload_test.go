package memstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scidata-io/ncbridge/errors"
	"github.com/scidata-io/ncbridge/hostval"
	"github.com/scidata-io/ncbridge/nctype"
	"github.com/scidata-io/ncbridge/transcoder"
)

func sameTree(t *testing.T, want, got *transcoder.WireData) {
	t.Helper()
	require.Equal(t, want.Bytes, got.Bytes)
	require.Equal(t, len(want.Elems), len(got.Elems))
	for i := range want.Elems {
		sameTree(t, want.Elems[i], got.Elems[i])
	}
}

func TestPayloadFlattenParse(t *testing.T) {
	tree := &transcoder.WireData{
		Bytes: []byte{1, 2, 3},
		Elems: []*transcoder.WireData{
			{Bytes: []byte("abc"), Elems: []*transcoder.WireData{{Bytes: []byte("x")}}},
			{Bytes: []byte{}},
		},
	}
	flat := flattenPayload(tree)
	require.Len(t, flat, payloadSize(tree))

	got, err := parsePayload(flat)
	require.NoError(t, err)
	sameTree(t, tree, got)
}

func TestPayloadCorrupt(t *testing.T) {
	tree := &transcoder.WireData{
		Bytes: []byte("payload"),
		Elems: []*transcoder.WireData{{Bytes: []byte("elem")}},
	}
	flat := flattenPayload(tree)

	for _, cut := range []int{0, 4, 10, len(flat) - 3} {
		_, err := parsePayload(flat[:cut])
		requireKind(t, err, errors.PhaseStore, errors.KindCorrupt)
	}

	_, err := parsePayload(append(append([]byte(nil), flat...), 0xee))
	requireKind(t, err, errors.PhaseStore, errors.KindCorrupt)
}

func TestLoanRelease(t *testing.T) {
	s := newStore(t, Config{})
	w := &transcoder.WireData{Bytes: []byte{1, 2, 3}}
	backing := w.Bytes

	s.loan(w)
	require.NotSame(t, &backing[0], &w.Bytes[0])
	require.Equal(t, []byte{1, 2, 3}, w.Bytes)
	st := s.Stats()
	require.Equal(t, uint64(1), st.BuffersLoaned)
	require.Zero(t, st.BuffersReleased)

	w.Release()
	st = s.Stats()
	require.Equal(t, uint64(1), st.BuffersReleased)

	// A second release is a no-op.
	w.Release()
	st = s.Stats()
	require.Equal(t, uint64(1), st.BuffersReleased)
}

func TestNestedVlenRelease(t *testing.T) {
	s := newStore(t, Config{})
	reg := s.Registry()
	_, err := reg.DefineVlen("inner", nctype.IntID)
	require.NoError(t, err)
	innerT, _ := reg.LookupName("inner")
	_, err = reg.DefineVlen("outer", innerT.ID())
	require.NoError(t, err)
	outerT, _ := reg.LookupName("outer")

	require.NoError(t, s.DefineDim("x", 2))
	require.NoError(t, s.DefineVar("v", outerT.ID(), "x"))

	in := hostval.List(
		hostval.List(hostval.Int32s([]int32{1}), hostval.Int32s([]int32{2, 3})),
		hostval.List(hostval.Int32s([]int32{4})),
	)
	require.NoError(t, s.PutVar("v", in))

	out, err := s.GetVar("v", GetOptions{FitNumeric: true})
	require.NoError(t, err)
	require.True(t, in.Equal(out), "got %v", out)

	// Two outer runs plus three inner runs, all consumed.
	st := s.Stats()
	require.Equal(t, uint64(5), st.BuffersLoaned)
	require.Equal(t, uint64(5), st.BuffersReleased)
}
