package memstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scidata-io/ncbridge/errors"
	"github.com/scidata-io/ncbridge/hostval"
	"github.com/scidata-io/ncbridge/nctype"
)

// grid covers a 3x4 int variable written as rows of y*4+x.
func grid(t *testing.T) *Store {
	t.Helper()
	s := newStore(t, Config{})
	require.NoError(t, s.DefineDim("y", 3))
	require.NoError(t, s.DefineDim("x", 4))
	require.NoError(t, s.DefineVar("v", nctype.IntID, "y", "x"))
	vals := make([]int32, 12)
	for i := range vals {
		vals[i] = int32(i)
	}
	require.NoError(t, s.PutVar("v", hostval.Int32s(vals)))
	return s
}

// Starts and counts list dimensions fastest-first, matching the host
// data layout.
func TestGetSlice(t *testing.T) {
	s := grid(t)

	out, err := s.GetSlice("v",
		hostval.Int32s([]int32{1, 0}),
		hostval.Int32s([]int32{2, 3}),
		GetOptions{FitNumeric: true})
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2, 5, 6, 9, 10}, out.Int32s())
	require.Equal(t, []int64{2, 3}, out.Dims())
}

func TestGetSliceMissingCountsRunToExtent(t *testing.T) {
	s := grid(t)

	out, err := s.GetSlice("v",
		hostval.Int32s([]int32{1, 1}),
		hostval.Int32s([]int32{hostval.NAInt32, hostval.NAInt32}),
		GetOptions{FitNumeric: true})
	require.NoError(t, err)
	require.Equal(t, []int32{5, 6, 7, 9, 10, 11}, out.Int32s())
	require.Equal(t, []int64{3, 2}, out.Dims())
}

func TestGetSliceDefaultsToFullExtent(t *testing.T) {
	s := grid(t)

	whole, err := s.GetVar("v", GetOptions{})
	require.NoError(t, err)
	sliced, err := s.GetSlice("v", hostval.Value{}, hostval.Value{}, GetOptions{})
	require.NoError(t, err)
	require.True(t, whole.Equal(sliced))
	require.Equal(t, whole.Dims(), sliced.Dims())
}

func TestGetSliceBounds(t *testing.T) {
	s := grid(t)

	_, err := s.GetSlice("v",
		hostval.Int32s([]int32{3, 0}),
		hostval.Int32s([]int32{2, 1}),
		GetOptions{})
	requireKind(t, err, errors.PhaseStore, errors.KindInvalidArgument)

	_, err = s.GetSlice("v",
		hostval.Int32s([]int32{5, 0}),
		hostval.Value{},
		GetOptions{})
	requireKind(t, err, errors.PhaseStore, errors.KindInvalidArgument)

	_, err = s.GetSlice("v",
		hostval.Value{},
		hostval.Int32s([]int32{-2, 1}),
		GetOptions{})
	requireKind(t, err, errors.PhaseShape, errors.KindRange)
}

func TestGetSliceZeroCount(t *testing.T) {
	s := grid(t)

	out, err := s.GetSlice("v",
		hostval.Int32s([]int32{0, 0}),
		hostval.Int32s([]int32{0, 2}),
		GetOptions{FitNumeric: true})
	require.NoError(t, err)
	require.Equal(t, 0, out.Len())
}

func TestPutSliceOverwrites(t *testing.T) {
	s := grid(t)

	require.NoError(t, s.PutSlice("v",
		hostval.Int32s([]int32{2, 0}),
		hostval.Int32s([]int32{1, 1}),
		hostval.Int32s([]int32{99})))

	out, err := s.GetVar("v", GetOptions{FitNumeric: true})
	require.NoError(t, err)
	require.Equal(t, []int32{0, 1, 99, 3, 4, 5, 6, 7, 8, 9, 10, 11}, out.Int32s())
}

func TestPutSliceMaterializesWithFill(t *testing.T) {
	s := newStore(t, Config{})
	require.NoError(t, s.DefineDim("y", 2))
	require.NoError(t, s.DefineDim("x", 3))
	require.NoError(t, s.DefineVar("v", nctype.IntID, "y", "x"))
	require.NoError(t, s.SetAttrs("v", Attrs{FillValue: pat(int32(-99))}))

	require.NoError(t, s.PutSlice("v",
		hostval.Int32s([]int32{0, 1}),
		hostval.Int32s([]int32{2, 1}),
		hostval.Int32s([]int32{1, 2})))

	out, err := s.GetVar("v", GetOptions{FitNumeric: true})
	require.NoError(t, err)
	na := hostval.NAInt32
	require.Equal(t, []int32{na, na, na, 1, 2, na}, out.Int32s())
}

func TestPutSliceMaterializesZeroWithoutFill(t *testing.T) {
	s := newStore(t, Config{})
	require.NoError(t, s.DefineDim("x", 3))
	require.NoError(t, s.DefineVar("v", nctype.IntID, "x"))

	require.NoError(t, s.PutSlice("v",
		hostval.Int32s([]int32{2}),
		hostval.Int32s([]int32{1}),
		hostval.Int32s([]int32{7})))

	out, err := s.GetVar("v", GetOptions{FitNumeric: true})
	require.NoError(t, err)
	require.Equal(t, []int32{0, 0, 7}, out.Int32s())
}

func TestSliceScalar(t *testing.T) {
	s := newStore(t, Config{})
	require.NoError(t, s.DefineVar("v", nctype.DoubleID))

	require.NoError(t, s.PutSlice("v", hostval.Value{}, hostval.Value{},
		hostval.Float64s([]float64{2.5})))
	out, err := s.GetSlice("v", hostval.Value{}, hostval.Value{}, GetOptions{})
	require.NoError(t, err)
	require.Equal(t, []float64{2.5}, out.Float64s())
}

func TestSliceCharRows(t *testing.T) {
	s := newStore(t, Config{})
	require.NoError(t, s.DefineDim("name", 2))
	require.NoError(t, s.DefineDim("len", 4))
	require.NoError(t, s.DefineVar("v", nctype.CharID, "name", "len"))
	require.NoError(t, s.PutVar("v", hostval.Strings([]string{"abcd", "wx"})))

	out, err := s.GetSlice("v",
		hostval.Int32s([]int32{0, 1}),
		hostval.Int32s([]int32{hostval.NAInt32, 1}),
		GetOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"wx"}, out.Strings())
}

func TestSliceCompoundFixedLayout(t *testing.T) {
	s := newStore(t, Config{})
	_, err := s.Registry().DefineCompound("pair", []nctype.FieldDef{
		{Name: "a", Type: nctype.IntID},
		{Name: "b", Type: nctype.DoubleID},
	})
	require.NoError(t, err)
	typ, err := s.Registry().LookupName("pair")
	require.NoError(t, err)
	require.NoError(t, s.DefineDim("x", 3))
	require.NoError(t, s.DefineVar("v", typ.ID(), "x"))

	in := hostval.NamedList([]string{"a", "b"}, []hostval.Value{
		hostval.Int32s([]int32{1, 2, 3}),
		hostval.Float64s([]float64{0.5, 1.5, 2.5}),
	})
	require.NoError(t, s.PutVar("v", in))

	out, err := s.GetSlice("v",
		hostval.Int32s([]int32{1}),
		hostval.Int32s([]int32{2}),
		GetOptions{FitNumeric: true})
	require.NoError(t, err)
	require.Equal(t, []int32{2, 3}, out.Items()[out.Index("a")].Int32s())
	require.Equal(t, []float64{1.5, 2.5}, out.Items()[out.Index("b")].Float64s())
}

func TestSliceRejectsReferenceTypes(t *testing.T) {
	s := newStore(t, Config{})
	require.NoError(t, s.DefineDim("x", 2))
	require.NoError(t, s.DefineVar("strs", nctype.StringID, "x"))
	require.NoError(t, s.PutVar("strs", hostval.Strings([]string{"a", "b"})))

	_, err := s.GetSlice("strs", hostval.Value{}, hostval.Value{}, GetOptions{})
	requireKind(t, err, errors.PhaseStore, errors.KindInvalidArgument)
	err = s.PutSlice("strs", hostval.Value{}, hostval.Value{}, hostval.Strings([]string{"c", "d"}))
	requireKind(t, err, errors.PhaseStore, errors.KindInvalidArgument)
}

func TestSliceUnwrittenRead(t *testing.T) {
	s := newStore(t, Config{})
	require.NoError(t, s.DefineDim("x", 4))
	require.NoError(t, s.DefineVar("v", nctype.IntID, "x"))
	_, err := s.GetSlice("v", hostval.Value{}, hostval.Value{}, GetOptions{})
	requireKind(t, err, errors.PhaseStore, errors.KindNotFound)
}
