package memstore

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scidata-io/ncbridge/compress"
	"github.com/scidata-io/ncbridge/errors"
	"github.com/scidata-io/ncbridge/hostval"
	"github.com/scidata-io/ncbridge/nctype"
)

// buildDataset assembles a store exercising every definition class:
// dimensions, user types, attributes and written payloads.
func buildDataset(t *testing.T) *Store {
	t.Helper()
	s := newStore(t, Config{Compression: compress.LZ4})
	reg := s.Registry()

	require.NoError(t, s.DefineDim("time", 4))
	require.NoError(t, s.DefineDim("station", 2))

	_, err := reg.DefineEnum("quality", nctype.UByteID, []nctype.Member{
		{Name: "good", Value: 0},
		{Name: "suspect", Value: 1},
		{Name: "bad", Value: 2},
	})
	require.NoError(t, err)
	_, err = reg.DefineOpaque("checksum", 4)
	require.NoError(t, err)
	_, err = reg.DefineVlen("profile", nctype.FloatID)
	require.NoError(t, err)
	_, err = reg.DefineCompound("obs", []nctype.FieldDef{
		{Name: "value", Type: nctype.DoubleID},
		{Name: "flag", Type: nctype.ByteID},
	})
	require.NoError(t, err)

	quality, _ := reg.LookupName("quality")
	profile, _ := reg.LookupName("profile")

	require.NoError(t, s.DefineVar("temp", nctype.ShortID, "time", "station"))
	scale, add := 0.1, 0.0
	require.NoError(t, s.SetAttrs("temp", Attrs{
		FillValue: pat(int16(-32768)),
		Scale:     &scale,
		Add:       &add,
	}))
	require.NoError(t, s.DefineVar("qc", quality.ID(), "time"))
	require.NoError(t, s.DefineVar("label", nctype.StringID, "station"))
	require.NoError(t, s.DefineVar("depths", profile.ID(), "station"))
	require.NoError(t, s.DefineVar("empty", nctype.IntID, "time"))

	require.NoError(t, s.PutVar("temp", hostval.Float64s([]float64{
		21.5, 22.1, hostval.NAFloat64(), 19.8, 20.0, 18.4, 17.2, 25.9,
	})))
	require.NoError(t, s.PutVar("qc", hostval.NewFactor(
		[]int32{1, 2, 1, 3}, []string{"good", "suspect", "bad"})))
	require.NoError(t, s.PutVar("label", hostval.Strings([]string{"north", "south"})))
	require.NoError(t, s.PutVar("depths", hostval.List(
		hostval.Float64s([]float64{0, 10, 20}),
		hostval.Float64s([]float64{0, 50}),
	)))
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	src := buildDataset(t)

	var buf bytes.Buffer
	n, err := src.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)

	dst, err := Open(bytes.NewReader(buf.Bytes()), Config{})
	require.NoError(t, err)
	t.Cleanup(dst.Close)

	require.Equal(t, compress.LZ4, dst.Compression())
	require.Equal(t, src.Dims(), dst.Dims())
	require.Equal(t, src.VarNames(), dst.VarNames())

	srcTypes := src.Registry().UserTypes()
	dstTypes := dst.Registry().UserTypes()
	require.Equal(t, len(srcTypes), len(dstTypes))
	for i := range srcTypes {
		require.Equal(t, srcTypes[i].ID(), dstTypes[i].ID())
		require.Equal(t, srcTypes[i].Name(), dstTypes[i].Name())
		require.Equal(t, srcTypes[i].Kind(), dstTypes[i].Kind())
		require.Equal(t, srcTypes[i].Size(), dstTypes[i].Size())
	}

	for _, name := range src.VarNames() {
		sv := mustVar(t, src, name)
		dv := mustVar(t, dst, name)
		require.Equal(t, sv.Type, dv.Type)
		require.Equal(t, sv.Dims, dv.Dims)
		require.Equal(t, sv.Attrs(), dv.Attrs())
		require.Equal(t, sv.HasData(), dv.HasData())
		if !sv.HasData() {
			continue
		}
		want, err := src.GetVar(name, GetOptions{})
		require.NoError(t, err)
		got, err := dst.GetVar(name, GetOptions{})
		require.NoError(t, err)
		require.True(t, want.Equal(got), "variable %s: %v != %v", name, want, got)
	}
}

func TestSnapshotEmptyStore(t *testing.T) {
	src := newStore(t, Config{})
	var buf bytes.Buffer
	_, err := src.WriteTo(&buf)
	require.NoError(t, err)

	dst, err := Open(&buf, Config{})
	require.NoError(t, err)
	t.Cleanup(dst.Close)
	require.Empty(t, dst.Dims())
	require.Empty(t, dst.VarNames())
}

func TestSnapshotLoadNeedsEmptyStore(t *testing.T) {
	src := buildDataset(t)
	var buf bytes.Buffer
	_, err := src.WriteTo(&buf)
	require.NoError(t, err)

	full := newStore(t, Config{})
	require.NoError(t, full.DefineDim("x", 1))
	_, err = full.ReadFrom(&buf)
	requireKind(t, err, errors.PhaseStore, errors.KindInvalidArgument)
}

func TestSnapshotBadMagic(t *testing.T) {
	_, err := Open(bytes.NewReader([]byte("nope")), Config{})
	requireKind(t, err, errors.PhaseStore, errors.KindCorrupt)
}

func TestSnapshotBadVersion(t *testing.T) {
	src := buildDataset(t)
	var buf bytes.Buffer
	_, err := src.WriteTo(&buf)
	require.NoError(t, err)

	b := buf.Bytes()
	b[4] = 99
	_, err = Open(bytes.NewReader(b), Config{})
	requireKind(t, err, errors.PhaseStore, errors.KindCorrupt)
}

func TestSnapshotTruncated(t *testing.T) {
	src := buildDataset(t)
	var buf bytes.Buffer
	_, err := src.WriteTo(&buf)
	require.NoError(t, err)

	for _, cut := range []int{3, 9, buf.Len() / 2, buf.Len() - 1} {
		_, err := Open(bytes.NewReader(buf.Bytes()[:cut]), Config{})
		requireKind(t, err, errors.PhaseStore, errors.KindCorrupt)
	}
}

func TestSnapshotIDMismatch(t *testing.T) {
	src := newStore(t, Config{})
	require.NoError(t, src.DefineVar("v", nctype.IntID))
	var buf bytes.Buffer
	_, err := src.WriteTo(&buf)
	require.NoError(t, err)

	// Layout up to the id: magic 4, version 1, codec 1, dim count 4,
	// type count 4, var count 4, name header 4 + "v".
	b := buf.Bytes()
	idOff := 4 + 1 + 1 + 4 + 4 + 4 + 4 + 1
	b[idOff] ^= 0xff
	_, err = Open(bytes.NewReader(b), Config{})
	requireKind(t, err, errors.PhaseStore, errors.KindCorrupt)
}

func TestSnapshotPayloadSurvivesCodecChange(t *testing.T) {
	src := buildDataset(t)
	var buf bytes.Buffer
	_, err := src.WriteTo(&buf)
	require.NoError(t, err)

	// The configured codec loses to the snapshot's.
	dst, err := Open(bytes.NewReader(buf.Bytes()), Config{Compression: compress.S2})
	require.NoError(t, err)
	t.Cleanup(dst.Close)
	require.Equal(t, compress.LZ4, dst.Compression())

	out, err := dst.GetVar("label", GetOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"north", "south"}, out.Strings())
}
