package transcoder

import (
	"math"
	"testing"

	"github.com/scidata-io/ncbridge/errors"
	"github.com/scidata-io/ncbridge/hostval"
	"github.com/scidata-io/ncbridge/nctype"
)

func TestShapeCount(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		want  int64
		kind  errors.Kind
	}{
		{name: "scalar", shape: Scalar(), want: 1},
		{name: "flat", shape: Vector(5), want: 5},
		{name: "flat empty", shape: Vector(0), want: 0},
		{name: "array", shape: Array(2, 3), want: 6},
		{name: "array no dims", shape: Array(), want: 1},
		{name: "flat negative", shape: Vector(-1), kind: errors.KindInvalidArgument},
		{name: "array negative", shape: Array(2, -3), kind: errors.KindInvalidArgument},
		{name: "array overflow", shape: Array(1 << 40, 1 << 40), kind: errors.KindOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.shape.Count()
			if tt.kind != "" {
				wantErrKind(t, err, errors.PhaseShape, tt.kind)
				return
			}
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Count() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestShapeCharLayout(t *testing.T) {
	tests := []struct {
		name               string
		shape              Shape
		wantStride, wantCnt int64
	}{
		{name: "scalar", shape: Scalar(), wantStride: 1, wantCnt: 1},
		{name: "flat", shape: Vector(7), wantStride: 7, wantCnt: 1},
		{name: "rank one", shape: Array(4), wantStride: 4, wantCnt: 1},
		{name: "rank two", shape: Array(3, 4), wantStride: 4, wantCnt: 3},
		{name: "rank three", shape: Array(2, 3, 4), wantStride: 4, wantCnt: 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stride, cnt, err := tt.shape.charLayout()
			if err != nil {
				t.Fatalf("charLayout() error = %v", err)
			}
			if stride != tt.wantStride || cnt != tt.wantCnt {
				t.Errorf("charLayout() = (%d, %d), want (%d, %d)", stride, cnt, tt.wantStride, tt.wantCnt)
			}
		})
	}
}

func TestShapeHostDims(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		extra int64
		want  []int64
	}{
		{name: "array reversed", shape: Array(2, 3), want: []int64{3, 2}},
		{name: "array with extra", shape: Array(2, 3), extra: 4, want: []int64{4, 3, 2}},
		{name: "flat", shape: Vector(5), want: nil},
		{name: "flat with extra", shape: Vector(5), extra: 4, want: []int64{4, 5}},
		{name: "scalar", shape: Scalar(), want: nil},
		{name: "scalar with extra", shape: Scalar(), extra: 4, want: []int64{4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.shape.hostDims(tt.extra)
			if len(got) != len(tt.want) {
				t.Fatalf("hostDims() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("hostDims() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestCountsFromValue(t *testing.T) {
	na := hostval.NAFloat64()
	tests := []struct {
		name string
		v    hostval.Value
		rank int
		fill int64
		want []int64
		kind errors.Kind
	}{
		{name: "reversed", v: hostval.Int32s([]int32{3, 2}), rank: 2, want: []int64{2, 3}},
		{name: "short padded", v: hostval.Int32s([]int32{3, 2}), rank: 3, fill: 7, want: []int64{7, 2, 3}},
		{name: "missing filled", v: hostval.Int32s([]int32{3, hostval.NAInt32}), rank: 2, fill: 9, want: []int64{9, 3}},
		{name: "long truncated", v: hostval.Int32s([]int32{3, 2, 4}), rank: 2, want: []int64{2, 3}},
		{name: "wide", v: hostval.Int64s([]int64{5}), rank: 1, want: []int64{5}},
		{name: "double", v: hostval.Float64s([]float64{2, na}), rank: 2, fill: 4, want: []int64{4, 2}},
		{name: "negative", v: hostval.Float64s([]float64{-1}), rank: 1, kind: errors.KindRange},
		{name: "huge", v: hostval.Float64s([]float64{1e300}), rank: 1, kind: errors.KindRange},
		{name: "non numeric", v: hostval.Strings([]string{"3"}), rank: 1, kind: errors.KindInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CountsFromValue(tt.v, tt.rank, tt.fill)
			if tt.kind != "" {
				wantErrKind(t, err, errors.PhaseShape, tt.kind)
				return
			}
			if err != nil {
				t.Fatalf("CountsFromValue() error = %v", err)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("CountsFromValue() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestCountOf(t *testing.T) {
	tests := []struct {
		name string
		v    hostval.Value
		want int64
		kind errors.Kind
	}{
		{name: "absent", v: hostval.Value{}, want: 1},
		{name: "empty", v: hostval.Int32s(nil), want: 1},
		{name: "product", v: hostval.Int32s([]int32{3, 4}), want: 12},
		{name: "double", v: hostval.Float64s([]float64{2, 5}), want: 10},
		{name: "wide", v: hostval.Int64s([]int64{6}), want: 6},
		{name: "zero dim", v: hostval.Int32s([]int32{0, 4}), want: 0},
		{name: "missing int", v: hostval.Int32s([]int32{3, hostval.NAInt32}), kind: errors.KindInvalidLength},
		{name: "missing double", v: hostval.Float64s([]float64{3, hostval.NAFloat64()}), kind: errors.KindInvalidLength},
		{name: "infinite", v: hostval.Float64s([]float64{math.Inf(1)}), kind: errors.KindInvalidLength},
		{name: "negative", v: hostval.Int32s([]int32{-2}), kind: errors.KindRange},
		{name: "overflow", v: hostval.Int64s([]int64{1 << 40, 1 << 40}), kind: errors.KindOverflow},
		{name: "non numeric", v: hostval.Strings([]string{"3"}), kind: errors.KindInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CountOf(tt.v)
			if tt.kind != "" {
				wantErrKind(t, err, errors.PhaseShape, tt.kind)
				return
			}
			if err != nil {
				t.Fatalf("CountOf() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CountOf() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEncodeUnknownType(t *testing.T) {
	tr := newTestTranscoder(t)
	_, err := tr.Encode(hostval.Int32s([]int32{1}), nctype.ID(99), Scalar(), nil)
	wantErrKind(t, err, errors.PhaseSchema, errors.KindNotFound)
}

func TestDecodeUnknownType(t *testing.T) {
	tr := newTestTranscoder(t)
	_, err := tr.Decode(&WireData{}, nctype.ID(99), Scalar(), nil)
	wantErrKind(t, err, errors.PhaseSchema, errors.KindNotFound)
}

func TestEncodeUnsupportedPairs(t *testing.T) {
	tr := newTestTranscoder(t)
	tests := []struct {
		name string
		v    hostval.Value
		id   nctype.ID
	}{
		{name: "int to char", v: hostval.Int32s([]int32{1}), id: nctype.CharID},
		{name: "string to int", v: hostval.Strings([]string{"1"}), id: nctype.IntID},
		{name: "bytes to int", v: hostval.Bytes([]byte{1}), id: nctype.IntID},
		{name: "list to int", v: hostval.List(hostval.Int32s([]int32{1})), id: nctype.IntID},
		{name: "double to string", v: hostval.Float64s([]float64{1}), id: nctype.StringID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.Encode(tt.v, tt.id, Scalar(), nil)
			wantErrKind(t, err, errors.PhaseEncode, errors.KindUnsupportedType)
		})
	}
}

func TestDecodeArrayDims(t *testing.T) {
	tr := newTestTranscoder(t)
	host := hostval.Int32s([]int32{1, 2, 3, 4, 5, 6})
	wire, err := tr.Encode(host, nctype.IntID, Array(2, 3), nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := tr.Decode(wire, nctype.IntID, Array(2, 3), &Options{FitNumeric: true})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	// Storage order is slowest-first; host dims are fastest-first.
	if dims := got.Dims(); len(dims) != 2 || dims[0] != 3 || dims[1] != 2 {
		t.Errorf("dims = %v, want [3 2]", dims)
	}
	for i, w := range host.Int32s() {
		if got.Int32s()[i] != w {
			t.Errorf("element %d = %d, want %d", i, got.Int32s()[i], w)
		}
	}
}

func TestScopedScratchReuse(t *testing.T) {
	// A Mark/Reset bracket returns conversion scratch to the arena;
	// buffers made before the mark stay untouched.
	tr := newTestTranscoder(t)
	keep, err := tr.Encode(hostval.Float64s([]float64{1.5}), nctype.FloatID, Scalar(), nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	snap := append([]byte(nil), keep.Bytes...)

	mark := tr.Allocator().Mark()
	if _, err := tr.Encode(hostval.Float64s([]float64{2.5}), nctype.ShortID, Scalar(), nil); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	tr.Allocator().Reset(mark)
	if _, err := tr.Encode(hostval.Float64s([]float64{7.5}), nctype.ShortID, Scalar(), nil); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	for i := range snap {
		if keep.Bytes[i] != snap[i] {
			t.Fatalf("pre-mark buffer changed at byte %d", i)
		}
	}
}
