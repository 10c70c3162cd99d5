package memstore

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/scidata-io/ncbridge/errors"
	"github.com/scidata-io/ncbridge/hostval"
)

// GetOptions choose host containers for reads. The zero value reads
// numeric data as float64 and char data as strings.
type GetOptions struct {
	// RawText returns char data as raw bytes, keeping every dimension.
	RawText bool

	// FitNumeric picks the narrowest exact host container for integer
	// reads instead of float64.
	FitNumeric bool
}

// PutVar converts a host value and stores it as the variable's full
// extent. The variable's attributes drive fill mapping, validity
// bounds and packing on the way in.
func (s *Store) PutVar(name string, v hostval.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vr, _, err := s.lookupVar(name)
	if err != nil {
		return err
	}
	mem := s.tr.Allocator()
	mark := mem.Mark()
	defer mem.Reset(mark)
	wire, err := s.tr.Encode(v, vr.Type, s.varShape(vr), vr.attrs.options(GetOptions{}))
	if err != nil {
		return err
	}
	return s.storePayload(vr, flattenPayload(wire))
}

// GetVar converts a variable's full extent back to a host value. The
// variable's attributes drive fill mapping and unpacking on the way
// out.
func (s *Store) GetVar(name string, opts GetOptions) (hostval.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vr, typ, err := s.lookupVar(name)
	if err != nil {
		return hostval.Value{}, err
	}
	raw, hit, err := s.payload(vr)
	if err != nil {
		return hostval.Value{}, err
	}
	wire, err := parsePayload(raw)
	if err != nil {
		return hostval.Value{}, err
	}
	s.armForRead(wire, typ)
	mem := s.tr.Allocator()
	mark := mem.Mark()
	defer mem.Reset(mark)
	v, err := s.tr.Decode(wire, vr.Type, s.varShape(vr), vr.attrs.options(opts))
	if err != nil {
		return hostval.Value{}, err
	}
	Logger().Debug("read variable",
		zap.String("variable", name),
		zap.Bool("cache_hit", hit))
	return v, nil
}

// storePayload compresses and swaps in a variable's payload, keeping
// the byte counters and cache coherent.
func (s *Store) storePayload(vr *Variable, raw []byte) error {
	packed, err := s.codec.Compress(raw)
	if err != nil {
		return errors.Wrap(errors.PhaseStore, errors.KindIO, err,
			fmt.Sprintf("compress payload for %q", vr.Name))
	}
	s.stats.BytesRaw += int64(len(raw)) - int64(vr.rawLen)
	s.stats.BytesStored += int64(len(packed)) - int64(len(vr.data))
	vr.data = packed
	vr.rawLen = len(raw)
	if s.useCache {
		s.cache.Delete(vr.Name)
	}
	ratio := 1.0
	if len(raw) > 0 {
		ratio = float64(len(packed)) / float64(len(raw))
	}
	Logger().Debug("stored variable",
		zap.String("variable", vr.Name),
		zap.Int("raw_bytes", len(raw)),
		zap.Int("stored_bytes", len(packed)),
		zap.Float64("ratio", ratio),
		zap.Stringer("compression", s.ckind))
	return nil
}

// payload returns a variable's serialized payload, decompressing on a
// cache miss. The returned bytes are shared with the cache and must
// not be modified.
func (s *Store) payload(vr *Variable) ([]byte, bool, error) {
	if vr.data == nil {
		return nil, false, errors.New(errors.PhaseStore, errors.KindNotFound).
			Detail("variable %q has no data", vr.Name).Build()
	}
	if s.useCache {
		if raw, ok := s.cache.Get(vr.Name); ok {
			s.stats.CacheHits++
			return raw, true, nil
		}
		s.stats.CacheMisses++
	}
	raw, err := s.codec.Decompress(vr.data)
	if err != nil {
		return nil, false, errors.Corrupt(fmt.Sprintf("decompress payload for %q", vr.Name), err)
	}
	if s.useCache {
		s.cache.Set(vr.Name, raw)
	}
	return raw, false, nil
}
