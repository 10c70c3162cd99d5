package transcoder

import (
	"github.com/scidata-io/ncbridge/errors"
	"github.com/scidata-io/ncbridge/hostval"
	"github.com/scidata-io/ncbridge/nctype"
)

// encodeOpaque passes host bytes through as opaque elements, aliasing
// the host storage. The vector must supply size bytes per element.
func encodeOpaque(v hostval.Value, typ *nctype.Type, n int64, path []string) (*WireData, error) {
	need, err := mulSize(n, int64(typ.Size()))
	if err != nil {
		return nil, err
	}
	raw := v.Bytes()
	if int64(len(raw)) < need {
		return nil, errors.DataLength(errors.PhaseEncode, path, int64(len(raw)), need)
	}
	return &WireData{Bytes: raw[:need]}, nil
}
