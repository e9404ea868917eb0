package adv

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/ratlabs/svk"
)

// Fields is the decoded view of an advertising payload.
type Fields struct {
	Flags         byte
	HasFlags      bool
	LocalName     string
	Appearance    uint16
	HasAppearance bool
	Services      []svk.UUID
}

// ErrEmptyPayload is returned when there is nothing to decode.
var ErrEmptyPayload = errors.New("nil/empty payload")

// Decode walks the AD structures of a payload. Malformed length prefixes are
// an error; unknown field types are skipped.
func Decode(b []byte) (*Fields, error) {
	if len(b) == 0 {
		return nil, ErrEmptyPayload
	}

	f := &Fields{}
	for i := 0; i < len(b); {
		l := int(b[i])
		if l == 0 {
			// early termination padding
			break
		}
		if i+1+l > len(b) {
			return nil, errors.Errorf("field at %d overruns payload (len %d)", i, l)
		}
		typ := b[i+1]
		v := b[i+2 : i+1+l]

		switch typ {
		case typeFlags:
			if len(v) < 1 {
				return nil, errors.New("flags field empty")
			}
			f.Flags = v[0]
			f.HasFlags = true
		case typeShortName, typeCompleteName:
			f.LocalName = string(v)
		case typeAppearance:
			if len(v) != 2 {
				return nil, errors.New("malformed appearance field")
			}
			f.Appearance = binary.LittleEndian.Uint16(v)
			f.HasAppearance = true
		case typeUUID16Comp:
			if len(v)%2 != 0 {
				return nil, errors.New("odd uuid16 list length")
			}
			for j := 0; j < len(v); j += 2 {
				f.Services = append(f.Services, svk.UUID16(binary.LittleEndian.Uint16(v[j:])))
			}
		default:
			// not ours to interpret
		}
		i += 1 + l
	}
	return f, nil
}

// HasService reports whether the payload advertises the 16-bit service UUID.
func (f *Fields) HasService(u svk.UUID) bool {
	for _, s := range f.Services {
		if s.Equal(u) {
			return true
		}
	}
	return false
}
