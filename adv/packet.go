// Package adv builds and decodes LE advertising payloads. Refer to
// Supplement to Bluetooth Core Specification | CSSv6, Part A.
package adv

import (
	"github.com/pkg/errors"

	"github.com/ratlabs/svk"
)

// MaxPayloadLength is the link-layer limit on advertising data.
const MaxPayloadLength = 31

// Advertising flags.
const (
	FlagLimitedDiscoverable = 0x01
	FlagGeneralDiscoverable = 0x02
	FlagLEOnly              = 0x04 // BR/EDR not supported
)

// AD structure types used by the knob.
const (
	typeFlags        = 0x01
	typeUUID16Comp   = 0x03
	typeShortName    = 0x08
	typeCompleteName = 0x09
	typeAppearance   = 0x19
)

// ErrNotFit is returned when a field does not fit into the payload.
var ErrNotFit = errors.New("field does not fit")

// Packet accumulates AD structures up to the payload limit.
type Packet struct {
	b []byte
}

// Field is an advertising field which can be appended to a packet.
type Field func(p *Packet) error

// NewPacket returns a packet carrying the given fields, in order.
func NewPacket(fields ...Field) (*Packet, error) {
	p := &Packet{b: make([]byte, 0, MaxPayloadLength)}
	for _, f := range fields {
		if err := f(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Bytes returns the encoded payload.
func (p *Packet) Bytes() []byte { return p.b }

// Len returns the current payload length.
func (p *Packet) Len() int { return len(p.b) }

// Append appends a field to the packet. It returns ErrNotFit if the field
// does not fit, leaving the packet intact.
func (p *Packet) Append(f Field) error {
	return f(p)
}

func (p *Packet) append(typ byte, b []byte) error {
	if p.Len()+1+1+len(b) > MaxPayloadLength {
		return ErrNotFit
	}
	p.b = append(p.b, byte(len(b)+1), typ)
	p.b = append(p.b, b...)
	return nil
}

// Flags is the discoverability flags field.
func Flags(f byte) Field {
	return func(p *Packet) error {
		return p.append(typeFlags, []byte{f})
	}
}

// CompleteName is the complete local name field.
func CompleteName(n string) Field {
	return func(p *Packet) error {
		return p.append(typeCompleteName, []byte(n))
	}
}

// ShortName is the shortened local name field.
func ShortName(n string) Field {
	return func(p *Packet) error {
		return p.append(typeShortName, []byte(n))
	}
}

// Appearance is the GAP appearance field.
func Appearance(a uint16) Field {
	return func(p *Packet) error {
		return p.append(typeAppearance, []byte{byte(a), byte(a >> 8)})
	}
}

// UUID16List is the complete list of 16-bit service UUIDs.
func UUID16List(uu ...svk.UUID) Field {
	return func(p *Packet) error {
		b := make([]byte, 0, 2*len(uu))
		for _, u := range uu {
			if u.Len() != 2 {
				return errors.Errorf("uuid %v is not 16-bit", u)
			}
			b = append(b, u...)
		}
		return p.append(typeUUID16Comp, b)
	}
}
