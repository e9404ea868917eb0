package svk

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// UUID is a 16-bit or 128-bit Bluetooth UUID, stored little-endian as it
// appears on the wire.
type UUID []byte

// UUID16 returns the UUID for a 16-bit assigned number.
func UUID16(u uint16) UUID {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, u)
	return UUID(b)
}

// Parse parses a UUID from its canonical string form, with or without
// dashes. 4 hex digits yield a 16-bit UUID, 32 a 128-bit one.
func Parse(s string) (UUID, error) {
	s = strings.Replace(strings.ToLower(s), "-", "", -1)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "parse uuid")
	}
	if len(b) != 2 && len(b) != 16 {
		return nil, errors.Errorf("invalid uuid length %d", len(b))
	}
	// canonical form is big-endian; flip to wire order
	for i := len(b)/2 - 1; i >= 0; i-- {
		opp := len(b) - 1 - i
		b[i], b[opp] = b[opp], b[i]
	}
	return UUID(b), nil
}

// MustParse parses a UUID string and panics on failure. For package-level
// constants only.
func MustParse(s string) UUID {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Len returns the length of the UUID in bytes.
func (u UUID) Len() int { return len(u) }

// Uint16 returns the assigned number of a 16-bit UUID, or 0 otherwise.
func (u UUID) Uint16() uint16 {
	if len(u) != 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(u)
}

// Equal reports whether two UUIDs are the same.
func (u UUID) Equal(v UUID) bool {
	if len(u) != len(v) {
		return false
	}
	for i := range u {
		if u[i] != v[i] {
			return false
		}
	}
	return true
}

// String returns the canonical big-endian hex form.
func (u UUID) String() string {
	b := make([]byte, len(u))
	copy(b, u)
	for i := len(b)/2 - 1; i >= 0; i-- {
		opp := len(b) - 1 - i
		b[i], b[opp] = b[opp], b[i]
	}
	return hex.EncodeToString(b)
}

// Assigned numbers used by the knob's services, characteristics and
// descriptors.
var (
	BatteryServiceUUID = UUID16(0x180f)
	DeviceInfoUUID     = UUID16(0x180a)
	HIDServiceUUID     = UUID16(0x1812)

	BatteryLevelUUID     = UUID16(0x2a19)
	ManufacturerNameUUID = UUID16(0x2a29)
	ModelNumberUUID      = UUID16(0x2a24)
	HIDInformationUUID   = UUID16(0x2a4a)
	ReportMapUUID        = UUID16(0x2a4b)
	HIDControlPointUUID  = UUID16(0x2a4c)
	ReportUUID           = UUID16(0x2a4d)
	ProtocolModeUUID     = UUID16(0x2a4e)

	UserDescriptionUUID = UUID16(0x2901)
	CCCDescriptorUUID   = UUID16(0x2902)
	ValidRangeUUID      = UUID16(0x2906)
	ReportReferenceUUID = UUID16(0x2908)

	// StatusUUID is the vendor characteristic on the battery service.
	StatusUUID = MustParse("408813df-5dd4-1f87-ec11-cdb001100000")
)
