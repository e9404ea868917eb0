// Package hid defines the knob's HID consumer-control vocabulary: the keys
// it can press and the fixed two-byte input report they map to.
package hid

// ReportID is the report ID of the knob's single input report, matching the
// report-reference descriptor on the input characteristic.
const ReportID byte = 0x01

// ReportLen is the size of the input report in bytes.
const ReportLen = 2

// Key is one consumer-control key the knob can press. KeyNone releases all.
type Key byte

const (
	KeyNone Key = iota
	VolUp
	VolDown
	Mute
)

func (k Key) String() string {
	switch k {
	case VolUp:
		return "volume-up"
	case VolDown:
		return "volume-down"
	case Mute:
		return "mute"
	case KeyNone:
		return "none"
	default:
		return "unknown"
	}
}

// Report returns the input report for the key: [ReportID, bitmask] with one
// bit per key. The mapping is pure and total; unknown keys report no bits.
func (k Key) Report() []byte {
	var bits byte
	switch k {
	case VolUp:
		bits = 0b0000_0001
	case VolDown:
		bits = 0b0000_0010
	case Mute:
		bits = 0b0000_0100
	}
	return []byte{ReportID, bits}
}
