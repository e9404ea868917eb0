package hid

// ReportDescriptor is the HID report map served on the report-map
// characteristic: one consumer-control application collection with three
// one-bit usages (volume up, volume down, mute) and five bits of padding,
// under ReportID.
var ReportDescriptor = []byte{
	0x05, 0x0c, // Usage Page (Consumer)
	0x09, 0x01, // Usage (Consumer Control)
	0xa1, 0x01, // Collection (Application)
	0x85, ReportID, //   Report ID
	0x15, 0x00, //   Logical Minimum (0)
	0x25, 0x01, //   Logical Maximum (1)
	0x75, 0x01, //   Report Size (1)
	0x95, 0x03, //   Report Count (3)
	0x09, 0xe9, //   Usage (Volume Increment)
	0x09, 0xea, //   Usage (Volume Decrement)
	0x09, 0xe2, //   Usage (Mute)
	0x81, 0x02, //   Input (Data, Variable, Absolute)
	0x95, 0x05, //   Report Count (5)
	0x81, 0x03, //   Input (Constant)
	0xc0, // End Collection
}

// Information is the HID information characteristic value: bcdHID 1.01,
// country code 0, flags remote-wake | normally-connectable.
var Information = []byte{0x01, 0x01, 0x00, 0x03}

// ProtocolModeReport is the report protocol mode value.
const ProtocolModeReport byte = 0x01
