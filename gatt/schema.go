package gatt

import (
	"github.com/ratlabs/svk"
	"github.com/ratlabs/svk/hid"
)

// Device information strings.
const (
	Manufacturer = "RatLabs"
	ModelNumber  = "SVK-1.0"
)

// AppearanceHIDKeyboard is the GAP appearance value advertised for the knob.
const AppearanceHIDKeyboard uint16 = 0x03c1

// DefaultBatteryLevel is the level served before a measurement replaces it.
const DefaultBatteryLevel byte = 100

// KnobServer builds the knob's fixed attribute table: battery, device
// information and HID services.
func KnobServer() *Server {
	return NewServer(
		ServiceConfig{
			Type: svk.BatteryServiceUUID,
			Name: "battery",
			Characteristics: []CharacteristicConfig{
				{
					Type:  svk.BatteryLevelUUID,
					Name:  "battery level",
					Props: PropRead | PropNotify,
					Value: []byte{DefaultBatteryLevel},
					Descriptors: []DescriptorConfig{
						{Type: svk.ValidRangeUUID, Name: "valid range", Props: PropRead, Value: []byte{0, 100}},
						{Type: svk.UserDescriptionUUID, Name: "description", Props: PropRead, Value: []byte("Battery Level")},
					},
				},
				{
					Type:  svk.StatusUUID,
					Name:  "status",
					Props: PropRead | PropWrite | PropNotify,
					Value: []byte{0x00},
				},
			},
		},
		ServiceConfig{
			Type: svk.DeviceInfoUUID,
			Name: "device information",
			Characteristics: []CharacteristicConfig{
				{Type: svk.ManufacturerNameUUID, Name: "manufacturer name", Props: PropRead, Value: []byte(Manufacturer)},
				{Type: svk.ModelNumberUUID, Name: "model number", Props: PropRead, Value: []byte(ModelNumber)},
			},
		},
		ServiceConfig{
			Type: svk.HIDServiceUUID,
			Name: "human interface device",
			Characteristics: []CharacteristicConfig{
				{Type: svk.HIDInformationUUID, Name: "hid information", Props: PropRead, Value: hid.Information},
				{Type: svk.ReportMapUUID, Name: "report map", Props: PropRead, Value: hid.ReportDescriptor},
				{Type: svk.HIDControlPointUUID, Name: "hid control point", Props: PropWriteNoRsp, Value: []byte{0x00}},
				{Type: svk.ProtocolModeUUID, Name: "protocol mode", Props: PropRead | PropWriteNoRsp, Value: []byte{hid.ProtocolModeReport}},
				{
					Type:  svk.ReportUUID,
					Name:  "input report",
					Props: PropRead | PropNotify,
					Value: hid.KeyNone.Report(),
					Descriptors: []DescriptorConfig{
						{Type: svk.ReportReferenceUUID, Name: "report reference", Props: PropRead, Value: []byte{hid.ReportID, 0x01}},
					},
				},
			},
		},
	)
}
