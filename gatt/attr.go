// Package gatt holds the knob's attribute table: an explicit list of
// (handle, type, capability set, value, descriptors) built once at startup.
// The dispatcher and notifiers operate purely against handles and capability
// checks.
package gatt

import (
	"github.com/ratlabs/svk"
)

// Props is an attribute's capability set.
type Props uint8

const (
	PropRead Props = 1 << iota
	PropWrite
	PropWriteNoRsp
	PropNotify
)

func (p Props) Readable() bool   { return p&PropRead != 0 }
func (p Props) Writable() bool   { return p&(PropWrite|PropWriteNoRsp) != 0 }
func (p Props) Notifiable() bool { return p&PropNotify != 0 }

func (p Props) String() string {
	s := ""
	if p.Readable() {
		s += "r"
	}
	if p&PropWrite != 0 {
		s += "w"
	}
	if p&PropWriteNoRsp != 0 {
		s += "W"
	}
	if p.Notifiable() {
		s += "n"
	}
	if s == "" {
		s = "-"
	}
	return s
}

// Attribute is one row of the table. Handles are assigned by the server at
// build time and stable for the process lifetime.
type Attribute struct {
	handle uint16
	typ    svk.UUID
	name   string
	props  Props
	value  []byte
}

func (a *Attribute) Handle() uint16 { return a.handle }
func (a *Attribute) Type() svk.UUID { return a.typ }
func (a *Attribute) Name() string   { return a.name }
func (a *Attribute) Props() Props   { return a.props }

// DescriptorConfig declares one descriptor on a characteristic.
type DescriptorConfig struct {
	Type  svk.UUID
	Name  string
	Props Props
	Value []byte
}

// CharacteristicConfig declares one characteristic and its descriptors.
type CharacteristicConfig struct {
	Type        svk.UUID
	Name        string
	Props       Props
	Value       []byte
	Descriptors []DescriptorConfig
}

// ServiceConfig declares one primary service.
type ServiceConfig struct {
	Type            svk.UUID
	Name            string
	Characteristics []CharacteristicConfig
}
