package adv

import (
	"strings"
	"testing"

	"github.com/ratlabs/svk"
)

func TestKnobPayloadRoundTrip(t *testing.T) {
	p, err := NewPacket(
		Flags(FlagGeneralDiscoverable|FlagLEOnly),
		CompleteName("Simple Volume Knob"),
		UUID16List(svk.HIDServiceUUID, svk.BatteryServiceUUID),
	)
	if err != nil {
		t.Fatalf("build: %s", err)
	}
	if p.Len() > MaxPayloadLength {
		t.Fatalf("payload %d bytes exceeds %d", p.Len(), MaxPayloadLength)
	}

	f, err := Decode(p.Bytes())
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if !f.HasFlags || f.Flags != FlagGeneralDiscoverable|FlagLEOnly {
		t.Fatalf("flags = %#x, want %#x", f.Flags, FlagGeneralDiscoverable|FlagLEOnly)
	}
	if f.LocalName != "Simple Volume Knob" {
		t.Fatalf("name = %q", f.LocalName)
	}
	if !f.HasService(svk.HIDServiceUUID) || !f.HasService(svk.BatteryServiceUUID) {
		t.Fatalf("services missing: %v", f.Services)
	}
}

func TestScanResponseAppearance(t *testing.T) {
	p, err := NewPacket(Appearance(0x03c1))
	if err != nil {
		t.Fatal(err)
	}
	f, err := Decode(p.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if !f.HasAppearance || f.Appearance != 0x03c1 {
		t.Fatalf("appearance = %#x (present %t)", f.Appearance, f.HasAppearance)
	}
}

func TestPacketRejectsOversizedField(t *testing.T) {
	p, err := NewPacket(Flags(FlagGeneralDiscoverable | FlagLEOnly))
	if err != nil {
		t.Fatal(err)
	}
	before := p.Len()

	long := strings.Repeat("x", MaxPayloadLength)
	if err := p.Append(CompleteName(long)); err != ErrNotFit {
		t.Fatalf("got %v, want ErrNotFit", err)
	}
	if p.Len() != before {
		t.Fatalf("packet mutated on failed append: %d -> %d", before, p.Len())
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode(nil); err != ErrEmptyPayload {
		t.Fatalf("nil payload: got %v", err)
	}
	// length prefix runs past the end
	if _, err := Decode([]byte{5, 0x09, 'a'}); err == nil {
		t.Fatal("overrunning field not rejected")
	}
}
