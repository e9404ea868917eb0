package h4

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/ratlabs/svk"
)

// Radio blob file names, as shipped in the vendor firmware bundle.
const (
	FirmwareMainFile = "43439A0.bin"
	FirmwareCLMFile  = "43439A0_clm.bin"
	FirmwareBTFile   = "43439A0_btfw.bin"
)

// Firmware holds the radio blobs. They are opaque bytes here; only the BT
// blob's record framing is interpreted, during download.
type Firmware struct {
	Main []byte
	CLM  []byte
	BT   []byte
}

// LoadFirmware reads the blob bundle from dir.
func LoadFirmware(dir string) (*Firmware, error) {
	fw := &Firmware{}
	for _, f := range []struct {
		name string
		dst  *[]byte
	}{
		{FirmwareMainFile, &fw.Main},
		{FirmwareCLMFile, &fw.CLM},
		{FirmwareBTFile, &fw.BT},
	} {
		b, err := os.ReadFile(filepath.Join(dir, f.name))
		if err != nil {
			return nil, errors.Wrap(err, "load firmware")
		}
		*f.dst = b
	}
	return fw, nil
}

// HCI opcodes used during download. The fc-range ones are vendor commands.
const (
	opReset              = 0x0c03
	opDownloadMinidriver = 0xfc2e
	opLaunchRAM          = 0xfc4e
)

const evtCommandComplete = 0x0e

// minidriverSettle is how long the controller needs after entering download
// mode before it accepts write-RAM commands.
const minidriverSettle = 50 * time.Millisecond

// Download programs the controller's patch RAM: reset, enter download mode,
// then replay the BT blob's embedded vendor commands (each record is a
// little-endian opcode, a parameter length and the parameters). The blob's
// final launch-RAM record restarts the controller on the new image.
func Download(t io.ReadWriter, fw *Firmware) error {
	log := svk.GetLogger().ChildLogger(map[string]interface{}{"task": "h4"})
	if fw == nil || len(fw.BT) == 0 {
		return errors.New("no bt firmware blob")
	}

	if err := command(t, opReset, nil); err != nil {
		return errors.Wrap(err, "reset")
	}
	if err := command(t, opDownloadMinidriver, nil); err != nil {
		return errors.Wrap(err, "enter download mode")
	}
	time.Sleep(minidriverSettle)

	records := 0
	b := fw.BT
	for len(b) > 0 {
		if len(b) < 3 {
			return errors.Errorf("truncated firmware record at byte %d", len(fw.BT)-len(b))
		}
		opcode := binary.LittleEndian.Uint16(b[0:2])
		plen := int(b[2])
		if len(b) < 3+plen {
			return errors.Errorf("truncated firmware record at byte %d", len(fw.BT)-len(b))
		}
		if err := command(t, opcode, b[3:3+plen]); err != nil {
			return errors.Wrapf(err, "firmware record %d", records)
		}
		records++
		if opcode == opLaunchRAM {
			// the controller reboots; give it time before anything else
			time.Sleep(250 * time.Millisecond)
		}
		b = b[3+plen:]
	}

	log.Infof("firmware download complete, %d records", records)
	return nil
}

// command sends one HCI command and waits for its command-complete event,
// failing on a non-zero status.
func command(t io.ReadWriter, opcode uint16, params []byte) error {
	if len(params) > 0xff {
		return errors.Errorf("command %#04x parameters too long", opcode)
	}

	pkt := make([]byte, 0, 4+len(params))
	pkt = append(pkt, commandPacket, byte(opcode), byte(opcode>>8), byte(len(params)))
	pkt = append(pkt, params...)
	if _, err := t.Write(pkt); err != nil {
		return errors.Wrap(err, "command write")
	}

	buf := make([]byte, 260)
	for {
		n, err := t.Read(buf)
		if err != nil {
			return errors.Wrap(err, "command response")
		}
		evt := buf[:n]
		if len(evt) < 7 || evt[0] != eventPacket || evt[1] != evtCommandComplete {
			// unsolicited event, not ours
			continue
		}
		if binary.LittleEndian.Uint16(evt[4:6]) != opcode {
			continue
		}
		if status := evt[6]; status != 0x00 {
			return errors.Errorf("command %#04x failed with status %#02x", opcode, status)
		}
		return nil
	}
}
