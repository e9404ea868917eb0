package h4

import (
	"time"

	"github.com/pkg/errors"
)

// H4 packet indicator bytes [Vol 4, Part A, 2].
const (
	commandPacket = 0x01
	aclPacket     = 0x02
	eventPacket   = 0x04
)

const (
	eventHeaderLength = 3 // indicator, event code, parameter length
	aclHeaderLength   = 5 // indicator, handle+flags, 16-bit data length
)

// frameTimeout bounds how long a partial frame may sit before the assembler
// resyncs to the next indicator byte.
const frameTimeout = 500 * time.Millisecond

// assembler reconstructs H4 frames from an arbitrary chunking of the UART
// byte stream. Complete frames, indicator byte included, land on out.
type assembler struct {
	buf      []byte
	deadline time.Time
	out      chan []byte
}

func newAssembler(out chan []byte) *assembler {
	return &assembler{buf: make([]byte, 0, 256), out: out}
}

// Push feeds received bytes in. Garbage before an indicator byte is skipped;
// a frame that stalls past the deadline is abandoned.
func (a *assembler) Push(b []byte) {
	if len(b) == 0 {
		return
	}
	if len(a.buf) > 0 && time.Now().After(a.deadline) {
		a.reset()
	}

	if len(a.buf) == 0 {
		i := a.findStart(b)
		if i < 0 {
			return
		}
		b = b[i:]
		a.deadline = time.Now().Add(frameTimeout)
	}
	a.buf = append(a.buf, b...)

	total, err := a.frameLength()
	if err != nil || len(a.buf) < total {
		return
	}

	frame := make([]byte, total)
	copy(frame, a.buf[:total])
	a.out <- frame

	rest := a.buf[total:]
	a.reset()
	a.Push(rest)
}

func (a *assembler) reset() {
	a.buf = a.buf[:0]
	a.deadline = time.Time{}
}

func (a *assembler) findStart(b []byte) int {
	for i, v := range b {
		if v == eventPacket || v == aclPacket {
			return i
		}
	}
	return -1
}

// frameLength is the total frame size once enough of the header has arrived.
func (a *assembler) frameLength() (int, error) {
	switch a.buf[0] {
	case eventPacket:
		if len(a.buf) < eventHeaderLength {
			return 0, errors.New("short event header")
		}
		return eventHeaderLength + int(a.buf[2]), nil
	case aclPacket:
		if len(a.buf) < aclHeaderLength {
			return 0, errors.New("short acl header")
		}
		return aclHeaderLength + (int(a.buf[3]) | int(a.buf[4])<<8), nil
	default:
		return 0, errors.Errorf("unknown packet indicator %#02x", a.buf[0])
	}
}
