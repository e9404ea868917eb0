// Package h4 is the UART controller transport: H4 framing over a serial
// port, plus the radio firmware download that brings the controller up.
package h4

import (
	"io"
	"sync"
	"time"

	"github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"

	"github.com/ratlabs/svk"
)

const rxQueueDepth = 64

// readTimeout bounds a single Read against a silent controller.
const readTimeout = time.Second

// Transport is an open H4 link. Reads return one complete frame at a time,
// indicator byte included; writes pass through untouched.
type Transport struct {
	sp  io.ReadWriteCloser
	log svk.Logger

	rmu sync.Mutex
	wmu sync.Mutex

	rx   chan []byte
	done chan struct{}
	cmu  sync.Mutex
}

type config struct {
	baudRate    uint
	flowControl bool
}

// Option configures the serial link.
type Option func(*config)

// WithBaudRate overrides the default 115200.
func WithBaudRate(baud uint) Option {
	return func(c *config) { c.baudRate = baud }
}

// WithoutFlowControl disables RTS/CTS, for adapters wired without the
// handshake lines.
func WithoutFlowControl() Option {
	return func(c *config) { c.flowControl = false }
}

// Open claims the serial port and starts the receive loop. The controller is
// nudged with a reset and the line drained, so a controller mid-babble from
// a previous run cannot corrupt the first real exchange.
func Open(port string, opts ...Option) (*Transport, error) {
	cfg := config{baudRate: 115200, flowControl: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	sp, err := serial.Open(serial.OpenOptions{
		PortName:              port,
		BaudRate:              cfg.baudRate,
		DataBits:              8,
		StopBits:              1,
		RTSCTSFlowControl:     cfg.flowControl,
		InterCharacterTimeout: 100,
		MinimumReadSize:       0,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", port)
	}

	t := &Transport{
		sp:   sp,
		log:  svk.GetLogger().ChildLogger(map[string]interface{}{"task": "h4"}),
		rx:   make(chan []byte, rxQueueDepth),
		done: make(chan struct{}),
	}

	t.log.Debugf("opened %s at %d baud", port, cfg.baudRate)
	if err := t.flush(); err != nil {
		sp.Close()
		return nil, errors.Wrap(err, "flush")
	}

	go t.rxLoop()
	return t, nil
}

// flush kicks the controller with a reset and drains whatever comes back.
func (t *Transport) flush() error {
	if _, err := t.sp.Write([]byte{commandPacket, 0x03, 0x0c, 0x00}); err != nil {
		return err
	}
	time.Sleep(250 * time.Millisecond)
	_, err := t.sp.Read(make([]byte, 2048))
	return err
}

// Read pops the next assembled frame. It fails after a timeout rather than
// hanging on a dead controller.
func (t *Transport) Read(p []byte) (int, error) {
	if !t.isOpen() {
		return 0, io.EOF
	}

	t.rmu.Lock()
	defer t.rmu.Unlock()

	select {
	case frame := <-t.rx:
		if len(p) < len(frame) {
			return 0, errors.Errorf("buffer too small for %d byte frame", len(frame))
		}
		return copy(p, frame), nil
	case <-t.done:
		return 0, io.EOF
	case <-time.After(readTimeout):
		return 0, errors.New("read timeout")
	}
}

func (t *Transport) Write(p []byte) (int, error) {
	if !t.isOpen() {
		return 0, io.EOF
	}

	t.wmu.Lock()
	defer t.wmu.Unlock()
	n, err := t.sp.Write(p)
	return n, errors.Wrap(err, "uart write")
}

// Close shuts the receive loop down and releases the port. Safe to call
// more than once.
func (t *Transport) Close() error {
	t.cmu.Lock()
	defer t.cmu.Unlock()

	select {
	case <-t.done:
		return nil
	default:
	}
	close(t.done)
	return errors.Wrap(t.sp.Close(), "close uart")
}

func (t *Transport) isOpen() bool {
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

func (t *Transport) rxLoop() {
	asm := newAssembler(t.rx)
	buf := make([]byte, 512)
	for t.isOpen() {
		n, err := t.sp.Read(buf)
		if err != nil || n == 0 {
			continue
		}
		asm.Push(buf[:n])
	}
}
