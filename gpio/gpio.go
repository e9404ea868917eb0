//go:build linux
// +build linux

// Package gpio binds the encoder and button inputs to kernel GPIO lines via
// the character-device uAPI. Debouncing is done in the kernel, so the
// decoder only ever sees settled edges.
package gpio

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"

	"github.com/ratlabs/svk"
)

// DefaultChip is the first GPIO character device.
const DefaultChip = "gpiochip0"

// edgeQueueDepth bounds in-flight edges per line. An overflowing queue means
// the consumer is stalled; dropping edges there only loses detents, never
// wedges the event handler.
const edgeQueueDepth = 64

// Line is one debounced input line. It satisfies quadrature.EdgeSource.
type Line struct {
	line  *gpiocdev.Line
	log   svk.Logger
	edges chan struct{}

	mu    sync.Mutex
	level bool
}

// RequestEncoderLine claims a pulled-up input with both-edge detection and
// kernel debouncing, for use as one quadrature channel.
func RequestEncoderLine(chip string, offset int, debounce time.Duration) (*Line, error) {
	l := &Line{
		log:   svk.GetLogger().ChildLogger(map[string]interface{}{"task": "gpio", "line": offset}),
		edges: make(chan struct{}, edgeQueueDepth),
	}

	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(debounce),
		gpiocdev.WithEventHandler(l.handle))
	if err != nil {
		return nil, errors.Wrapf(err, "request %s line %d", chip, offset)
	}
	l.line = line

	// seed from the live pin state so the decoder starts from reality
	if v, err := line.Value(); err == nil {
		l.mu.Lock()
		l.level = v != 0
		l.mu.Unlock()
	}
	return l, nil
}

func (l *Line) handle(evt gpiocdev.LineEvent) {
	l.mu.Lock()
	l.level = evt.Type == gpiocdev.LineEventRisingEdge
	l.mu.Unlock()

	select {
	case l.edges <- struct{}{}:
	default:
		l.log.Warn("edge dropped, decoder stalled")
	}
}

// Edges streams one token per settled level change.
func (l *Line) Edges() <-chan struct{} { return l.edges }

// Level is the line state as of the last settled edge.
func (l *Line) Level() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Close releases the line.
func (l *Line) Close() error { return l.line.Close() }

// Button is a pulled-up push button. Presses pull the line low.
type Button struct {
	line    *gpiocdev.Line
	log     svk.Logger
	presses chan struct{}
}

// RequestButton claims a pulled-up input with falling-edge detection.
func RequestButton(chip string, offset int, debounce time.Duration) (*Button, error) {
	b := &Button{
		log:     svk.GetLogger().ChildLogger(map[string]interface{}{"task": "gpio", "line": offset}),
		presses: make(chan struct{}, edgeQueueDepth),
	}

	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithDebounce(debounce),
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) {
			select {
			case b.presses <- struct{}{}:
			default:
				b.log.Warn("press dropped")
			}
		}))
	if err != nil {
		return nil, errors.Wrapf(err, "request %s line %d", chip, offset)
	}
	b.line = line
	return b, nil
}

// Presses streams one token per button press.
func (b *Button) Presses() <-chan struct{} { return b.presses }

// Close releases the line.
func (b *Button) Close() error { return b.line.Close() }
