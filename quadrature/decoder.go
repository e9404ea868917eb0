// Package quadrature turns debounced edge events from the two encoder
// channels into discrete rotation events. Both channel histories advance
// together on every edge, so the two bit registers stay time-aligned and a
// detent shows up as a fixed pair of 3-bit gray-code patterns.
package quadrature

import (
	"context"

	"github.com/ratlabs/svk"
)

// Rotation is the classification of one edge: a full detent to the left or
// right, or nothing.
type Rotation int

const (
	None Rotation = iota
	Left
	Right
)

func (r Rotation) String() string {
	switch r {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "none"
	}
}

// EdgeSource is one debounced input line. Edges fires once per debounced
// level change; Level reads the line's current level. Debouncing itself is
// the source's concern.
type EdgeSource interface {
	Edges() <-chan struct{}
	Level() bool
}

// historyMask keeps the low 3 bits: one detent is a 2-step transition on top
// of the seed bit. Shorter prefixes and bounce patterns never match.
const historyMask = 0b111

// One detent, channel A leading (left) or channel B leading (right), in both
// line polarities.
const (
	leftA     = 0b100
	leftB     = 0b110
	leftAInv  = 0b011
	leftBInv  = 0b001
	rightA    = 0b110
	rightB    = 0b100
	rightAInv = 0b001
	rightBInv = 0b011
)

// Decoder holds the rolling per-channel histories.
type Decoder struct {
	a, b  EdgeSource
	histA uint8
	histB uint8
	log   svk.Logger
}

// NewDecoder builds a decoder over the two channel lines, seeding both
// histories from the current levels.
func NewDecoder(a, b EdgeSource) *Decoder {
	d := &Decoder{
		a:   a,
		b:   b,
		log: svk.GetLogger().ChildLogger(map[string]interface{}{"task": "knob"}),
	}
	if a.Level() {
		d.histA = 1
	}
	if b.Level() {
		d.histB = 1
	}
	return d
}

// Step consumes one edge on either channel: it samples both levels, shifts
// them into the histories and classifies the masked pair. It is total;
// partial or noisy patterns classify as None.
func (d *Decoder) Step() Rotation {
	d.histA <<= 1
	if d.a.Level() {
		d.histA |= 1
	}
	d.histB <<= 1
	if d.b.Level() {
		d.histB |= 1
	}

	pa := d.histA & historyMask
	pb := d.histB & historyMask

	switch {
	case pa == leftA && pb == leftB, pa == leftAInv && pb == leftBInv:
		return Left
	case pa == rightA && pb == rightB, pa == rightAInv && pb == rightBInv:
		return Right
	default:
		return None
	}
}

// Run decodes edges until the context ends, delivering rotations into out.
// Edges from the two channels are consumed in arrival order. Sends never
// block the decode loop: with no consumer keeping up, detents are dropped.
func (d *Decoder) Run(ctx context.Context, out chan<- Rotation) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.a.Edges():
		case <-d.b.Edges():
		}

		r := d.Step()
		if r == None {
			continue
		}
		d.log.Debugf("rotation %v", r)

		select {
		case out <- r:
		default:
			d.log.Warn("rotation dropped, consumer not keeping up")
		}
	}
}
