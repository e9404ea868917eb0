package knob

import (
	"sync"

	"github.com/ratlabs/svk"
)

// BondTracker is the device's single bond slot. It lives for the process
// lifetime; bonds do not survive a power cycle. Sessions are strictly
// sequential, so the only writer is the dispatcher's pairing-complete
// transition and the only reader is session start.
type BondTracker struct {
	mu   sync.Mutex
	info svk.BondInfo
}

// NewBondTracker returns an empty tracker.
func NewBondTracker() *BondTracker {
	return &BondTracker{}
}

// Store replaces the slot wholesale with the pairing's bond material. A
// pairing that produced no bond clears the slot.
func (t *BondTracker) Store(info svk.BondInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.info = info
}

// Bonded reports whether a bond is held.
func (t *BondTracker) Bonded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.info != nil
}

// Info returns the held bond, or nil.
func (t *BondTracker) Info() svk.BondInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.info
}
