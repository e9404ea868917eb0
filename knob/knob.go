// Package knob is the core of the volume-knob firmware: the advertising
// loop, the per-connection session (GATT event pump racing the notifier),
// the bond policy and the HID/battery notification logic.
package knob

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ratlabs/svk"
	"github.com/ratlabs/svk/gatt"
	"github.com/ratlabs/svk/hid"
	"github.com/ratlabs/svk/quadrature"
)

// DefaultName is the advertised local name.
const DefaultName = "Simple Volume Knob"

const (
	defaultPressReleaseDelay = 50 * time.Millisecond
	defaultBatteryInterval   = 30 * time.Second

	keyQueueDepth      = 8
	rotationQueueDepth = 8
)

// Knob is the device. Build one with New, then Run it.
type Knob struct {
	engine svk.Engine
	srv    *gatt.Server
	bonds  *BondTracker
	log    svk.Logger

	name     string
	services []svk.UUID

	inputA, inputB quadrature.EdgeSource
	mute           <-chan struct{}
	keys           chan hid.Key

	inputHandle   uint16
	batteryHandle uint16

	pressReleaseDelay time.Duration
	batteryInterval   time.Duration
}

// Option configures a Knob.
type Option func(*Knob) error

// WithName overrides the advertised device name.
func WithName(name string) Option {
	return func(k *Knob) error {
		if name == "" {
			return errors.New("empty device name")
		}
		k.name = name
		return nil
	}
}

// WithEncoder wires the two quadrature channel lines.
func WithEncoder(a, b quadrature.EdgeSource) Option {
	return func(k *Knob) error {
		k.inputA, k.inputB = a, b
		return nil
	}
}

// WithMuteButton wires the push input; each event presses Mute.
func WithMuteButton(presses <-chan struct{}) Option {
	return func(k *Knob) error {
		k.mute = presses
		return nil
	}
}

// WithPressReleaseDelay overrides the gap between a key's press report and
// its auto-release.
func WithPressReleaseDelay(d time.Duration) Option {
	return func(k *Knob) error {
		if d <= 0 {
			return errors.New("non-positive press/release delay")
		}
		k.pressReleaseDelay = d
		return nil
	}
}

// WithBatteryInterval overrides the period of the battery notifier.
func WithBatteryInterval(d time.Duration) Option {
	return func(k *Knob) error {
		if d <= 0 {
			return errors.New("non-positive battery interval")
		}
		k.batteryInterval = d
		return nil
	}
}

// New builds a Knob over the host engine with the fixed attribute schema.
func New(engine svk.Engine, opts ...Option) (*Knob, error) {
	if engine == nil {
		return nil, errors.New("nil host engine")
	}

	k := &Knob{
		engine:            engine,
		srv:               gatt.KnobServer(),
		bonds:             NewBondTracker(),
		log:               svk.GetLogger().ChildLogger(map[string]interface{}{"task": "knob"}),
		name:              DefaultName,
		services:          []svk.UUID{svk.HIDServiceUUID, svk.BatteryServiceUUID},
		keys:              make(chan hid.Key, keyQueueDepth),
		pressReleaseDelay: defaultPressReleaseDelay,
		batteryInterval:   defaultBatteryInterval,
	}
	for _, opt := range opts {
		if err := opt(k); err != nil {
			return nil, err
		}
	}

	var ok bool
	if k.inputHandle, ok = k.srv.HandleOf(svk.ReportUUID); !ok {
		return nil, errors.New("schema has no input report")
	}
	if k.batteryHandle, ok = k.srv.HandleOf(svk.BatteryLevelUUID); !ok {
		return nil, errors.New("schema has no battery level")
	}
	return k, nil
}

// Server exposes the attribute table (for inspection and tests).
func (k *Knob) Server() *gatt.Server { return k.srv }

// Bonds exposes the bond tracker.
func (k *Knob) Bonds() *BondTracker { return k.bonds }

// Press queues one key press/auto-release cycle. Presses arriving faster
// than they can be delivered are dropped; presses queued while no session is
// live never survive into the next one.
func (k *Knob) Press(key hid.Key) {
	select {
	case k.keys <- key:
	default:
		k.log.Warnf("%v press dropped", key)
	}
}

// drainKeys discards queued presses. A press made against no connection is
// stale; replaying it at the next connect would surprise the new host.
func (k *Knob) drainKeys() {
	for {
		select {
		case key := <-k.keys:
			k.log.Debugf("dropping stale %v press", key)
		default:
			return
		}
	}
}

// Run drives the device: the host engine's background loop, the input
// routing and the advertise→session cycle, all concurrent from the start.
// It returns only on a fatal host error or when the context ends.
func (k *Knob) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	engineErr := make(chan error, 1)
	go func() { engineErr <- k.engine.Run(ctx) }()

	if k.inputA != nil && k.inputB != nil {
		rotations := make(chan quadrature.Rotation, rotationQueueDepth)
		go quadrature.NewDecoder(k.inputA, k.inputB).Run(ctx, rotations)
		go k.routeRotations(ctx, rotations)
	}
	if k.mute != nil {
		go k.routeMute(ctx)
	}

	a := newAdvertiser(k.engine, k.srv, k.name, k.services)
	for {
		select {
		case err := <-engineErr:
			return errors.Wrap(err, "host engine")
		default:
		}

		conn, err := a.advertise(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if err := k.runSession(ctx, conn, engineErr); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "host engine")
		}
	}
}

// routeRotations maps detents to volume keys: a left detent turns the
// volume down, a right detent up.
func (k *Knob) routeRotations(ctx context.Context, rotations <-chan quadrature.Rotation) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-rotations:
			switch r {
			case quadrature.Left:
				k.Press(hid.VolDown)
			case quadrature.Right:
				k.Press(hid.VolUp)
			}
		}
	}
}

func (k *Knob) routeMute(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-k.mute:
			if !ok {
				return
			}
			k.Press(hid.Mute)
		}
	}
}
