package knob

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/ratlabs/svk"
	"github.com/ratlabs/svk/hid"
	"github.com/ratlabs/svk/hostsim"
)

// harness runs a Knob over the in-memory host engine for one test.
type harness struct {
	t      *testing.T
	engine *hostsim.Engine
	knob   *Knob
	ctx    context.Context
	done   chan error
}

func startKnob(t *testing.T, opts ...Option) *harness {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	e := hostsim.New()
	k, err := New(e, opts...)
	if err != nil {
		t.Fatal(err)
	}

	h := &harness{t: t, engine: e, knob: k, ctx: ctx, done: make(chan error, 1)}
	go func() { h.done <- k.Run(ctx) }()
	return h
}

// connect waits for an advertising window and takes it.
func (h *harness) connect() *hostsim.Central {
	h.t.Helper()
	if err := h.engine.WaitAdvertising(h.ctx); err != nil {
		h.t.Fatal(err)
	}
	c, err := h.engine.Connect(h.ctx)
	if err != nil {
		h.t.Fatal(err)
	}
	return c
}

// sync round-trips one read so the session is known to be pumping. The
// bondable policy is applied before the pump starts, so after sync the
// policy is observable too.
func (h *harness) sync(c *hostsim.Central, handle uint16) svk.AttError {
	h.t.Helper()
	_, status, err := c.Read(h.ctx, handle)
	if err != nil {
		h.t.Fatal(err)
	}
	return status
}

func (h *harness) inputHandle() uint16 {
	h.t.Helper()
	handle, ok := h.knob.Server().HandleOf(svk.ReportUUID)
	if !ok {
		h.t.Fatal("no input report in schema")
	}
	return handle
}

func expectReport(t *testing.T, sub <-chan []byte, want []byte) {
	t.Helper()
	select {
	case got := <-sub:
		if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
			t.Fatalf("notified %v, want %v", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no notification, want %v", want)
	}
}

func TestReadsRejectedUntilAuthenticated(t *testing.T) {
	h := startKnob(t)
	c := h.connect()
	input := h.inputHandle()

	if status := h.sync(c, input); status != svk.AttErrInsufficientAuthentication {
		t.Fatalf("unauthenticated read status = %v", status)
	}

	level, err := c.Pair(h.ctx, hostsim.PairOptions{MITM: true})
	if err != nil {
		t.Fatal(err)
	}
	if level != svk.SecurityAuthenticated {
		t.Fatalf("paired at %v", level)
	}

	if status := h.sync(c, input); status != svk.AttSuccess {
		t.Fatalf("authenticated read status = %v", status)
	}
}

func TestWritesGatedLikeReads(t *testing.T) {
	h := startKnob(t)
	c := h.connect()

	status, _ := h.knob.Server().HandleOf(svk.StatusUUID)
	if code, err := c.Write(h.ctx, status, []byte{0x01}); err != nil || code != svk.AttErrInsufficientAuthentication {
		t.Fatalf("unauthenticated write: %v, %v", code, err)
	}

	if _, err := c.Pair(h.ctx, hostsim.PairOptions{MITM: true}); err != nil {
		t.Fatal(err)
	}
	if code, err := c.Write(h.ctx, status, []byte{0x01}); err != nil || code != svk.AttSuccess {
		t.Fatalf("authenticated write: %v, %v", code, err)
	}
	if v, _ := h.knob.Server().Value(status); len(v) != 1 || v[0] != 0x01 {
		t.Fatalf("status value = %v after accepted write", v)
	}
}

func TestBondablePolicy(t *testing.T) {
	h := startKnob(t)
	input := h.inputHandle()

	// no bond yet: the first connection offers bonding
	c := h.connect()
	h.sync(c, input)
	if !c.Bondable() {
		t.Fatal("fresh device not bondable")
	}

	if _, err := c.Pair(h.ctx, hostsim.PairOptions{MITM: true, Bond: true}); err != nil {
		t.Fatal(err)
	}
	// the pairing-complete event lands asynchronously in the pump
	deadline := time.Now().Add(5 * time.Second)
	for !h.knob.Bonds().Bonded() {
		if time.Now().After(deadline) {
			t.Fatal("bond never stored")
		}
		time.Sleep(time.Millisecond)
	}

	c.Disconnect(nil)

	// with a bond held, the next connection must not offer a fresh pairing
	c = h.connect()
	h.sync(c, input)
	if c.Bondable() {
		t.Fatal("bonded device still offering bonding")
	}
}

func TestPressSendsOneFullKeyCycle(t *testing.T) {
	h := startKnob(t, WithPressReleaseDelay(5*time.Millisecond))
	c := h.connect()
	input := h.inputHandle()
	sub := c.Subscribe(input)

	h.knob.Press(hid.VolUp)

	expectReport(t, sub, hid.VolUp.Report())
	expectReport(t, sub, hid.KeyNone.Report())

	select {
	case v := <-sub:
		t.Fatalf("extra report %v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStalePressesDroppedAtConnect(t *testing.T) {
	h := startKnob(t, WithPressReleaseDelay(5*time.Millisecond))

	// queued while nothing is connected
	h.knob.Press(hid.VolUp)
	h.knob.Press(hid.Mute)

	c := h.connect()
	sub := c.Subscribe(h.inputHandle())
	h.sync(c, h.inputHandle())

	select {
	case v := <-sub:
		t.Fatalf("stale press replayed into new session: % x", v)
	case <-time.After(50 * time.Millisecond):
	}

	// live presses still flow
	h.knob.Press(hid.VolDown)
	expectReport(t, sub, hid.VolDown.Report())
	expectReport(t, sub, hid.KeyNone.Report())
}

// fakeLine is a scriptable quadrature edge source.
type fakeLine struct {
	level bool
	edges chan struct{}
}

func newFakeLine(level bool) *fakeLine {
	return &fakeLine{level: level, edges: make(chan struct{}, 8)}
}

func (l *fakeLine) Edges() <-chan struct{} { return l.edges }
func (l *fakeLine) Level() bool            { return l.level }

func (l *fakeLine) set(level bool) {
	l.level = level
	l.edges <- struct{}{}
}

func TestRotationsDriveVolumeKeys(t *testing.T) {
	a := newFakeLine(true)
	b := newFakeLine(true)
	h := startKnob(t, WithEncoder(a, b), WithPressReleaseDelay(5*time.Millisecond))
	c := h.connect()
	sub := c.Subscribe(h.inputHandle())

	// left detent: A falls, then B follows
	a.set(false)
	b.set(false)
	expectReport(t, sub, hid.VolDown.Report())
	expectReport(t, sub, hid.KeyNone.Report())

	// right detent from the low rest state
	b.set(true)
	a.set(true)
	expectReport(t, sub, hid.VolUp.Report())
	expectReport(t, sub, hid.KeyNone.Report())
}

func TestMuteButton(t *testing.T) {
	presses := make(chan struct{}, 1)
	h := startKnob(t, WithMuteButton(presses), WithPressReleaseDelay(5*time.Millisecond))
	c := h.connect()
	sub := c.Subscribe(h.inputHandle())

	presses <- struct{}{}
	expectReport(t, sub, hid.Mute.Report())
	expectReport(t, sub, hid.KeyNone.Report())
}

func TestBatteryNotified(t *testing.T) {
	h := startKnob(t, WithBatteryInterval(10*time.Millisecond))
	c := h.connect()

	battery, _ := h.knob.Server().HandleOf(svk.BatteryLevelUUID)
	sub := c.Subscribe(battery)

	if err := h.knob.SetBatteryLevel(87); err != nil {
		t.Fatal(err)
	}
	select {
	case v := <-sub:
		if len(v) != 1 || v[0] != 87 {
			t.Fatalf("battery notification %v", v)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no battery notification")
	}
}

func TestDisconnectResumesAdvertising(t *testing.T) {
	// a long press/release delay parks the notifier mid-cycle
	h := startKnob(t, WithPressReleaseDelay(5*time.Second))
	c := h.connect()
	sub := c.Subscribe(h.inputHandle())

	h.knob.Press(hid.VolUp)
	expectReport(t, sub, hid.VolUp.Report())

	c.Disconnect(errors.New("peer went away"))

	if err := h.engine.WaitAdvertising(h.ctx); err != nil {
		t.Fatalf("not advertising again: %s", err)
	}
	select {
	case err := <-h.done:
		t.Fatalf("run exited on disconnect: %v", err)
	default:
	}
}

func TestHostFailureEndsLiveSession(t *testing.T) {
	h := startKnob(t)
	c := h.connect()
	h.sync(c, h.inputHandle())

	// the peer stays connected and idle; engine death alone must tear the
	// session down and halt the device
	h.engine.InjectFailure(errors.New("controller reset"))

	select {
	case err := <-h.done:
		if err == nil {
			t.Fatal("run returned nil after mid-session host failure")
		}
	case <-h.ctx.Done():
		t.Fatal("session survived host failure")
	}
}

func TestHostFailureIsFatal(t *testing.T) {
	h := startKnob(t)
	if err := h.engine.WaitAdvertising(h.ctx); err != nil {
		t.Fatal(err)
	}

	h.engine.InjectFailure(errors.New("controller dropped off the bus"))

	select {
	case err := <-h.done:
		if err == nil {
			t.Fatal("run returned nil after host failure")
		}
	case <-h.ctx.Done():
		t.Fatal("run survived host failure")
	}
}
