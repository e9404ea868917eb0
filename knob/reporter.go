package knob

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ratlabs/svk"
	"github.com/ratlabs/svk/hid"
)

// notify is the application notifier: it turns queued key events into HID
// press/release cycles and periodically pushes the battery level. Any send
// failure means the peer is gone; the error ends the session.
func (k *Knob) notify(ctx context.Context, conn svk.Conn) error {
	log := k.log.ChildLogger(map[string]interface{}{"task": "notify"})

	battery := time.NewTicker(k.batteryInterval)
	defer battery.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case key := <-k.keys:
			if err := k.sendKey(ctx, conn, key); err != nil {
				log.Infof("key notify failed: %s", err)
				return err
			}
		case <-battery.C:
			v, err := k.srv.Value(k.batteryHandle)
			if err != nil {
				return err
			}
			if err := conn.Notify(k.batteryHandle, v); err != nil {
				log.Infof("battery notify failed: %s", err)
				return err
			}
		}
	}
}

// sendKey emits one full key cycle: the key's input report, a fixed gap,
// then the all-released report. The encoder produces discrete detents, so
// each one has to look like a complete press and release to the host OS.
func (k *Knob) sendKey(ctx context.Context, conn svk.Conn, key hid.Key) error {
	if err := conn.Notify(k.inputHandle, key.Report()); err != nil {
		return errors.Wrapf(err, "%v press", key)
	}

	select {
	case <-time.After(k.pressReleaseDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := conn.Notify(k.inputHandle, hid.KeyNone.Report()); err != nil {
		return errors.Wrapf(err, "%v release", key)
	}
	return nil
}

// SetBatteryLevel records a new measurement, served on the next read or
// battery tick.
func (k *Knob) SetBatteryLevel(level byte) error {
	if level > 100 {
		level = 100
	}
	return k.srv.SetValue(k.batteryHandle, []byte{level})
}
