package knob

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ratlabs/svk"
)

// pump consumes the connection's event stream until disconnect. Events are
// handled one at a time, in the order the host engine surfaces them; a slow
// reply stalls delivery of the next event, which is acceptable with a single
// connection.
func (k *Knob) pump(ctx context.Context, conn svk.Conn) error {
	log := k.log.ChildLogger(map[string]interface{}{"task": "gatt"})
	auth := k.log.ChildLogger(map[string]interface{}{"task": "auth"})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-conn.Disconnected():
			log.Info("disconnected")
			return nil
		case ev, ok := <-conn.Events():
			if !ok {
				return nil
			}

			switch e := ev.(type) {
			case svk.DisconnectedEvent:
				log.Infof("disconnected: %v", e.Reason)
				return nil
			case svk.PassKeyDisplayEvent:
				auth.Infof("passkey display: %06d", e.Code)
			case svk.PassKeyConfirmEvent:
				// no user-interaction path; always confirm
				auth.Info("passkey confirm, auto-accepting")
				if err := conn.PassKeyConfirm(); err != nil {
					return errors.Wrap(err, "passkey confirm")
				}
			case svk.PassKeyInputEvent:
				auth.Info("passkey input requested, device has no keypad")
			case svk.PairingCompleteEvent:
				auth.Infof("pairing complete: %v, bonded: %t", e.Level, e.Bond != nil)
				k.bonds.Store(e.Bond)
			case svk.PairingFailedEvent:
				auth.Errorf("pairing failed: %s", e.Err)
			case svk.GattRequestEvent:
				if err := k.dispatch(log, conn, e.Request); err != nil {
					return err
				}
			default:
				// not ours to handle
			}
		}
	}
}

// dispatch applies the authentication gate to one read or write and replies
// exactly once. The gate is attribute-agnostic: every operation on an
// unauthenticated link is refused with insufficient authentication.
func (k *Knob) dispatch(log svk.Logger, conn svk.Conn, req *svk.GattRequest) error {
	if req.Handle == k.batteryHandle {
		switch req.Op {
		case svk.GattRead:
			v, _ := k.srv.Value(req.Handle)
			log.Infof("read of battery level: %v", v)
		case svk.GattWrite:
			log.Infof("write to battery level: %v", req.Data)
		}
	}

	level, lerr := conn.SecurityLevel()
	code := svk.AttSuccess
	if lerr != nil || !level.Authenticated() {
		code = svk.AttErrInsufficientAuthentication
	}

	var rerr error
	if code == svk.AttSuccess {
		rerr = req.Accept()
	} else {
		log.Debugf("%v on %#04x rejected: %v", req.Op, req.Handle, code)
		rerr = req.Reject(code)
	}
	if rerr != nil {
		log.Warnf("error sending response: %s", rerr)
	}

	if lerr != nil {
		// the link is gone if its security level cannot be read
		return errors.Wrap(lerr, "security level")
	}
	return nil
}
