package hostsim

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ratlabs/svk"
)

// Central drives the remote side of a simulated link: reads, writes,
// subscriptions, pairing and disconnects, the way a host computer would.
type Central struct {
	conn *Conn
}

// peerWriter is the capability-checked write path of the attribute server.
type peerWriter interface {
	PeerWrite(handle uint16, value []byte) error
}

// Read requests the attribute's value. The returned status is the ATT
// response code; the value is only valid on AttSuccess.
func (ct *Central) Read(ctx context.Context, handle uint16) ([]byte, svk.AttError, error) {
	status, err := ct.request(ctx, svk.GattRead, handle, nil)
	if err != nil {
		return nil, svk.AttErrUnlikely, err
	}
	if status != svk.AttSuccess {
		return nil, status, nil
	}
	v, err := ct.conn.srv.Value(handle)
	return v, svk.AttSuccess, err
}

// Write requests a value write and applies it on acceptance.
func (ct *Central) Write(ctx context.Context, handle uint16, value []byte) (svk.AttError, error) {
	status, err := ct.request(ctx, svk.GattWrite, handle, value)
	if err != nil || status != svk.AttSuccess {
		return status, err
	}
	if pw, ok := ct.conn.srv.(peerWriter); ok {
		if err := pw.PeerWrite(handle, value); err != nil {
			return svk.AttErrWriteNotPermitted, nil
		}
		return svk.AttSuccess, nil
	}
	return svk.AttSuccess, ct.conn.srv.SetValue(handle, value)
}

func (ct *Central) request(ctx context.Context, op svk.GattOp, handle uint16, data []byte) (svk.AttError, error) {
	reply := make(chan svk.AttError, 1)
	req := svk.NewGattRequest(op, handle, data, func(code svk.AttError) error {
		reply <- code
		return nil
	})
	ct.conn.push(svk.GattRequestEvent{Request: req})

	select {
	case <-ctx.Done():
		return svk.AttErrUnlikely, ctx.Err()
	case <-ct.conn.disconnected:
		return svk.AttErrUnlikely, errors.Wrap(svk.ErrClosed, op.String())
	case code := <-reply:
		return code, nil
	}
}

// Subscribe returns the stream of notified values for the handle.
func (ct *Central) Subscribe(handle uint16) <-chan []byte {
	return ct.conn.subscribe(handle)
}

// PairOptions configures a simulated pairing.
type PairOptions struct {
	// MITM runs the numeric-comparison path, yielding an authenticated key.
	MITM bool
	// Bond requests bonding; it takes effect only if the peripheral
	// offered a bondable connection.
	Bond bool
}

// Pair runs the pairing state machine against the peripheral: passkey
// display and confirm events (when MITM), then key derivation and the
// pairing-complete report. It returns the negotiated level.
func (ct *Central) Pair(ctx context.Context, opts PairOptions) (svk.SecurityLevel, error) {
	c := ct.conn

	keys, err := derivePairingKeys(svk.NewAddr(LocalAddr), c.remote)
	if err != nil {
		c.push(svk.PairingFailedEvent{Err: err})
		return svk.SecurityNone, err
	}

	level := svk.SecurityUnauthenticated
	if opts.MITM {
		c.push(svk.PassKeyDisplayEvent{Code: keys.code})
		c.push(svk.PassKeyConfirmEvent{})
		select {
		case <-ctx.Done():
			return svk.SecurityNone, ctx.Err()
		case <-c.disconnected:
			return svk.SecurityNone, errors.Wrap(svk.ErrClosed, "pairing")
		case <-c.confirm:
		}
		level = svk.SecurityAuthenticated
	}

	var bond svk.BondInfo
	if opts.Bond && c.isBondable() {
		bond = svk.NewBondInfo(c.remote, keys.ltk, 0, 0, false)
	}

	c.setLevel(level)
	c.push(svk.PairingCompleteEvent{Level: level, Bond: bond})
	return level, nil
}

// FailPairing surfaces a pairing failure without changing the link.
func (ct *Central) FailPairing(err error) {
	ct.conn.push(svk.PairingFailedEvent{Err: err})
}

// Bondable reports whether the peripheral offered bonding on this link.
func (ct *Central) Bondable() bool {
	return ct.conn.isBondable()
}

// Disconnect tears the link down from the central side.
func (ct *Central) Disconnect(reason error) {
	if reason == nil {
		reason = errors.New("remote disconnect")
	}
	ct.conn.drop(reason)
}

// Disconnected is closed when the link is gone.
func (ct *Central) Disconnected() <-chan struct{} {
	return ct.conn.disconnected
}
