package knob

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ratlabs/svk"
)

// runSession owns one connection from accept to teardown. The single-bond
// policy is enforced before anything else: a device that already holds a
// bond does not offer a fresh pairing. The GATT event pump and the notifier
// then race; whichever finishes first cancels the other, and control returns
// to the advertiser unconditionally. A fatal host engine error interrupts
// the session immediately and is returned for the caller to halt on.
func (k *Knob) runSession(ctx context.Context, conn svk.Conn, engineErr <-chan error) error {
	if err := conn.SetBondable(!k.bonds.Bonded()); err != nil {
		k.log.Warnf("set bondable: %s", err)
	}

	k.drainKeys()

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pumpDone := make(chan error, 1)
	notifyDone := make(chan error, 1)
	go func() { pumpDone <- k.pump(sctx, conn) }()
	go func() { notifyDone <- k.notify(sctx, conn) }()

	var err, fatal error
	select {
	case err = <-pumpDone:
		cancel()
		<-notifyDone
	case err = <-notifyDone:
		cancel()
		<-pumpDone
	case fatal = <-engineErr:
		cancel()
		<-pumpDone
		<-notifyDone
	}

	if err != nil && errors.Cause(err) != context.Canceled {
		k.log.Debugf("session ended: %s", err)
	}
	_ = conn.Close()
	k.log.Info("session over, resuming advertising")
	return fatal
}
