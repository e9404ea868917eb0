// Package hostsim is an in-memory host engine and scripted central. It backs
// the --simulate mode and the session tests: the same advertise/accept,
// event-stream and notify contracts as a real host stack, with a pairing
// path that derives actual Secure Connections key material.
package hostsim

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ratlabs/svk"
	"github.com/ratlabs/svk/adv"
)

// Resource limits, fixed at compile time like the product's host resources.
const (
	connectionsMax  = 1
	eventQueueDepth = 8
)

// Default simulated addresses.
const (
	LocalAddr   = "ff:8f:1a:05:e4:ff"
	CentralAddr = "c4:3d:10:66:02:01"
)

type advOffer struct {
	fields *adv.Fields
	srv    svk.AttributeServer
	accept chan *Conn
}

// Engine implements svk.Engine in memory.
type Engine struct {
	log svk.Logger

	mu    sync.Mutex
	adv   *advOffer
	conn  *Conn
	fatal chan error
}

// New returns an idle engine.
func New() *Engine {
	return &Engine{
		log:   svk.GetLogger().ChildLogger(map[string]interface{}{"task": "hostsim"}),
		fatal: make(chan error, 1),
	}
}

// Run blocks until the context ends or a fatal error is injected.
func (e *Engine) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-e.fatal:
		return err
	}
}

// InjectFailure makes the engine fail fatally: Run returns and any pending
// Advertise aborts.
func (e *Engine) InjectFailure(err error) {
	select {
	case e.fatal <- err:
	default:
	}

	e.mu.Lock()
	offer := e.adv
	e.adv = nil
	e.mu.Unlock()
	if offer != nil {
		close(offer.accept)
	}
}

// Advertise registers the payload and suspends until a central connects.
func (e *Engine) Advertise(ctx context.Context, ad, sr []byte, srv svk.AttributeServer) (svk.Conn, error) {
	fields, err := adv.Decode(ad)
	if err != nil {
		return nil, errors.Wrap(err, "advertising payload")
	}
	if len(sr) > 0 {
		srf, err := adv.Decode(sr)
		if err != nil {
			return nil, errors.Wrap(err, "scan response")
		}
		if srf.HasAppearance {
			fields.Appearance, fields.HasAppearance = srf.Appearance, true
		}
		if fields.LocalName == "" {
			fields.LocalName = srf.LocalName
		}
	}
	if srv == nil {
		return nil, errors.New("nil attribute server")
	}

	offer := &advOffer{fields: fields, srv: srv, accept: make(chan *Conn)}

	e.mu.Lock()
	if e.adv != nil {
		e.mu.Unlock()
		return nil, errors.New("already advertising")
	}
	e.adv = offer
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		if e.adv == offer {
			e.adv = nil
		}
		e.mu.Unlock()
	}()

	e.log.Debugf("advertising %q", fields.LocalName)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case c, ok := <-offer.accept:
		if !ok {
			return nil, errors.New("host engine failed")
		}
		return c, nil
	}
}

// Advertising returns the currently advertised payload fields, or nil.
func (e *Engine) Advertising() *adv.Fields {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.adv == nil {
		return nil
	}
	f := *e.adv.fields
	return &f
}

// WaitAdvertising blocks until an advertisement window is open.
func (e *Engine) WaitAdvertising(ctx context.Context) error {
	for {
		if e.Advertising() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

// Connect accepts the open advertisement as a simulated central and returns
// the driver for the central side of the link.
func (e *Engine) Connect(ctx context.Context) (*Central, error) {
	e.mu.Lock()
	offer := e.adv
	if offer == nil {
		e.mu.Unlock()
		return nil, errors.New("no advertiser")
	}
	if e.conn != nil {
		e.mu.Unlock()
		return nil, errors.Errorf("connection limit (%d) reached", connectionsMax)
	}
	c := newConn(e, offer.srv)
	e.conn = c
	e.adv = nil
	e.mu.Unlock()

	select {
	case offer.accept <- c:
	case <-ctx.Done():
		e.release(c)
		return nil, ctx.Err()
	}
	return &Central{conn: c}, nil
}

func (e *Engine) release(c *Conn) {
	e.mu.Lock()
	if e.conn == c {
		e.conn = nil
	}
	e.mu.Unlock()
}
