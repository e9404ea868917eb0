package hostsim

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/ratlabs/svk"
)

// subQueueDepth bounds each subscription's in-flight notifications.
const subQueueDepth = 16

// Conn is the peripheral side of a simulated link.
type Conn struct {
	engine *Engine
	srv    svk.AttributeServer
	remote svk.Addr

	events       chan svk.SessionEvent
	disconnected chan struct{}
	confirm      chan struct{}

	mu       sync.Mutex
	closed   bool
	bondable bool
	level    svk.SecurityLevel
	subs     map[uint16]chan []byte
}

func newConn(e *Engine, srv svk.AttributeServer) *Conn {
	return &Conn{
		engine:       e,
		srv:          srv,
		remote:       svk.NewAddr(CentralAddr),
		events:       make(chan svk.SessionEvent, eventQueueDepth),
		disconnected: make(chan struct{}),
		confirm:      make(chan struct{}, 1),
		subs:         make(map[uint16]chan []byte),
	}
}

func (c *Conn) RemoteAddr() svk.Addr { return c.remote }

func (c *Conn) SecurityLevel() (svk.SecurityLevel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return svk.SecurityNone, errors.Wrap(svk.ErrClosed, "security level")
	}
	return c.level, nil
}

func (c *Conn) SetBondable(bondable bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.Wrap(svk.ErrClosed, "set bondable")
	}
	c.bondable = bondable
	return nil
}

func (c *Conn) PassKeyConfirm() error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return errors.Wrap(svk.ErrClosed, "passkey confirm")
	}
	select {
	case c.confirm <- struct{}{}:
	default:
	}
	return nil
}

// Notify pushes an attribute value update toward the central. The handle
// must be notifiable; the value also lands in the attribute server so later
// reads observe it.
func (c *Conn) Notify(handle uint16, value []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.Wrapf(svk.ErrClosed, "notify %#04x", handle)
	}
	if !c.srv.Notifiable(handle) {
		c.mu.Unlock()
		return errors.Errorf("handle %#04x is not notifiable", handle)
	}
	sub := c.subs[handle]
	c.mu.Unlock()

	if err := c.srv.SetValue(handle, value); err != nil {
		return err
	}
	if sub != nil {
		v := append([]byte(nil), value...)
		select {
		case sub <- v:
		default:
			// subscriber not draining; the link-layer would drop too
		}
	}
	return nil
}

func (c *Conn) Events() <-chan svk.SessionEvent { return c.events }

func (c *Conn) Disconnected() <-chan struct{} { return c.disconnected }

// Close tears the link down from the local side.
func (c *Conn) Close() error {
	c.drop(errors.New("local close"))
	return nil
}

// drop ends the link once; later calls are no-ops. The events channel is
// never closed: consumers end on the Disconnected event or on the
// disconnected channel, and late pushes are discarded against the latter.
func (c *Conn) drop(reason error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	// best effort: a full queue means nobody is pumping, and the closed
	// disconnected channel carries the news instead
	select {
	case c.events <- svk.DisconnectedEvent{Reason: reason}:
	default:
	}
	close(c.disconnected)
	c.engine.release(c)
}

// push delivers an event in order, or discards it once the link is gone.
func (c *Conn) push(ev svk.SessionEvent) {
	select {
	case c.events <- ev:
	case <-c.disconnected:
	}
}

func (c *Conn) subscribe(handle uint16) chan []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.subs[handle]
	if !ok {
		ch = make(chan []byte, subQueueDepth)
		c.subs[handle] = ch
	}
	return ch
}

func (c *Conn) setLevel(l svk.SecurityLevel) {
	c.mu.Lock()
	c.level = l
	c.mu.Unlock()
}

func (c *Conn) isBondable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bondable
}
