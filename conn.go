package svk

import (
	"context"

	"github.com/pkg/errors"
)

// ErrClosed is returned by operations on a connection whose link is gone.
var ErrClosed = errors.New("connection closed")

// SecurityLevel is the negotiated security of a live link.
type SecurityLevel int

const (
	// SecurityNone is an open link with no encryption.
	SecurityNone SecurityLevel = iota
	// SecurityUnauthenticated is encrypted without MITM protection.
	SecurityUnauthenticated
	// SecurityAuthenticated is encrypted with an authenticated key.
	SecurityAuthenticated
)

// Authenticated reports whether the level carries MITM protection.
func (l SecurityLevel) Authenticated() bool {
	return l >= SecurityAuthenticated
}

func (l SecurityLevel) String() string {
	switch l {
	case SecurityNone:
		return "none"
	case SecurityUnauthenticated:
		return "unauthenticated"
	case SecurityAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// AttributeServer is the attribute storage a connection is bound to at accept
// time. The host engine serves values from it once the dispatcher accepts a
// request; the core never answers with data itself.
type AttributeServer interface {
	Value(handle uint16) ([]byte, error)
	SetValue(handle uint16, value []byte) error
	Notifiable(handle uint16) bool
}

// Conn is one live link to a central, owned by the session for its lifetime.
type Conn interface {
	// RemoteAddr returns the peer's address.
	RemoteAddr() Addr

	// SecurityLevel returns the link's current negotiated security.
	SecurityLevel() (SecurityLevel, error)

	// SetBondable controls whether the next pairing on this link may bond.
	SetBondable(bondable bool) error

	// PassKeyConfirm answers an outstanding numeric-comparison prompt.
	PassKeyConfirm() error

	// Notify pushes a value update for the attribute to the peer. It fails
	// once the link is gone.
	Notify(handle uint16, value []byte) error

	// Events returns the connection's event stream. Events are delivered
	// strictly in the order the host engine surfaces them; the stream ends
	// with a Disconnected event when the engine can still deliver one, and
	// with the Disconnected channel closing in every case.
	Events() <-chan SessionEvent

	// Disconnected is closed when the link goes down for any reason.
	Disconnected() <-chan struct{}

	// Close tears the link down locally.
	Close() error
}

// Engine is the BLE host/link-layer engine the core drives. It is an
// external collaborator: the core submits advertising payloads, waits for
// connections and reacts to the events the engine surfaces.
type Engine interface {
	// Run drives the engine's low-level loop. It blocks until the context is
	// cancelled or a fatal transport error occurs.
	Run(ctx context.Context) error

	// Advertise submits the advertising data (and optional scan response),
	// then suspends until a central connects. The returned connection is
	// bound to srv for its lifetime.
	Advertise(ctx context.Context, ad, sr []byte, srv AttributeServer) (Conn, error)
}
