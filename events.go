package svk

// SessionEvent is one event surfaced by the host engine for a connection.
// The dispatcher consumes these strictly in order.
type SessionEvent interface {
	sessionEvent()
}

// DisconnectedEvent terminates the event stream.
type DisconnectedEvent struct {
	Reason error
}

// PassKeyDisplayEvent carries the confirm value to show to the user.
type PassKeyDisplayEvent struct {
	Code uint32
}

// PassKeyConfirmEvent asks for a yes/no confirmation of the displayed value.
type PassKeyConfirmEvent struct{}

// PassKeyInputEvent asks for numeric entry. The knob has no keypad; the
// event is informational only.
type PassKeyInputEvent struct{}

// PairingCompleteEvent reports the outcome of a successful pairing. Bond is
// nil when the pairing did not bond.
type PairingCompleteEvent struct {
	Level SecurityLevel
	Bond  BondInfo
}

// PairingFailedEvent reports a failed pairing. The session continues; the
// peer may retry.
type PairingFailedEvent struct {
	Err error
}

// GattRequestEvent surfaces a peer read or write for dispatch.
type GattRequestEvent struct {
	Request *GattRequest
}

func (DisconnectedEvent) sessionEvent()    {}
func (PassKeyDisplayEvent) sessionEvent()  {}
func (PassKeyConfirmEvent) sessionEvent()  {}
func (PassKeyInputEvent) sessionEvent()    {}
func (PairingCompleteEvent) sessionEvent() {}
func (PairingFailedEvent) sessionEvent()   {}
func (GattRequestEvent) sessionEvent()     {}
