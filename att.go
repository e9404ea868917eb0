package svk

import (
	"sync"

	"github.com/pkg/errors"
)

// AttError is an ATT protocol status code carried in an error response
// [Vol 3, Part F, 3.4.1.1].
type AttError byte

const (
	AttSuccess                       AttError = 0x00
	AttErrInvalidHandle              AttError = 0x01
	AttErrReadNotPermitted           AttError = 0x02
	AttErrWriteNotPermitted          AttError = 0x03
	AttErrInsufficientAuthentication AttError = 0x05
	AttErrInsufficientEncryption     AttError = 0x0f
	AttErrUnlikely                   AttError = 0x0e
)

func (e AttError) String() string {
	switch e {
	case AttSuccess:
		return "success"
	case AttErrInvalidHandle:
		return "invalid handle"
	case AttErrReadNotPermitted:
		return "read not permitted"
	case AttErrWriteNotPermitted:
		return "write not permitted"
	case AttErrInsufficientAuthentication:
		return "insufficient authentication"
	case AttErrInsufficientEncryption:
		return "insufficient encryption"
	case AttErrUnlikely:
		return "unlikely error"
	default:
		return "unknown"
	}
}

// GattOp distinguishes peer-initiated attribute operations.
type GattOp int

const (
	GattRead GattOp = iota
	GattWrite
)

func (o GattOp) String() string {
	if o == GattRead {
		return "read"
	}
	return "write"
}

// ErrAlreadyReplied is returned when a GattRequest is accepted or rejected
// more than once.
var ErrAlreadyReplied = errors.New("request already replied to")

// GattRequest is one peer-initiated read or write surfaced by the host
// engine. The protocol requires exactly one response per request: Accept and
// Reject arm a one-shot reply, and any further attempt fails with
// ErrAlreadyReplied.
type GattRequest struct {
	Op     GattOp
	Handle uint16
	Data   []byte // write payload, nil for reads

	mu      sync.Mutex
	replied bool
	reply   func(status AttError) error
}

// NewGattRequest builds a request around the engine's reply callback.
// Intended for Engine implementations.
func NewGattRequest(op GattOp, handle uint16, data []byte, reply func(AttError) error) *GattRequest {
	return &GattRequest{Op: op, Handle: handle, Data: data, reply: reply}
}

// Accept lets the host engine complete the operation.
func (r *GattRequest) Accept() error {
	return r.respond(AttSuccess)
}

// Reject refuses the operation with the given status code.
func (r *GattRequest) Reject(code AttError) error {
	return r.respond(code)
}

// Replied reports whether a response has been sent.
func (r *GattRequest) Replied() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replied
}

func (r *GattRequest) respond(code AttError) error {
	r.mu.Lock()
	if r.replied {
		r.mu.Unlock()
		return ErrAlreadyReplied
	}
	r.replied = true
	r.mu.Unlock()

	if r.reply == nil {
		return nil
	}
	return r.reply(code)
}
