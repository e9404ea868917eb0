package svk

import (
	"encoding/hex"
	"strings"
)

// Addr is a BLE device address.
type Addr interface {
	String() string
	Bytes() []byte
}

// NewAddr creates an Addr from its string form ("ff:8f:1a:05:e4:ff").
func NewAddr(s string) Addr {
	return addr(strings.ToLower(s))
}

type addr string

func (a addr) String() string {
	return string(a)
}

// Bytes returns the address bytes in display (most-significant-first) order.
func (a addr) Bytes() []byte {
	hexStr := strings.Replace(a.String(), ":", "", -1)

	out, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil
	}
	return out
}
