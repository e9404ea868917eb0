package hostsim

import (
	"crypto/aes"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/binary"

	"github.com/aead/cmac"
	"github.com/pkg/errors"
	ecdh "github.com/wsddn/go-ecdh"

	"github.com/ratlabs/svk"
)

// pairingKeys is the outcome of one simulated LE Secure Connections
// exchange: the long-term key and the 6-digit numeric-comparison value.
type pairingKeys struct {
	ltk  []byte
	code uint32
}

// derivePairingKeys runs the Secure Connections key path for the simulated
// link: a fresh P-256 ECDH exchange, then the f5 key derivation and the g2
// comparison value over the shared secret [Vol 3, Part H, 2.2].
func derivePairingKeys(local, remote svk.Addr) (*pairingKeys, error) {
	e := ecdh.NewEllipticECDH(elliptic.P256())

	privA, pubA, err := e.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "generate local keypair")
	}
	_, pubB, err := e.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "generate remote keypair")
	}

	dhKey, err := e.GenerateSharedSecret(privA, pubB)
	if err != nil {
		return nil, errors.Wrap(err, "shared secret")
	}
	if len(dhKey) > 32 {
		dhKey = dhKey[:32]
	}

	n1, err := nonce16()
	if err != nil {
		return nil, err
	}
	n2, err := nonce16()
	if err != nil {
		return nil, err
	}

	_, ltk, err := smpF5(dhKey, n1, n2, addr7(local), addr7(remote))
	if err != nil {
		return nil, errors.Wrap(err, "f5")
	}

	code, err := smpG2(pubX(e, pubA), pubX(e, pubB), n1, n2)
	if err != nil {
		return nil, errors.Wrap(err, "g2")
	}

	return &pairingKeys{ltk: ltk, code: code % 1000000}, nil
}

// smpF5 derives the MacKey and LTK from the DH key, the nonces and the two
// device addresses [Vol 3, Part H, 2.2.7]. All buffers are
// most-significant-byte first, matching the Core Specification sample data.
func smpF5(w, n1, n2, a1, a2 []byte) ([]byte, []byte, error) {
	switch {
	case len(w) != 32:
		return nil, nil, errors.Errorf("f5: dhkey length %d", len(w))
	case len(n1) != 16 || len(n2) != 16:
		return nil, nil, errors.New("f5: nonce length")
	case len(a1) != 7 || len(a2) != 7:
		return nil, nil, errors.New("f5: address length")
	}

	keyID := []byte{0x62, 0x74, 0x6c, 0x65} // "btle"
	salt := []byte{0x6c, 0x88, 0x83, 0x91, 0xaa, 0xf5, 0xa5, 0x38,
		0x60, 0x37, 0x0b, 0xdb, 0x5a, 0x60, 0x83, 0xbe}
	length := []byte{0x01, 0x00} // 256 bits

	t, err := aesCMAC(salt, w)
	if err != nil {
		return nil, nil, err
	}

	m := make([]byte, 0, 53)
	m = append(m, 0x00) // counter
	m = append(m, keyID...)
	m = append(m, n1...)
	m = append(m, n2...)
	m = append(m, a1...)
	m = append(m, a2...)
	m = append(m, length...)

	macKey, err := aesCMAC(t, m)
	if err != nil {
		return nil, nil, err
	}

	m[0] = 0x01
	ltk, err := aesCMAC(t, m)
	if err != nil {
		return nil, nil, err
	}

	return macKey, ltk, nil
}

// smpG2 computes the numeric-comparison value from the two public key X
// coordinates and the nonces [Vol 3, Part H, 2.2.9].
func smpG2(u, v, x, y []byte) (uint32, error) {
	if len(u) != 32 || len(v) != 32 || len(x) != 16 || len(y) != 16 {
		return 0, errors.New("g2: length error")
	}

	m := make([]byte, 0, 80)
	m = append(m, u...)
	m = append(m, v...)
	m = append(m, y...)

	r, err := aesCMAC(x, m)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(r[12:16]), nil
}

func aesCMAC(key, msg []byte) ([]byte, error) {
	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "aes")
	}
	out, err := cmac.Sum(msg, c, c.BlockSize())
	if err != nil {
		return nil, errors.Wrap(err, "cmac")
	}
	return out, nil
}

func nonce16() ([]byte, error) {
	n := make([]byte, 16)
	if _, err := rand.Read(n); err != nil {
		return nil, errors.Wrap(err, "nonce")
	}
	return n, nil
}

// addr7 is the address-type byte followed by the 6-byte address, as f5
// wants it. The simulated link uses public addresses.
func addr7(a svk.Addr) []byte {
	b := a.Bytes()
	if len(b) != 6 {
		b = make([]byte, 6)
	}
	return append([]byte{0x00}, b...)
}

// pubX extracts the 32-byte X coordinate from a marshalled P-256 point.
func pubX(e ecdh.ECDH, pub interface{}) []byte {
	b := e.Marshal(pub)
	if len(b) == 65 {
		return b[1:33]
	}
	x := make([]byte, 32)
	copy(x, b)
	return x
}
