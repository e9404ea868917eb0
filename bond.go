package svk

// BondInfo is the long-term key material produced by a pairing that bonded.
// The knob keeps at most one bond, in memory, for the process lifetime.
type BondInfo interface {
	Peer() Addr
	LongTermKey() []byte
	EDiv() uint16
	Random() uint64
	Legacy() bool
}

type bondInfo struct {
	peer        Addr
	longTermKey []byte
	ediv        uint16
	randVal     uint64
	legacy      bool
}

// NewBondInfo wraps key material from a completed pairing.
func NewBondInfo(peer Addr, longTermKey []byte, ediv uint16, random uint64, legacy bool) BondInfo {
	return &bondInfo{
		peer:        peer,
		longTermKey: longTermKey,
		ediv:        ediv,
		randVal:     random,
		legacy:      legacy,
	}
}

func (b *bondInfo) Peer() Addr {
	return b.peer
}

func (b *bondInfo) LongTermKey() []byte {
	return b.longTermKey
}

func (b *bondInfo) EDiv() uint16 {
	return b.ediv
}

func (b *bondInfo) Random() uint64 {
	return b.randVal
}

func (b *bondInfo) Legacy() bool {
	return b.legacy
}
