package hostsim

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/ratlabs/svk"
)

func TestDerivePairingKeys(t *testing.T) {
	local := svk.NewAddr(LocalAddr)
	remote := svk.NewAddr(CentralAddr)

	k1, err := derivePairingKeys(local, remote)
	if err != nil {
		t.Fatal(err)
	}
	if len(k1.ltk) != 16 {
		t.Fatalf("ltk length %d, want 16", len(k1.ltk))
	}
	if k1.code >= 1000000 {
		t.Fatalf("confirm value %d not a 6-digit code", k1.code)
	}

	k2, err := derivePairingKeys(local, remote)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(k1.ltk, k2.ltk) {
		t.Fatal("two exchanges produced the same ltk")
	}
}

// Sample 4 of the f5 test vectors [Vol 3, Part H, Appendix D].
func TestSmpF5Vector(t *testing.T) {
	unhex := func(s string) []byte {
		b, err := hex.DecodeString(s)
		if err != nil {
			t.Fatal(err)
		}
		return b
	}

	w := unhex("ec0234a357c8ad05341010a60a397d9b99796b13b4f866f1868d34f373bfa698")
	n1 := unhex("d5cb8454d177733effffb2ec712baeab")
	n2 := unhex("a6e8e7cc25a75f6e216583f7ff3dc4cf")
	a1 := unhex("0056123737bfce")
	a2 := unhex("00a713702dcfc1")

	macKey, ltk, err := smpF5(w, n1, n2, a1, a2)
	if err != nil {
		t.Fatal(err)
	}

	wantMac := unhex("2965f176a1084a02fd3f6a20ce636e20")
	wantLTK := unhex("6986791169d7cd23980522b594750a38")
	if !bytes.Equal(macKey, wantMac) {
		t.Fatalf("macKey = %x, want %x", macKey, wantMac)
	}
	if !bytes.Equal(ltk, wantLTK) {
		t.Fatalf("ltk = %x, want %x", ltk, wantLTK)
	}
}

// g2 test vector from the same appendix.
func TestSmpG2Vector(t *testing.T) {
	unhex := func(s string) []byte {
		b, err := hex.DecodeString(s)
		if err != nil {
			t.Fatal(err)
		}
		return b
	}

	u := unhex("20b003d2f297be2c5e2c83a7e9f9a5b9eff49111acf4fddbcc0301480e359de6")
	v := unhex("55188b3d32f6bb9a900afcfbeed4e72a59cb9ac2f19d7cfb6b4fdd49f47fc5fd")
	x := unhex("d5cb8454d177733effffb2ec712baeab")
	y := unhex("a6e8e7cc25a75f6e216583f7ff3dc4cf")

	got, err := smpG2(u, v, x, y)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x2f9ed5ba {
		t.Fatalf("g2 = %#x, want 0x2f9ed5ba", got)
	}
}

func TestSmpF5RejectsBadLengths(t *testing.T) {
	if _, _, err := smpF5(make([]byte, 31), make([]byte, 16), make([]byte, 16), make([]byte, 7), make([]byte, 7)); err == nil {
		t.Fatal("short dhkey accepted")
	}
	if _, _, err := smpF5(make([]byte, 32), make([]byte, 15), make([]byte, 16), make([]byte, 7), make([]byte, 7)); err == nil {
		t.Fatal("short nonce accepted")
	}
	if _, _, err := smpF5(make([]byte, 32), make([]byte, 16), make([]byte, 16), make([]byte, 6), make([]byte, 7)); err == nil {
		t.Fatal("short address accepted")
	}
}
