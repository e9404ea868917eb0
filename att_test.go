package svk

import "testing"

func TestGattRequestRepliesOnce(t *testing.T) {
	var got []AttError
	req := NewGattRequest(GattRead, 0x0005, nil, func(code AttError) error {
		got = append(got, code)
		return nil
	})

	if req.Replied() {
		t.Fatal("fresh request already replied")
	}
	if err := req.Accept(); err != nil {
		t.Fatal(err)
	}
	if !req.Replied() {
		t.Fatal("accept did not mark the request replied")
	}
	if err := req.Reject(AttErrUnlikely); err != ErrAlreadyReplied {
		t.Fatalf("second reply: %v", err)
	}
	if err := req.Accept(); err != ErrAlreadyReplied {
		t.Fatalf("third reply: %v", err)
	}

	if len(got) != 1 || got[0] != AttSuccess {
		t.Fatalf("reply callback saw %v", got)
	}
}

func TestGattRequestRejectCode(t *testing.T) {
	var got AttError
	req := NewGattRequest(GattWrite, 0x0009, []byte{0x01}, func(code AttError) error {
		got = code
		return nil
	})
	if err := req.Reject(AttErrInsufficientAuthentication); err != nil {
		t.Fatal(err)
	}
	if got != AttErrInsufficientAuthentication {
		t.Fatalf("rejected with %v", got)
	}
}

func TestUUIDRoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"180f", "180f"},
		{"408813df-5dd4-1f87-ec11-cdb001100000", "408813df5dd41f87ec11cdb001100000"},
	}
	for _, tt := range tests {
		u, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q): %s", tt.in, err)
		}
		if u.String() != tt.want {
			t.Fatalf("Parse(%q).String() = %q, want %q", tt.in, u.String(), tt.want)
		}
	}

	if !UUID16(0x180f).Equal(MustParse("180f")) {
		t.Fatal("UUID16 and parsed form differ")
	}
	if UUID16(0x2a19).Uint16() != 0x2a19 {
		t.Fatal("Uint16 round trip failed")
	}
}
