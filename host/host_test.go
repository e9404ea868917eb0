package host

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/ratlabs/svk"
)

type nopEngine struct{}

func (nopEngine) Run(ctx context.Context) error { <-ctx.Done(); return ctx.Err() }
func (nopEngine) Advertise(ctx context.Context, ad, sr []byte, srv svk.AttributeServer) (svk.Conn, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRegistry(t *testing.T) {
	Register("test-nop", func(ctrl io.ReadWriteCloser, log svk.Logger) (svk.Engine, error) {
		return nopEngine{}, nil
	})

	e, err := New("test-nop", nil, svk.GetLogger())
	if err != nil {
		t.Fatal(err)
	}
	if e == nil {
		t.Fatal("nil engine from factory")
	}

	_, err = New("no-such-engine", nil, svk.GetLogger())
	if err == nil {
		t.Fatal("unknown engine accepted")
	}
	if !strings.Contains(err.Error(), "test-nop") {
		t.Fatalf("diagnostic %q does not list registered engines", err)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("duplicate registration did not panic")
		}
	}()
	Register("test-dup", func(io.ReadWriteCloser, svk.Logger) (svk.Engine, error) { return nopEngine{}, nil })
	Register("test-dup", func(io.ReadWriteCloser, svk.Logger) (svk.Engine, error) { return nopEngine{}, nil })
}
