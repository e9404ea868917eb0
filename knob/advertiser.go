package knob

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ratlabs/svk"
	"github.com/ratlabs/svk/adv"
	"github.com/ratlabs/svk/gatt"
)

// advertiser builds the knob's advertising payload and drives the
// advertise/accept cycle of the host engine.
type advertiser struct {
	engine   svk.Engine
	srv      svk.AttributeServer
	name     string
	services []svk.UUID
	log      svk.Logger
}

func newAdvertiser(engine svk.Engine, srv svk.AttributeServer, name string, services []svk.UUID) *advertiser {
	return &advertiser{
		engine:   engine,
		srv:      srv,
		name:     name,
		services: services,
		log:      svk.GetLogger().ChildLogger(map[string]interface{}{"task": "adv"}),
	}
}

func (a *advertiser) payload() ([]byte, error) {
	p, err := adv.NewPacket(
		adv.Flags(adv.FlagGeneralDiscoverable|adv.FlagLEOnly),
		adv.CompleteName(a.name),
		adv.UUID16List(a.services...),
	)
	if err != nil {
		return nil, errors.Wrap(err, "encode advertisement")
	}
	return p.Bytes(), nil
}

// scanResponse carries what the 31-byte advertisement has no room for.
func (a *advertiser) scanResponse() ([]byte, error) {
	p, err := adv.NewPacket(adv.Appearance(gatt.AppearanceHIDKeyboard))
	if err != nil {
		return nil, errors.Wrap(err, "encode scan response")
	}
	return p.Bytes(), nil
}

// advertise submits the payload and suspends until a central connects. The
// returned connection is bound to the attribute server. Errors here are
// fatal for the device; the caller halts with a diagnostic.
func (a *advertiser) advertise(ctx context.Context) (svk.Conn, error) {
	ad, err := a.payload()
	if err != nil {
		return nil, err
	}
	sr, err := a.scanResponse()
	if err != nil {
		return nil, err
	}

	a.log.Info("advertising")
	conn, err := a.engine.Advertise(ctx, ad, sr, a.srv)
	if err != nil {
		return nil, errors.Wrap(err, "advertise/accept")
	}
	a.log.Infof("connection established with %v", conn.RemoteAddr())
	return conn, nil
}
