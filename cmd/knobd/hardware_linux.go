//go:build linux
// +build linux

package main

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/ratlabs/svk"
	"github.com/ratlabs/svk/gpio"
	"github.com/ratlabs/svk/host"
	"github.com/ratlabs/svk/knob"
	"github.com/ratlabs/svk/transport/h4"
)

// openHardware claims the GPIO inputs, brings the controller up over UART
// with a fresh firmware image and binds the configured host engine.
func openHardware(c *cli.Context, log svk.Logger) (svk.Engine, []knob.Option, func(), error) {
	chip := c.String("chip")
	debounce := c.Duration("debounce")

	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}
	fail := func(err error) (svk.Engine, []knob.Option, func(), error) {
		cleanup()
		return nil, nil, nil, err
	}

	a, err := gpio.RequestEncoderLine(chip, c.Int("pin-a"), debounce)
	if err != nil {
		return fail(errors.Wrap(err, "encoder channel a"))
	}
	closers = append(closers, a.Close)

	b, err := gpio.RequestEncoderLine(chip, c.Int("pin-b"), debounce)
	if err != nil {
		return fail(errors.Wrap(err, "encoder channel b"))
	}
	closers = append(closers, b.Close)

	opts := []knob.Option{knob.WithEncoder(a, b)}
	if pin := c.Int("pin-mute"); pin >= 0 {
		btn, err := gpio.RequestButton(chip, pin, debounce)
		if err != nil {
			return fail(errors.Wrap(err, "mute button"))
		}
		closers = append(closers, btn.Close)
		opts = append(opts, knob.WithMuteButton(btn.Presses()))
	}

	ctrl, err := h4.Open(c.String("uart"))
	if err != nil {
		return fail(errors.Wrap(err, "controller uart"))
	}
	closers = append(closers, ctrl.Close)

	fw, err := h4.LoadFirmware(c.String("firmware"))
	if err != nil {
		return fail(err)
	}
	if err := h4.Download(ctrl, fw); err != nil {
		return fail(errors.Wrap(err, "firmware download"))
	}

	engine, err := host.New(c.String("engine"), ctrl, log)
	if err != nil {
		return fail(err)
	}
	return engine, opts, cleanup, nil
}
