//go:build !linux
// +build !linux

package main

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/ratlabs/svk"
	"github.com/ratlabs/svk/knob"
)

func openHardware(c *cli.Context, log svk.Logger) (svk.Engine, []knob.Option, func(), error) {
	return nil, nil, nil, errors.New("hardware mode is linux only; use --simulate")
}
