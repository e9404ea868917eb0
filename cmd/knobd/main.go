// knobd runs the volume-knob firmware: quadrature decoding on two GPIO
// lines, a BLE HID peripheral session over the configured host engine, and
// an optional simulation mode for development off-device.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/ratlabs/svk"
	"github.com/ratlabs/svk/gatt"
	"github.com/ratlabs/svk/hid"
	"github.com/ratlabs/svk/host"
	"github.com/ratlabs/svk/hostsim"
	"github.com/ratlabs/svk/knob"
)

func init() {
	host.Register("sim", func(ctrl io.ReadWriteCloser, log svk.Logger) (svk.Engine, error) {
		return hostsim.New(), nil
	})
}

func main() {
	app := cli.NewApp()
	app.Name = "knobd"
	app.Usage = "BLE HID volume knob"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "name", Value: knob.DefaultName, Usage: "advertised device name"},
		cli.BoolFlag{Name: "simulate", Usage: "run the in-memory host engine with a demo key generator"},
		cli.StringFlag{Name: "engine", Value: "sim", Usage: "host engine binding"},
		cli.StringFlag{Name: "chip", Value: "gpiochip0", Usage: "GPIO character device"},
		cli.IntFlag{Name: "pin-a", Value: 16, Usage: "encoder channel A line offset"},
		cli.IntFlag{Name: "pin-b", Value: 17, Usage: "encoder channel B line offset"},
		cli.IntFlag{Name: "pin-mute", Value: -1, Usage: "mute button line offset, -1 to disable"},
		cli.DurationFlag{Name: "debounce", Value: time.Millisecond, Usage: "input debounce period"},
		cli.StringFlag{Name: "uart", Value: "/dev/ttyS0", Usage: "controller UART"},
		cli.StringFlag{Name: "firmware", Value: "/lib/firmware/cyw43", Usage: "radio firmware bundle directory"},
		cli.BoolFlag{Name: "verbose", Usage: "debug logging"},
	}
	app.Commands = []cli.Command{
		{
			Name:   "attributes",
			Usage:  "print the GATT attribute table and exit",
			Action: printAttributes,
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printAttributes(c *cli.Context) error {
	b, err := gatt.KnobServer().Dump()
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func run(c *cli.Context) error {
	if c.Bool("verbose") {
		svk.SetLogLevelDebug()
	}
	log := svk.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []knob.Option{knob.WithName(c.String("name"))}

	var engine svk.Engine
	if c.Bool("simulate") {
		e, err := host.New("sim", nil, log)
		if err != nil {
			return err
		}
		engine = e
	} else {
		e, hwOpts, cleanup, err := openHardware(c, log)
		if err != nil {
			return err
		}
		defer cleanup()
		engine = e
		opts = append(opts, hwOpts...)
	}

	k, err := knob.New(engine, opts...)
	if err != nil {
		return err
	}

	if c.Bool("simulate") {
		go demoKeys(ctx, k)
		if sim, ok := engine.(*hostsim.Engine); ok {
			go demoCentral(ctx, sim, k, log)
		}
	}

	log.Infof("starting %q", c.String("name"))
	return k.Run(ctx)
}

// demoKeys alternates volume up and down so the simulated device has
// something to say.
func demoKeys(ctx context.Context, k *knob.Knob) {
	tick := time.NewTicker(2 * time.Second)
	defer tick.Stop()

	key := hid.VolUp
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			k.Press(key)
			if key == hid.VolUp {
				key = hid.VolDown
			} else {
				key = hid.VolUp
			}
		}
	}
}

// demoCentral plays the host computer: connect, pair and print every HID
// report the knob sends.
func demoCentral(ctx context.Context, e *hostsim.Engine, k *knob.Knob, log svk.Logger) {
	input, ok := k.Server().HandleOf(svk.ReportUUID)
	if !ok {
		return
	}

	for ctx.Err() == nil {
		if err := e.WaitAdvertising(ctx); err != nil {
			return
		}
		central, err := e.Connect(ctx)
		if err != nil {
			log.Errorf("sim central connect: %s", err)
			return
		}
		sub := central.Subscribe(input)
		if _, err := central.Pair(ctx, hostsim.PairOptions{MITM: true, Bond: true}); err != nil {
			log.Errorf("sim central pairing: %s", err)
			return
		}

	reports:
		for {
			select {
			case <-ctx.Done():
				central.Disconnect(nil)
				return
			case <-central.Disconnected():
				break reports
			case v := <-sub:
				log.Infof("sim central got report % x", v)
			}
		}
	}
}
