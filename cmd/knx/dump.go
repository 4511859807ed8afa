// Licensed under the MIT license which can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/knxbus/knx-go/knx"
	"github.com/knxbus/knx-go/knx/cemi"
	"github.com/knxbus/knx-go/knx/knxnet"
)

// inbounder is implemented by both Tunnel and Router.
type inbounder interface {
	Inbound() <-chan cemi.Message
	Close() error
}

func runDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	router := fs.Bool("router", false, "dump multicast routing traffic instead of opening a tunnel")
	gateway := fs.String("gateway", "", "KNXnet/IP server address, \"host:port\" (required unless -router)")
	multicast := fs.String("multicast", fmt.Sprintf("%s:%d", knxnet.MulticastAddress, knxnet.DefaultPort), "multicast group for -router")
	busmonitor := fs.Bool("busmonitor", false, "open the tunnel in busmonitor layer instead of link-layer data")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var conn inbounder

	if *router {
		r, err := knx.NewRouter(*multicast, knx.RouterConfig{})
		if err != nil {
			return fmt.Errorf("opening router: %w", err)
		}
		conn = r
	} else {
		if *gateway == "" {
			return fmt.Errorf("-gateway is required unless -router is given")
		}

		layer := knxnet.TunnelLayerData
		if *busmonitor {
			layer = knxnet.TunnelLayerBusmonitor
		}

		t, err := knx.NewTunnel(*gateway, layer, knx.TunnelConfig{})
		if err != nil {
			return fmt.Errorf("opening tunnel: %w", err)
		}
		conn = t
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case msg, open := <-conn.Inbound():
			if !open {
				return nil
			}

			printFrame(msg)
		}
	}
}

func printFrame(msg cemi.Message) {
	if s, ok := msg.(fmt.Stringer); ok {
		fmt.Println(s.String())
		return
	}

	fmt.Printf("%T: %v\n", msg, msg)
}
