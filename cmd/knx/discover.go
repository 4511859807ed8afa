// Licensed under the MIT license which can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/knxbus/knx-go/knx"
)

func runDiscover(args []string) error {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	timeout := fs.Duration("timeout", 5*time.Second, "how long to wait for SEARCH_RESPONSE datagrams")
	if err := fs.Parse(args); err != nil {
		return err
	}

	endpoints, err := knx.Discover(knx.DiscoveryConfig{SearchTimeout: *timeout})
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	if len(endpoints) == 0 {
		fmt.Println("no KNXnet/IP servers found")
		return nil
	}

	for _, ep := range endpoints {
		fmt.Printf("%s  %s  knx-addr=%s  caps=0x%02x\n", ep.Address, ep.Name, ep.KNXAddress, ep.Capabilities)
	}

	return nil
}
