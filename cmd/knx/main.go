// Licensed under the MIT license which can be found in the LICENSE file.

// Command knx is a thin command-line front-end over the knx package: it
// discovers KNXnet/IP servers, dumps bus traffic from a tunnel or routing
// connection, and reads/writes device-management properties.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/knxbus/knx-go/knx/util"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	util.SetLogger(log.New(os.Stderr, "", log.LstdFlags))

	var err error

	switch os.Args[1] {
	case "dump":
		err = runDump(os.Args[2:])
	case "discover":
		err = runDiscover(os.Args[2:])
	case "readProperty":
		err = runReadProperty(os.Args[2:])
	case "writeProperty":
		err = runWriteProperty(os.Args[2:])
	case "-h", "-help", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "knx: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "knx: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: knx <command> [flags]

commands:
  dump           monitor bus traffic over a tunnel or routing connection
  discover       search for KNXnet/IP servers on the local network
  readProperty   read a device-management property
  writeProperty  write a device-management property

Run "knx <command> -h" for a command's flags.`)
}
