// Licensed under the MIT license which can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"strings"

	"github.com/knxbus/knx-go/knx"
)

func runReadProperty(args []string) error {
	fs := flag.NewFlagSet("readProperty", flag.ExitOnError)
	gateway := fs.String("gateway", "", "KNXnet/IP server address, \"host:port\"")
	object := fs.Uint("object", 0, "interface object type")
	instance := fs.Uint("instance", 1, "object instance")
	property := fs.Uint("property", 0, "property ID")
	count := fs.Uint("count", 1, "number of elements to read")
	start := fs.Uint("start", 1, "start index")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *gateway == "" {
		return fmt.Errorf("-gateway is required")
	}

	mgmt, err := knx.NewDeviceManagement(*gateway, knx.ManagementConfig{})
	if err != nil {
		return fmt.Errorf("opening device-management connection: %w", err)
	}
	defer mgmt.Close()

	data, err := mgmt.ReadProperty(uint16(*object), uint8(*instance), uint8(*property), uint8(*count), uint16(*start))
	if err != nil {
		return err
	}

	fmt.Println(hex.EncodeToString(data))
	return nil
}

func runWriteProperty(args []string) error {
	fs := flag.NewFlagSet("writeProperty", flag.ExitOnError)
	gateway := fs.String("gateway", "", "KNXnet/IP server address, \"host:port\"")
	object := fs.Uint("object", 0, "interface object type")
	instance := fs.Uint("instance", 1, "object instance")
	property := fs.Uint("property", 0, "property ID")
	count := fs.Uint("count", 1, "number of elements to write")
	start := fs.Uint("start", 1, "start index")
	value := fs.String("data", "", "hex-encoded data to write, e.g. \"01ff\"")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *gateway == "" {
		return fmt.Errorf("-gateway is required")
	}

	data, err := hex.DecodeString(strings.TrimPrefix(*value, "0x"))
	if err != nil {
		return fmt.Errorf("parsing -data: %w", err)
	}

	mgmt, err := knx.NewDeviceManagement(*gateway, knx.ManagementConfig{})
	if err != nil {
		return fmt.Errorf("opening device-management connection: %w", err)
	}
	defer mgmt.Close()

	if err := mgmt.WriteProperty(uint16(*object), uint8(*instance), uint8(*property), uint8(*count), uint16(*start), data); err != nil {
		return err
	}

	fmt.Println("ok")
	return nil
}
