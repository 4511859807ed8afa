// Licensed under the MIT license which can be found in the LICENSE file.

package knx

import (
	"net"
	"time"

	"github.com/knxbus/knx-go/knx/cemi"
	"github.com/knxbus/knx-go/knx/knxnet"
)

// Capability flags derived from a device's supported service families.
const (
	CapCore uint32 = 1 << iota
	CapDeviceManagement
	CapTunnelling
	CapRouting
	CapRemoteLogging
	CapRemoteConfig
	CapObjectServer
)

// Endpoint describes one KNXnet/IP server found by Discover.
type Endpoint struct {
	Name                  string
	Address               string
	Capabilities          uint32
	DeviceState           uint8
	KNXAddress            cemi.IndividualAddr
	MACAddress            net.HardwareAddr
	SerialNumber          knxnet.DeviceSerialNumber
	ProjectInstallationID knxnet.ProjectInstallationIdentifier
}

func capabilitiesFromFamilies(families []knxnet.ServiceFamily) uint32 {
	var caps uint32

	for _, f := range families {
		switch f.Type {
		case knxnet.ServiceFamilyTypeIPCore:
			caps |= CapCore
		case knxnet.ServiceFamilyTypeIPDeviceManagement:
			caps |= CapDeviceManagement
		case knxnet.ServiceFamilyTypeIPTunnelling:
			caps |= CapTunnelling
		case knxnet.ServiceFamilyTypeIPRouting:
			caps |= CapRouting
		case knxnet.ServiceFamilyTypeIPRemoteLogging:
			caps |= CapRemoteLogging
		case knxnet.ServiceFamilyTypeIPRemoteConfigurationAndDiagnosis:
			caps |= CapRemoteConfig
		case knxnet.ServiceFamilyTypeIPObjectServer:
			caps |= CapObjectServer
		}
	}

	return caps
}

func endpointFromDescription(control knxnet.HostInfo, desc knxnet.DescriptionBlock) Endpoint {
	hw := desc.DeviceHardware

	return Endpoint{
		Name:                  hw.FriendlyName,
		Address:               control.String(),
		Capabilities:          capabilitiesFromFamilies(desc.SupportedServices.Families),
		DeviceState:           uint8(hw.Status),
		KNXAddress:            hw.Source,
		MACAddress:            hw.HardwareAddr,
		SerialNumber:          hw.SerialNumber,
		ProjectInstallationID: hw.ProjectIdentifier,
	}
}

// Discover sends a SEARCH_REQUEST to the discovery multicast group and
// collects SEARCH_RESPONSE datagrams for config.SearchTimeout, deduplicated
// by the responder's control endpoint.
func Discover(config DiscoveryConfig) ([]Endpoint, error) {
	config = config.checkDefaults()

	sock, err := knxnet.Listen(":0")
	if err != nil {
		return nil, err
	}
	defer sock.Close()

	req, err := knxnet.NewSearchReq(sock.LocalAddr())
	if err != nil {
		return nil, err
	}

	if err := sock.Send(req); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var endpoints []Endpoint

	timeout := time.After(config.SearchTimeout)

	for {
		select {
		case <-timeout:
			return endpoints, nil

		case srv, open := <-sock.Inbound():
			if !open {
				return endpoints, nil
			}

			res, ok := srv.(*knxnet.SearchRes)
			if !ok {
				continue
			}

			key := res.Control.String()
			if seen[key] {
				continue
			}
			seen[key] = true

			endpoints = append(endpoints, endpointFromDescription(res.Control, res.DescriptionB))
		}
	}
}

// DiscoverExt sends a SEARCH_REQUEST_EXT carrying the given SRP blocks and
// collects SEARCH_RESPONSE_EXT datagrams for config.SearchTimeout,
// deduplicated by the responder's control endpoint.
func DiscoverExt(config DiscoveryConfig, params ...knxnet.SRPBlock) ([]knxnet.SearchResExt, error) {
	config = config.checkDefaults()

	sock, err := knxnet.Listen(":0")
	if err != nil {
		return nil, err
	}
	defer sock.Close()

	req, err := knxnet.NewSearchReqExt(sock.LocalAddr(), params...)
	if err != nil {
		return nil, err
	}

	if err := sock.Send(req); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var results []knxnet.SearchResExt

	timeout := time.After(config.SearchTimeout)

	for {
		select {
		case <-timeout:
			return results, nil

		case srv, open := <-sock.Inbound():
			if !open {
				return results, nil
			}

			res, ok := srv.(*knxnet.SearchResExt)
			if !ok {
				continue
			}

			key := res.Control.String()
			if seen[key] {
				continue
			}
			seen[key] = true

			results = append(results, *res)
		}
	}
}
