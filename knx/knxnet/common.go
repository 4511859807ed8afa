// Licensed under the MIT license which can be found in the LICENSE file.

// Package knxnet implements the KNXnet/IP wire layer: the 6-byte envelope
// shared by every UDP service, and the services themselves (search,
// connect, connectionstate, disconnect, tunnelling, device configuration,
// routing, description).
package knxnet

import (
	"errors"
	"fmt"
	"net"

	"github.com/knxbus/knx-go/knx/util"
)

// Protocol version carried in every envelope header.
const protocolVersion = 0x10

// ServiceID identifies a KNXnet/IP service; it is the big-endian u16
// immediately following the envelope header size and version.
type ServiceID uint16

// Service identifiers for the services this library implements.
const (
	SearchReqService    ServiceID = 0x0201
	SearchResService    ServiceID = 0x0202
	SearchReqExtService ServiceID = 0x020b
	SearchResExtService ServiceID = 0x020c

	DescriptionReqService ServiceID = 0x0203
	DescriptionResService ServiceID = 0x0204

	ConnReqService ServiceID = 0x0205
	ConnResService ServiceID = 0x0206

	ConnStateReqService ServiceID = 0x0207
	ConnStateResService ServiceID = 0x0208

	DiscReqService ServiceID = 0x0209
	DiscResService ServiceID = 0x020a

	DeviceConfigReqService ServiceID = 0x0310
	DeviceConfigResService ServiceID = 0x0311

	TunnelReqService ServiceID = 0x0420
	TunnelResService ServiceID = 0x0421

	RoutingIndService  ServiceID = 0x0530
	RoutingLostService ServiceID = 0x0531
	RoutingBusyService ServiceID = 0x0532
)

// String returns a human-readable name for the service identifier.
func (srv ServiceID) String() string {
	switch srv {
	case SearchReqService:
		return "SEARCH_REQUEST"
	case SearchResService:
		return "SEARCH_RESPONSE"
	case SearchReqExtService:
		return "SEARCH_REQUEST_EXT"
	case SearchResExtService:
		return "SEARCH_RESPONSE_EXT"
	case DescriptionReqService:
		return "DESCRIPTION_REQUEST"
	case DescriptionResService:
		return "DESCRIPTION_RESPONSE"
	case ConnReqService:
		return "CONNECT_REQUEST"
	case ConnResService:
		return "CONNECT_RESPONSE"
	case ConnStateReqService:
		return "CONNECTIONSTATE_REQUEST"
	case ConnStateResService:
		return "CONNECTIONSTATE_RESPONSE"
	case DiscReqService:
		return "DISCONNECT_REQUEST"
	case DiscResService:
		return "DISCONNECT_RESPONSE"
	case DeviceConfigReqService:
		return "DEVICE_CONFIGURATION_REQUEST"
	case DeviceConfigResService:
		return "DEVICE_CONFIGURATION_ACK"
	case TunnelReqService:
		return "TUNNELLING_REQUEST"
	case TunnelResService:
		return "TUNNELLING_ACK"
	case RoutingIndService:
		return "ROUTING_INDICATION"
	case RoutingLostService:
		return "ROUTING_LOST_MESSAGE"
	case RoutingBusyService:
		return "ROUTING_BUSY"
	default:
		return fmt.Sprintf("ServiceID(0x%04x)", uint16(srv))
	}
}

// Service is a KNXnet/IP service payload: anything that can be wrapped in
// an envelope and knows its own service identifier.
type Service interface {
	util.Packable

	// Service returns the identifier of the service this payload belongs to.
	Service() ServiceID
}

// Header errors.
var (
	ErrHeaderSizeMismatch = errors.New("knxnet: header size field does not match framing byte 0x06")
	ErrHeaderBadVersion   = errors.New("knxnet: unsupported protocol version")
	ErrHeaderLengthShort  = errors.New("knxnet: buffer shorter than the header's declared total length")
)

// Header is the fixed 6-byte envelope shared by every KNXnet/IP service.
type Header struct {
	Service     ServiceID
	TotalLength uint16
}

// Size returns the packed size of the header.
func (Header) Size() uint { return 6 }

// Pack assembles the header in the given buffer.
func (h Header) Pack(buffer []byte) {
	buffer[0] = 6
	buffer[1] = protocolVersion
	buffer[2] = byte(h.Service >> 8)
	buffer[3] = byte(h.Service)
	buffer[4] = byte(h.TotalLength >> 8)
	buffer[5] = byte(h.TotalLength)
}

// Unpack parses the header from data.
func (h *Header) Unpack(data []byte) (n uint, err error) {
	if len(data) < 6 {
		return 0, fmt.Errorf("knxnet: unexpected EOF in header: %d bytes", len(data))
	}

	if data[0] != 6 {
		return 0, ErrHeaderSizeMismatch
	}

	if data[1] != protocolVersion {
		return 0, ErrHeaderBadVersion
	}

	h.Service = ServiceID(uint16(data[2])<<8 | uint16(data[3]))
	h.TotalLength = uint16(data[4])<<8 | uint16(data[5])

	if uint(len(data)) < uint(h.TotalLength) {
		return 0, ErrHeaderLengthShort
	}

	return 6, nil
}

// Pack wraps a service payload in its envelope and returns the complete
// datagram.
func Pack(srv Service) []byte {
	buffer := make([]byte, 6+srv.Size())

	h := Header{Service: srv.Service(), TotalLength: uint16(len(buffer))}
	h.Pack(buffer)
	srv.Pack(buffer[6:])

	return buffer
}

// Unpack parses the envelope header from data and returns the remaining
// payload bytes (of length h.TotalLength - 6).
func Unpack(data []byte) (h Header, payload []byte, err error) {
	n, err := h.Unpack(data)
	if err != nil {
		return Header{}, nil, err
	}

	return h, data[n:h.TotalLength], nil
}

// Address is a raw IPv4 address as carried in an HPAI structure.
type Address [4]byte

// String formats the address in dotted-decimal notation.
func (addr Address) String() string {
	return net.IP(addr[:]).String()
}

// HostProtocol identifies the transport protocol carried in an HPAI.
type HostProtocol uint8

// The only host protocol this library speaks.
const (
	UDP4 HostProtocol = 0x01
)

// HostInfo is the Host Protocol Address Information (HPAI) structure: an
// 8-byte {protocol, ipv4, port} triple appearing in CONNECT, CONNECTIONSTATE,
// DISCONNECT and SEARCH frames.
type HostInfo struct {
	Protocol HostProtocol
	Address  Address
	Port     uint16
}

// Size returns the packed size.
func (HostInfo) Size() uint { return 8 }

// Pack assembles the HPAI structure in the given buffer.
func (hi HostInfo) Pack(buffer []byte) {
	util.PackSome(
		buffer,
		uint8(8), uint8(hi.Protocol),
		hi.Address[:],
		hi.Port,
	)
}

// Unpack parses the given data in order to initialize the HPAI structure.
func (hi *HostInfo) Unpack(data []byte) (n uint, err error) {
	var length uint8

	if n, err = util.UnpackSome(
		data,
		&length, (*uint8)(&hi.Protocol),
		hi.Address[:],
		&hi.Port,
	); err != nil {
		return
	}

	if length != 8 {
		return n, errors.New("knxnet: HPAI structure length is invalid")
	}

	return
}

// IsZero reports whether the HPAI is the "unspecified" placeholder
// 0.0.0.0:0, which means "use the address the datagram actually arrived
// from."
func (hi HostInfo) IsZero() bool {
	return hi.Address == Address{} && hi.Port == 0
}

// String formats the HPAI as "ip:port".
func (hi HostInfo) String() string {
	return fmt.Sprintf("%s:%d", hi.Address, hi.Port)
}

// HostInfoFromAddress derives an HPAI from a net.Addr, which must be a
// *net.UDPAddr with an IPv4 address.
func HostInfoFromAddress(addr net.Addr) (HostInfo, error) {
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return HostInfo{}, fmt.Errorf("knxnet: %v is not a UDP address", addr)
	}

	ip4 := udpAddr.IP.To4()
	if ip4 == nil {
		return HostInfo{}, fmt.Errorf("knxnet: %v is not an IPv4 address", udpAddr.IP)
	}

	var hi HostInfo
	hi.Protocol = UDP4
	copy(hi.Address[:], ip4)
	hi.Port = uint16(udpAddr.Port)

	return hi, nil
}
