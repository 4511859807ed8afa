// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import (
	"errors"
	"fmt"
)

// ConnType identifies the kind of connection a CONNECT_REQUEST asks for.
type ConnType uint8

// Connection types this library requests.
const (
	TunnelConnection    ConnType = 0x04
	DeviceMgmtConnection ConnType = 0x03
)

// TunnelLayer selects the KNX layer a tunnelling connection exposes.
type TunnelLayer uint8

// Tunnel layers.
const (
	TunnelLayerData TunnelLayer = 0x02 // Link-layer tunnel.
	TunnelLayerRaw  TunnelLayer = 0x04
	TunnelLayerBusmonitor TunnelLayer = 0x80
)

// CRI is the Connection Request Information structure carried in a
// CONNECT_REQUEST. For a tunnelling connection it also carries the
// requested layer; for a device-management connection it is just the type.
type CRI struct {
	ConnType ConnType
	Layer    TunnelLayer
}

// Size returns the packed size.
func (cri CRI) Size() uint {
	if cri.ConnType == TunnelConnection {
		return 4
	}
	return 2
}

// Pack assembles the CRI structure in the given buffer.
func (cri CRI) Pack(buffer []byte) {
	buffer[0] = uint8(cri.Size())
	buffer[1] = uint8(cri.ConnType)

	if cri.ConnType == TunnelConnection {
		buffer[2] = uint8(cri.Layer)
		buffer[3] = 0
	}
}

// Unpack parses the CRI structure from data.
func (cri *CRI) Unpack(data []byte) (n uint, err error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("knxnet: unexpected EOF in CRI: %d bytes", len(data))
	}

	length := data[0]
	cri.ConnType = ConnType(data[1])

	switch cri.ConnType {
	case TunnelConnection:
		if length != 4 || len(data) < 4 {
			return 0, errors.New("knxnet: tunnel CRI structure length is invalid")
		}
		cri.Layer = TunnelLayer(data[2])
		return 4, nil

	default:
		if length != 2 {
			return 0, errors.New("knxnet: CRI structure length is invalid")
		}
		return 2, nil
	}
}

// CRD is the Connection Response Data structure carried in a
// CONNECT_RESPONSE on success: it echoes the connection type and, for
// tunnelling connections, the individual address assigned to the tunnel.
type CRD struct {
	ConnType       ConnType
	TunnelAddress  uint16
}

// Size returns the packed size.
func (crd CRD) Size() uint {
	if crd.ConnType == TunnelConnection {
		return 4
	}
	return 2
}

// Pack assembles the CRD structure in the given buffer.
func (crd CRD) Pack(buffer []byte) {
	buffer[0] = uint8(crd.Size())
	buffer[1] = uint8(crd.ConnType)

	if crd.ConnType == TunnelConnection {
		buffer[2] = byte(crd.TunnelAddress >> 8)
		buffer[3] = byte(crd.TunnelAddress)
	}
}

// Unpack parses the CRD structure from data.
func (crd *CRD) Unpack(data []byte) (n uint, err error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("knxnet: unexpected EOF in CRD: %d bytes", len(data))
	}

	length := data[0]
	crd.ConnType = ConnType(data[1])

	switch crd.ConnType {
	case TunnelConnection:
		if length != 4 || len(data) < 4 {
			return 0, errors.New("knxnet: tunnel CRD structure length is invalid")
		}
		crd.TunnelAddress = uint16(data[2])<<8 | uint16(data[3])
		return 4, nil

	default:
		if length != 2 {
			return 0, errors.New("knxnet: CRD structure length is invalid")
		}
		return 2, nil
	}
}

// ConnReq is a CONNECT_REQUEST: a request to open a tunnelling or
// device-management connection.
type ConnReq struct {
	Control HostInfo
	Data    HostInfo
	CRI     CRI
}

// Service returns the service identifier for CONNECT_REQUEST.
func (ConnReq) Service() ServiceID { return ConnReqService }

// Size returns the packed size.
func (req ConnReq) Size() uint { return req.Control.Size() + req.Data.Size() + req.CRI.Size() }

// Pack assembles the CONNECT_REQUEST structure in the given buffer.
func (req ConnReq) Pack(buffer []byte) {
	offset := uint(0)
	req.Control.Pack(buffer[offset:])
	offset += req.Control.Size()
	req.Data.Pack(buffer[offset:])
	offset += req.Data.Size()
	req.CRI.Pack(buffer[offset:])
}

// Unpack parses the CONNECT_REQUEST structure from data.
func (req *ConnReq) Unpack(data []byte) (n uint, err error) {
	nn, err := req.Control.Unpack(data)
	if err != nil {
		return 0, err
	}
	n += nn

	nn, err = req.Data.Unpack(data[n:])
	if err != nil {
		return 0, err
	}
	n += nn

	nn, err = req.CRI.Unpack(data[n:])
	if err != nil {
		return 0, err
	}
	n += nn

	return n, nil
}

// ConnRes status codes.
const (
	ConnResOk              uint8 = 0x00
	ConnResUnsupportedType uint8 = 0x22
	ConnResUnsupportedOpt  uint8 = 0x23
	ConnResNoMoreConns     uint8 = 0x24
)

// ConnRes is a CONNECT_RESPONSE.
type ConnRes struct {
	Channel uint8
	Status  uint8
	Control HostInfo
	CRD     CRD
}

// Service returns the service identifier for CONNECT_RESPONSE.
func (ConnRes) Service() ServiceID { return ConnResService }

// Size returns the packed size.
func (res ConnRes) Size() uint {
	if res.Status != ConnResOk {
		return 2
	}
	return 2 + res.Control.Size() + res.CRD.Size()
}

// Pack assembles the CONNECT_RESPONSE structure in the given buffer.
func (res ConnRes) Pack(buffer []byte) {
	buffer[0] = res.Channel
	buffer[1] = res.Status

	if res.Status != ConnResOk {
		return
	}

	offset := uint(2)
	res.Control.Pack(buffer[offset:])
	offset += res.Control.Size()
	res.CRD.Pack(buffer[offset:])
}

// Unpack parses the CONNECT_RESPONSE structure from data.
func (res *ConnRes) Unpack(data []byte) (n uint, err error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("knxnet: unexpected EOF in CONNECT_RESPONSE: %d bytes", len(data))
	}

	res.Channel = data[0]
	res.Status = data[1]
	n = 2

	if res.Status != ConnResOk {
		return n, nil
	}

	nn, err := res.Control.Unpack(data[n:])
	if err != nil {
		return n, err
	}
	n += nn

	nn, err = res.CRD.Unpack(data[n:])
	if err != nil {
		return n, err
	}
	n += nn

	return n, nil
}
