// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import "fmt"

// TunnelRes / DeviceConfigRes status codes.
const (
	ErrCodeNoError        uint8 = 0x00
	ErrCodeConnectionID   uint8 = 0x21
	ErrCodeSeqNumber      uint8 = 0x04
	ErrCodeDataConnection  uint8 = 0x26
)

// ConnHeader is the connection header shared by TUNNELLING_REQUEST/ACK and
// DEVICE_CONFIGURATION_REQUEST/ACK: a 4-byte structure identifying the
// connection and the request's sequence number.
type ConnHeader struct {
	Channel   uint8
	SeqNumber uint8
}

// Size returns the packed size.
func (ConnHeader) Size() uint { return 4 }

// Pack assembles the connection header in the given buffer.
func (h ConnHeader) Pack(buffer []byte) {
	buffer[0] = 4
	buffer[1] = h.Channel
	buffer[2] = h.SeqNumber
	buffer[3] = 0
}

// Unpack parses the connection header from data.
func (h *ConnHeader) Unpack(data []byte) (n uint, err error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("knxnet: unexpected EOF in connection header: %d bytes", len(data))
	}

	if data[0] != 4 {
		return 0, fmt.Errorf("knxnet: connection header length is invalid: %d", data[0])
	}

	h.Channel = data[1]
	h.SeqNumber = data[2]

	return 4, nil
}

// TunnelReq is a TUNNELLING_REQUEST: a cEMI frame carried over an open
// tunnelling connection.
type TunnelReq struct {
	ConnHeader
	Payload []byte
}

// Service returns the service identifier for TUNNELLING_REQUEST.
func (TunnelReq) Service() ServiceID { return TunnelReqService }

// Size returns the packed size.
func (req TunnelReq) Size() uint { return req.ConnHeader.Size() + uint(len(req.Payload)) }

// Pack assembles the TUNNELLING_REQUEST structure in the given buffer.
func (req TunnelReq) Pack(buffer []byte) {
	req.ConnHeader.Pack(buffer)
	copy(buffer[req.ConnHeader.Size():], req.Payload)
}

// Unpack parses the TUNNELLING_REQUEST structure from data.
func (req *TunnelReq) Unpack(data []byte) (n uint, err error) {
	n, err = req.ConnHeader.Unpack(data)
	if err != nil {
		return 0, err
	}

	req.Payload = make([]byte, len(data)-int(n))
	copy(req.Payload, data[n:])

	return uint(len(data)), nil
}

// TunnelRes is a TUNNELLING_ACK: the acknowledgement of a single
// TUNNELLING_REQUEST, matched by connection id and sequence number.
type TunnelRes struct {
	ConnHeader
	Status uint8
}

// Service returns the service identifier for TUNNELLING_ACK.
func (TunnelRes) Service() ServiceID { return TunnelResService }

// Size returns the packed size.
func (res TunnelRes) Size() uint { return res.ConnHeader.Size() }

// Pack assembles the TUNNELLING_ACK structure in the given buffer.
// The status byte is folded into the fourth (reserved) octet of the
// connection header, matching the wire layout of a real TUNNELLING_ACK.
func (res TunnelRes) Pack(buffer []byte) {
	res.ConnHeader.Pack(buffer)
	buffer[3] = res.Status
}

// Unpack parses the TUNNELLING_ACK structure from data.
func (res *TunnelRes) Unpack(data []byte) (n uint, err error) {
	n, err = res.ConnHeader.Unpack(data)
	if err != nil {
		return 0, err
	}

	res.Status = data[3]

	return n, nil
}
