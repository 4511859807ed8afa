// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import "fmt"

// ConnState status codes.
const (
	ConnStateNormal       uint8 = 0x00
	ConnStateInactive     uint8 = 0x21
	ConnStateDataConnErr  uint8 = 0x26
	ConnStateKnxConnErr   uint8 = 0x27
)

// ConnStateReq is a CONNECTIONSTATE_REQUEST, sent periodically by the
// client as a heartbeat, or by a server to probe the client.
type ConnStateReq struct {
	Channel uint8
	Control HostInfo
}

// Service returns the service identifier for CONNECTIONSTATE_REQUEST.
func (ConnStateReq) Service() ServiceID { return ConnStateReqService }

// Size returns the packed size.
func (req ConnStateReq) Size() uint { return 2 + req.Control.Size() }

// Pack assembles the CONNECTIONSTATE_REQUEST structure in the given buffer.
func (req ConnStateReq) Pack(buffer []byte) {
	buffer[0] = req.Channel
	buffer[1] = 0
	req.Control.Pack(buffer[2:])
}

// Unpack parses the CONNECTIONSTATE_REQUEST structure from data.
func (req *ConnStateReq) Unpack(data []byte) (n uint, err error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("knxnet: unexpected EOF in CONNECTIONSTATE_REQUEST: %d bytes", len(data))
	}

	req.Channel = data[0]
	n = 2

	nn, err := req.Control.Unpack(data[n:])
	if err != nil {
		return n, err
	}
	n += nn

	return n, nil
}

// ConnStateRes is a CONNECTIONSTATE_RESPONSE.
type ConnStateRes struct {
	Channel uint8
	Status  uint8
}

// Service returns the service identifier for CONNECTIONSTATE_RESPONSE.
func (ConnStateRes) Service() ServiceID { return ConnStateResService }

// Size returns the packed size.
func (ConnStateRes) Size() uint { return 2 }

// Pack assembles the CONNECTIONSTATE_RESPONSE structure in the given buffer.
func (res ConnStateRes) Pack(buffer []byte) {
	buffer[0] = res.Channel
	buffer[1] = res.Status
}

// Unpack parses the CONNECTIONSTATE_RESPONSE structure from data.
func (res *ConnStateRes) Unpack(data []byte) (n uint, err error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("knxnet: unexpected EOF in CONNECTIONSTATE_RESPONSE: %d bytes", len(data))
	}

	res.Channel = data[0]
	res.Status = data[1]

	return 2, nil
}
