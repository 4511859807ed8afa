// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import "fmt"

// DiscReq is a DISCONNECT_REQUEST.
type DiscReq struct {
	Channel uint8
	Control HostInfo
}

// Service returns the service identifier for DISCONNECT_REQUEST.
func (DiscReq) Service() ServiceID { return DiscReqService }

// Size returns the packed size.
func (req DiscReq) Size() uint { return 2 + req.Control.Size() }

// Pack assembles the DISCONNECT_REQUEST structure in the given buffer.
func (req DiscReq) Pack(buffer []byte) {
	buffer[0] = req.Channel
	buffer[1] = 0
	req.Control.Pack(buffer[2:])
}

// Unpack parses the DISCONNECT_REQUEST structure from data.
func (req *DiscReq) Unpack(data []byte) (n uint, err error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("knxnet: unexpected EOF in DISCONNECT_REQUEST: %d bytes", len(data))
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

// DiscRes is a DISCONNECT_RESPONSE.
type DiscRes struct {
	Channel uint8
	Status  uint8
}

// Service returns the service identifier for DISCONNECT_RESPONSE.
func (DiscRes) Service() ServiceID { return DiscResService }

// Size returns the packed size.
func (DiscRes) Size() uint { return 2 }

// Pack assembles the DISCONNECT_RESPONSE structure in the given buffer.
func (res DiscRes) Pack(buffer []byte) {
	buffer[0] = res.Channel
	buffer[1] = res.Status
}

// Unpack parses the DISCONNECT_RESPONSE structure from data.
func (res *DiscRes) Unpack(data []byte) (n uint, err error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("knxnet: unexpected EOF in DISCONNECT_RESPONSE: %d bytes", len(data))
	}

	res.Channel = data[0]
	res.Status = data[1]

	return 2, nil
}
