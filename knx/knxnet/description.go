// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import "net"

// NewDescriptionReq creates a new DescriptionReq, addr defines where the
// KNXnet/IP server should send the response to.
func NewDescriptionReq(addr net.Addr) (*DescriptionReq, error) {
	hostinfo, err := HostInfoFromAddress(addr)
	if err != nil {
		return nil, err
	}

	return &DescriptionReq{Control: hostinfo}, nil
}

// DescriptionReq is a DESCRIPTION_REQUEST, sent unicast to a single
// KNXnet/IP server to ask it to describe itself.
type DescriptionReq struct {
	Control HostInfo
}

// Service returns the service identifier for DESCRIPTION_REQUEST.
func (DescriptionReq) Service() ServiceID { return DescriptionReqService }

// Size returns the packed size.
func (req DescriptionReq) Size() uint { return req.Control.Size() }

// Pack assembles the DESCRIPTION_REQUEST structure in the given buffer.
func (req DescriptionReq) Pack(buffer []byte) { req.Control.Pack(buffer) }

// Unpack parses the DESCRIPTION_REQUEST structure from data.
func (req *DescriptionReq) Unpack(data []byte) (n uint, err error) {
	return req.Control.Unpack(data)
}

// DescriptionRes is a DESCRIPTION_RESPONSE: the answer to a
// DESCRIPTION_REQUEST, carrying the same description block a
// SEARCH_RESPONSE would.
type DescriptionRes struct {
	DescriptionB DescriptionBlock
}

// Service returns the service identifier for DESCRIPTION_RESPONSE.
func (DescriptionRes) Service() ServiceID { return DescriptionResService }

// Size returns the packed size.
func (res DescriptionRes) Size() uint {
	return res.DescriptionB.DeviceHardware.Size() + res.DescriptionB.SupportedServices.Size()
}

// Pack assembles the DESCRIPTION_RESPONSE structure in the given buffer.
func (res *DescriptionRes) Pack(buffer []byte) {
	offset := res.DescriptionB.DeviceHardware.Size()
	res.DescriptionB.DeviceHardware.Pack(buffer[:offset])
	res.DescriptionB.SupportedServices.Pack(buffer[offset:])
}

// Unpack parses the DESCRIPTION_RESPONSE structure from data.
func (res *DescriptionRes) Unpack(data []byte) (n uint, err error) {
	return res.DescriptionB.Unpack(data)
}
