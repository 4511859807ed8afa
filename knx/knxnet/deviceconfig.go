// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

// DeviceConfigReq is a DEVICE_CONFIGURATION_REQUEST: a cEMI property frame
// carried over an open management connection. Wire shape is identical to
// TunnelReq; kept as a distinct type so callers can't mix up the two
// services by mistake.
type DeviceConfigReq struct {
	ConnHeader
	Payload []byte
}

// Service returns the service identifier for DEVICE_CONFIGURATION_REQUEST.
func (DeviceConfigReq) Service() ServiceID { return DeviceConfigReqService }

// Size returns the packed size.
func (req DeviceConfigReq) Size() uint { return req.ConnHeader.Size() + uint(len(req.Payload)) }

// Pack assembles the DEVICE_CONFIGURATION_REQUEST structure in the given buffer.
func (req DeviceConfigReq) Pack(buffer []byte) {
	req.ConnHeader.Pack(buffer)
	copy(buffer[req.ConnHeader.Size():], req.Payload)
}

// Unpack parses the DEVICE_CONFIGURATION_REQUEST structure from data.
func (req *DeviceConfigReq) Unpack(data []byte) (n uint, err error) {
	n, err = req.ConnHeader.Unpack(data)
	if err != nil {
		return 0, err
	}

	req.Payload = make([]byte, len(data)-int(n))
	copy(req.Payload, data[n:])

	return uint(len(data)), nil
}

// DeviceConfigRes is a DEVICE_CONFIGURATION_ACK.
type DeviceConfigRes struct {
	ConnHeader
	Status uint8
}

// Service returns the service identifier for DEVICE_CONFIGURATION_ACK.
func (DeviceConfigRes) Service() ServiceID { return DeviceConfigResService }

// Size returns the packed size.
func (res DeviceConfigRes) Size() uint { return res.ConnHeader.Size() }

// Pack assembles the DEVICE_CONFIGURATION_ACK structure in the given buffer.
func (res DeviceConfigRes) Pack(buffer []byte) {
	res.ConnHeader.Pack(buffer)
	buffer[3] = res.Status
}

// Unpack parses the DEVICE_CONFIGURATION_ACK structure from data.
func (res *DeviceConfigRes) Unpack(data []byte) (n uint, err error) {
	n, err = res.ConnHeader.Unpack(data)
	if err != nil {
		return 0, err
	}

	res.Status = data[3]

	return n, nil
}
