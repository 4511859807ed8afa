// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import "fmt"

// RoutingInd is a ROUTING_INDICATION: a cEMI frame multicast to every
// router/device on the routing backbone.
type RoutingInd struct {
	Payload []byte
}

// Service returns the service identifier for ROUTING_INDICATION.
func (RoutingInd) Service() ServiceID { return RoutingIndService }

// Size returns the packed size.
func (ind RoutingInd) Size() uint { return uint(len(ind.Payload)) }

// Pack assembles the ROUTING_INDICATION structure in the given buffer.
func (ind RoutingInd) Pack(buffer []byte) { copy(buffer, ind.Payload) }

// Unpack parses the ROUTING_INDICATION structure from data.
func (ind *RoutingInd) Unpack(data []byte) (n uint, err error) {
	ind.Payload = make([]byte, len(data))
	copy(ind.Payload, data)
	return uint(len(data)), nil
}

// RoutingLostMessage is a ROUTING_LOST_MESSAGE: a router's notification
// that it had to discard frames because its queue overflowed.
type RoutingLostMessage struct {
	DeviceState uint8
	LostCount   uint16
}

// Service returns the service identifier for ROUTING_LOST_MESSAGE.
func (RoutingLostMessage) Service() ServiceID { return RoutingLostService }

// Size returns the packed size.
func (RoutingLostMessage) Size() uint { return 4 }

// Pack assembles the ROUTING_LOST_MESSAGE structure in the given buffer.
func (msg RoutingLostMessage) Pack(buffer []byte) {
	buffer[0] = 0
	buffer[1] = msg.DeviceState
	buffer[2] = byte(msg.LostCount >> 8)
	buffer[3] = byte(msg.LostCount)
}

// Unpack parses the ROUTING_LOST_MESSAGE structure from data.
func (msg *RoutingLostMessage) Unpack(data []byte) (n uint, err error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("knxnet: unexpected EOF in ROUTING_LOST_MESSAGE: %d bytes", len(data))
	}

	msg.DeviceState = data[1]
	msg.LostCount = uint16(data[2])<<8 | uint16(data[3])

	return 4, nil
}

// RoutingBusy is a ROUTING_BUSY: a router's request that senders slow down.
type RoutingBusy struct {
	DeviceState  uint8
	WaitTime     uint16
	ControlField uint16
}

// Service returns the service identifier for ROUTING_BUSY.
func (RoutingBusy) Service() ServiceID { return RoutingBusyService }

// Size returns the packed size.
func (RoutingBusy) Size() uint { return 6 }

// Pack assembles the ROUTING_BUSY structure in the given buffer.
func (msg RoutingBusy) Pack(buffer []byte) {
	buffer[0] = 0
	buffer[1] = msg.DeviceState
	buffer[2] = byte(msg.WaitTime >> 8)
	buffer[3] = byte(msg.WaitTime)
	buffer[4] = byte(msg.ControlField >> 8)
	buffer[5] = byte(msg.ControlField)
}

// Unpack parses the ROUTING_BUSY structure from data.
func (msg *RoutingBusy) Unpack(data []byte) (n uint, err error) {
	if len(data) < 6 {
		return 0, fmt.Errorf("knxnet: unexpected EOF in ROUTING_BUSY: %d bytes", len(data))
	}

	msg.DeviceState = data[1]
	msg.WaitTime = uint16(data[2])<<8 | uint16(data[3])
	msg.ControlField = uint16(data[4])<<8 | uint16(data[5])

	return 6, nil
}
