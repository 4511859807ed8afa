package cemi

import "fmt"

// propertyHeader is the six-byte addressing block shared by every M_PropRead
// and M_PropWrite frame: the interface object type, the object instance,
// the property ID and a packed element-count/start-index field.
type propertyHeader struct {
	InterfaceObject uint16
	ObjectInstance  uint8
	PropertyID      uint8
	NumElements     uint8  // 4 bits; 0 signals "no data" (e.g. a failed read).
	StartIndex      uint16 // 12 bits; conventionally 1-based.
}

const propertyHeaderSize = 6

func (h *propertyHeader) pack(buffer []byte) {
	buffer[0] = byte(h.InterfaceObject >> 8)
	buffer[1] = byte(h.InterfaceObject)
	buffer[2] = h.ObjectInstance
	buffer[3] = h.PropertyID
	buffer[4] = h.NumElements<<4 | byte(h.StartIndex>>8)&0x0F
	buffer[5] = byte(h.StartIndex)
}

func (h *propertyHeader) unpack(data []byte) error {
	if len(data) < propertyHeaderSize {
		return fmt.Errorf("cemi: unexpected EOF in property header")
	}

	h.InterfaceObject = uint16(data[0])<<8 | uint16(data[1])
	h.ObjectInstance = data[2]
	h.PropertyID = data[3]
	h.NumElements = data[4] >> 4
	h.StartIndex = uint16(data[4]&0x0F)<<8 | uint16(data[5])

	return nil
}

func packPropertyMessage(code MessageCode, h propertyHeader, data []byte, buffer []byte) {
	buffer[0] = byte(code)
	h.pack(buffer[1:])
	copy(buffer[1+propertyHeaderSize:], data)
}

func unpackPropertyMessage(h *propertyHeader, data *[]byte, raw []byte) (n uint, err error) {
	if len(raw) < 1+propertyHeaderSize {
		return 0, fmt.Errorf("cemi: frame too short: %d bytes", len(raw))
	}

	if err := h.unpack(raw[1:]); err != nil {
		return 0, err
	}

	payload := raw[1+propertyHeaderSize:]
	*data = make([]byte, len(payload))
	copy(*data, payload)

	return uint(len(raw)), nil
}

// PropReadReq is an M_PropRead.req message: a request to read one or more
// elements of a management-server property.
type PropReadReq struct {
	propertyHeader
}

// MessageCode returns MPropReadReqCode.
func (*PropReadReq) MessageCode() MessageCode { return MPropReadReqCode }

// Size returns the packed size.
func (msg *PropReadReq) Size() uint { return 1 + propertyHeaderSize }

// Pack assembles the message in the given buffer.
func (msg *PropReadReq) Pack(buffer []byte) {
	packPropertyMessage(MPropReadReqCode, msg.propertyHeader, nil, buffer)
}

// Unpack parses the message from data.
func (msg *PropReadReq) Unpack(data []byte) (uint, error) {
	if len(data) < 1+propertyHeaderSize {
		return 0, fmt.Errorf("cemi: frame too short: %d bytes", len(data))
	}
	if err := msg.propertyHeader.unpack(data[1:]); err != nil {
		return 0, err
	}
	return 1 + propertyHeaderSize, nil
}

// String renders a stable single-line summary of the frame.
func (msg *PropReadReq) String() string {
	return fmt.Sprintf("M_PropRead.req obj=0x%04x/%d prop=%d n=%d start=%d",
		msg.InterfaceObject, msg.ObjectInstance, msg.PropertyID, msg.NumElements, msg.StartIndex)
}

// PropReadCon is an M_PropRead.con message: the answer to a property read,
// carrying the property's value when NumElements is nonzero and nothing
// when the read failed.
type PropReadCon struct {
	propertyHeader
	Data []byte
}

// MessageCode returns MPropReadConCode.
func (*PropReadCon) MessageCode() MessageCode { return MPropReadConCode }

// Size returns the packed size.
func (msg *PropReadCon) Size() uint { return 1 + propertyHeaderSize + uint(len(msg.Data)) }

// Pack assembles the message in the given buffer.
func (msg *PropReadCon) Pack(buffer []byte) {
	packPropertyMessage(MPropReadConCode, msg.propertyHeader, msg.Data, buffer)
}

// Unpack parses the message from data.
func (msg *PropReadCon) Unpack(data []byte) (uint, error) {
	return unpackPropertyMessage(&msg.propertyHeader, &msg.Data, data)
}

// Failed reports whether the read was rejected (no elements returned).
func (msg *PropReadCon) Failed() bool { return msg.NumElements == 0 }

// String renders a stable single-line summary of the frame.
func (msg *PropReadCon) String() string {
	return fmt.Sprintf("M_PropRead.con obj=0x%04x/%d prop=%d n=%d start=%d data=% x",
		msg.InterfaceObject, msg.ObjectInstance, msg.PropertyID, msg.NumElements, msg.StartIndex, msg.Data)
}

// PropWriteReq is an M_PropWrite.req message: a request to write one or
// more elements of a management-server property.
type PropWriteReq struct {
	propertyHeader
	Data []byte
}

// MessageCode returns MPropWriteReqCode.
func (*PropWriteReq) MessageCode() MessageCode { return MPropWriteReqCode }

// Size returns the packed size.
func (msg *PropWriteReq) Size() uint { return 1 + propertyHeaderSize + uint(len(msg.Data)) }

// Pack assembles the message in the given buffer.
func (msg *PropWriteReq) Pack(buffer []byte) {
	packPropertyMessage(MPropWriteReqCode, msg.propertyHeader, msg.Data, buffer)
}

// Unpack parses the message from data.
func (msg *PropWriteReq) Unpack(data []byte) (uint, error) {
	return unpackPropertyMessage(&msg.propertyHeader, &msg.Data, data)
}

// String renders a stable single-line summary of the frame.
func (msg *PropWriteReq) String() string {
	return fmt.Sprintf("M_PropWrite.req obj=0x%04x/%d prop=%d n=%d start=%d data=% x",
		msg.InterfaceObject, msg.ObjectInstance, msg.PropertyID, msg.NumElements, msg.StartIndex, msg.Data)
}

// PropWriteCon is an M_PropWrite.con message: the answer to a property
// write. NumElements echoes the request's count on success, or 0 if the
// write was rejected.
type PropWriteCon struct {
	propertyHeader
}

// MessageCode returns MPropWriteConCode.
func (*PropWriteCon) MessageCode() MessageCode { return MPropWriteConCode }

// Size returns the packed size.
func (msg *PropWriteCon) Size() uint { return 1 + propertyHeaderSize }

// Pack assembles the message in the given buffer.
func (msg *PropWriteCon) Pack(buffer []byte) {
	packPropertyMessage(MPropWriteConCode, msg.propertyHeader, nil, buffer)
}

// Unpack parses the message from data.
func (msg *PropWriteCon) Unpack(data []byte) (uint, error) {
	if len(data) < 1+propertyHeaderSize {
		return 0, fmt.Errorf("cemi: frame too short: %d bytes", len(data))
	}
	if err := msg.propertyHeader.unpack(data[1:]); err != nil {
		return 0, err
	}
	return 1 + propertyHeaderSize, nil
}

// Failed reports whether the write was rejected.
func (msg *PropWriteCon) Failed() bool { return msg.NumElements == 0 }

// String renders a stable single-line summary of the frame.
func (msg *PropWriteCon) String() string {
	return fmt.Sprintf("M_PropWrite.con obj=0x%04x/%d prop=%d n=%d start=%d",
		msg.InterfaceObject, msg.ObjectInstance, msg.PropertyID, msg.NumElements, msg.StartIndex)
}
