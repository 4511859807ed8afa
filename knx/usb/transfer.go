package usb

import "fmt"

// ProtocolID identifies the kind of payload a USB Transfer frame carries.
type ProtocolID uint8

const (
	ProtocolKNXTunnel    ProtocolID = 0x01
	ProtocolBusAccessSrv ProtocolID = 0x0F
)

// EMIID identifies the EMI variant in use on the link.
type EMIID uint8

const (
	EMI1 EMIID = 0x01
	EMI2 EMIID = 0x02
	CEMI EMIID = 0x03
)

const (
	transferProtocolVersion = 0x00
	transferHeaderLength    = 0x08
)

// transferFrame is one USB Transfer Protocol frame: an 8-byte header
// followed by a body whose first byte is the EMI message code.
type transferFrame struct {
	ProtocolID       ProtocolID
	EMIID            EMIID
	ManufacturerCode uint16
	Body             []byte
}

func packTransferFrame(f transferFrame) []byte {
	buffer := make([]byte, transferHeaderLength+len(f.Body))

	buffer[0] = transferProtocolVersion
	buffer[1] = transferHeaderLength
	buffer[2] = uint8(len(f.Body) >> 8)
	buffer[3] = uint8(len(f.Body))
	buffer[4] = uint8(f.ProtocolID)
	buffer[5] = uint8(f.EMIID)
	buffer[6] = uint8(f.ManufacturerCode >> 8)
	buffer[7] = uint8(f.ManufacturerCode)

	copy(buffer[transferHeaderLength:], f.Body)

	return buffer
}

func unpackTransferFrame(data []byte) (transferFrame, error) {
	if len(data) < transferHeaderLength {
		return transferFrame{}, fmt.Errorf("usb: transfer frame too short: %d bytes", len(data))
	}

	if data[0] != transferProtocolVersion {
		return transferFrame{}, fmt.Errorf("usb: unsupported transfer protocol version 0x%02x", data[0])
	}

	headerLen := int(data[1])
	if headerLen != transferHeaderLength {
		return transferFrame{}, fmt.Errorf("usb: unexpected transfer header length %d", headerLen)
	}

	bodyLen := int(data[2])<<8 | int(data[3])
	if headerLen+bodyLen > len(data) {
		return transferFrame{}, fmt.Errorf("usb: transfer body length %d exceeds frame", bodyLen)
	}

	return transferFrame{
		ProtocolID:       ProtocolID(data[4]),
		EMIID:            EMIID(data[5]),
		ManufacturerCode: uint16(data[6])<<8 | uint16(data[7]),
		Body:             data[headerLen : headerLen+bodyLen],
	}, nil
}
