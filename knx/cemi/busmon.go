package cemi

import "fmt"

// BusmonStatus is the status octet leading every L_Busmon.ind frame's
// service info.
type BusmonStatus uint8

// BusmonStatus bit flags and the sequence-number field (bits 2-0).
const (
	BusmonFrameError  BusmonStatus = 0x80
	BusmonBitError    BusmonStatus = 0x40
	BusmonParityError BusmonStatus = 0x20
	BusmonOverflow    BusmonStatus = 0x10
	BusmonLost        BusmonStatus = 0x08

	busmonSeqMask BusmonStatus = 0x07
)

// SequenceNumber extracts the monitor sequence-number field.
func (s BusmonStatus) SequenceNumber() uint8 { return uint8(s & busmonSeqMask) }

// HasError reports whether any of the error flags are set.
func (s BusmonStatus) HasError() bool {
	return s&(BusmonFrameError|BusmonBitError|BusmonParityError|BusmonOverflow) != 0
}

// String renders the set flags and sequence number.
func (s BusmonStatus) String() string {
	flags := ""
	if s&BusmonFrameError != 0 {
		flags += "F"
	}
	if s&BusmonBitError != 0 {
		flags += "B"
	}
	if s&BusmonParityError != 0 {
		flags += "P"
	}
	if s&BusmonOverflow != 0 {
		flags += "O"
	}
	if s&BusmonLost != 0 {
		flags += "L"
	}
	if flags == "" {
		flags = "-"
	}
	return fmt.Sprintf("%s seq=%d", flags, s.SequenceNumber())
}

// BusmonInd is an L_Busmon.ind message: a raw frame sniffed off the bus by a
// device in bus-monitor mode, along with the status octet describing how it
// was received.
type BusmonInd struct {
	AddInfo []AddInfo
	Status  BusmonStatus

	// RawFrame is the monitored frame exactly as it travelled on the bus,
	// including its own cEMI-style TPCI/APCI and payload octets. It is not
	// parsed further: busmonitor frames need not be well-formed L_Data
	// frames (that is, after all, what makes bus errors visible).
	RawFrame []byte
}

// MessageCode returns LBusmonIndCode.
func (*BusmonInd) MessageCode() MessageCode { return LBusmonIndCode }

// Size returns the packed size.
func (msg *BusmonInd) Size() uint {
	return 2 + addInfoSize(msg.AddInfo) + 1 + uint(len(msg.RawFrame))
}

// Pack assembles the message in the given buffer.
func (msg *BusmonInd) Pack(buffer []byte) {
	buffer[0] = byte(LBusmonIndCode)
	buffer[1] = uint8(addInfoSize(msg.AddInfo))

	offset := uint(2)
	for i := range msg.AddInfo {
		msg.AddInfo[i].Pack(buffer[offset:])
		offset += msg.AddInfo[i].Size()
	}

	buffer[offset] = byte(msg.Status)
	copy(buffer[offset+1:], msg.RawFrame)
}

// Unpack parses the message from data.
func (msg *BusmonInd) Unpack(data []byte) (n uint, err error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("cemi: frame too short: %d bytes", len(data))
	}

	addInfoLen := int(data[1])
	offset := uint(2)

	if addInfoLen > len(data)-2 {
		msg.AddInfo = nil
	} else {
		entries, ok := parseAddInfo(data[2 : 2+addInfoLen])
		if !ok {
			msg.AddInfo = nil
		} else {
			msg.AddInfo = entries
		}
		offset += uint(addInfoLen)
	}

	if offset >= uint(len(data)) {
		return 0, fmt.Errorf("cemi: unexpected EOF in L_Busmon.ind service info")
	}

	msg.Status = BusmonStatus(data[offset])
	msg.RawFrame = make([]byte, len(data)-int(offset)-1)
	copy(msg.RawFrame, data[offset+1:])

	return uint(len(data)), nil
}

// String renders a stable single-line summary of the frame.
func (msg *BusmonInd) String() string {
	return fmt.Sprintf("L_Busmon.ind status=%s len=%d data=% x", msg.Status, len(msg.RawFrame), msg.RawFrame)
}
