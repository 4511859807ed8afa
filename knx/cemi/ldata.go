package cemi

import "fmt"

// AddInfo is one entry of a cEMI frame's additional-information block.
type AddInfo struct {
	Type uint8
	Info []byte
}

// Size returns the packed size.
func (a AddInfo) Size() uint { return uint(2 + len(a.Info)) }

// Pack assembles the additional-information entry in the given buffer.
func (a *AddInfo) Pack(buffer []byte) {
	buffer[0] = a.Type
	buffer[1] = uint8(len(a.Info))
	copy(buffer[2:], a.Info)
}

// parseAddInfo parses block as a sequence of {type, length, data} entries
// that must total exactly len(block) bytes. It reports ok=false, rather
// than an error, if the entries are malformed -- a malformed additional-info
// block is reported to the caller as simply empty.
func parseAddInfo(block []byte) (entries []AddInfo, ok bool) {
	offset := 0

	for offset < len(block) {
		if offset+2 > len(block) {
			return nil, false
		}

		typ := block[offset]
		length := int(block[offset+1])

		if offset+2+length > len(block) {
			return nil, false
		}

		info := make([]byte, length)
		copy(info, block[offset+2:offset+2+length])

		entries = append(entries, AddInfo{Type: typ, Info: info})
		offset += 2 + length
	}

	return entries, true
}

func addInfoSize(entries []AddInfo) uint {
	size := uint(0)
	for _, e := range entries {
		size += e.Size()
	}
	return size
}

// LData is the service-info payload shared by L_Data.req, L_Data.con and
// L_Data.ind: addressing, control fields and the transport data unit.
type LData struct {
	AddInfo     []AddInfo
	Control1    Control1
	Control2    Control2
	Source      IndividualAddr
	Destination uint16
	Data        TransportUnit
}

// IsGroupDest reports whether Destination should be interpreted as a group
// address rather than an individual address.
func (ld *LData) IsGroupDest() bool { return ld.Control2.IsGroupAddr() }

// Priority returns the frame's priority.
func (ld *LData) Priority() Priority { return ld.Control1.Priority() }

// HopCount returns the frame's hop count.
func (ld *LData) HopCount() uint8 { return ld.Control2.Hops() }

// dataSize returns the packed size of the transport data unit, or 0 if
// there is none.
func (ld *LData) dataSize() uint {
	if ld.Data == nil {
		return 0
	}
	return ld.Data.Size()
}

// serviceInfoSize returns the size of the service-info block (everything
// after the additional-information block).
func (ld *LData) serviceInfoSize() uint {
	if ld.Control1.IsStandardFrame() {
		return 5 + ld.dataSize()
	}
	return 6 + ld.dataSize()
}

// packServiceInfo writes the service-info block into buffer.
func (ld *LData) packServiceInfo(buffer []byte) {
	buffer[0] = byte(ld.Control1)

	if ld.Control1.IsStandardFrame() {
		buffer[1] = byte(ld.Source >> 8)
		buffer[2] = byte(ld.Source)
		buffer[3] = byte(ld.Destination >> 8)
		buffer[4] = byte(ld.Destination)

		if ld.Data != nil {
			ld.Data.Pack(buffer[5:])
		} else {
			buffer[5] = 0
		}

		// Merge Control2's group/hop nibble into the data-length byte.
		buffer[5] = buffer[5]&0x0F | byte(ld.Control2)&0xF0

		return
	}

	buffer[1] = byte(ld.Control2)
	buffer[2] = byte(ld.Source >> 8)
	buffer[3] = byte(ld.Source)
	buffer[4] = byte(ld.Destination >> 8)
	buffer[5] = byte(ld.Destination)

	if ld.Data != nil {
		ld.Data.Pack(buffer[6:])
	} else {
		buffer[6] = 0
	}
}

// unpackServiceInfo parses the service-info block from data and returns the
// number of bytes consumed.
func (ld *LData) unpackServiceInfo(data []byte) (n uint, err error) {
	if len(data) < 1 {
		return 0, fmt.Errorf("cemi: unexpected EOF while reading CTRL1")
	}

	ld.Control1 = Control1(data[0])

	if ld.Control1.IsStandardFrame() {
		if len(data) < 6 {
			return 0, fmt.Errorf("cemi: unexpected EOF in standard L_Data service info")
		}

		ld.Source = IndividualAddr(uint16(data[1])<<8 | uint16(data[2]))
		ld.Destination = uint16(data[3])<<8 | uint16(data[4])

		merged := data[5]
		ld.Control2 = Control2(merged & 0xF0)
		lenNibble := merged & 0x0F

		// unpackTransportUnit requires its input to be exactly as long as the
		// unit it decodes; the data-length nibble here stands in for the
		// synthetic length byte a standalone transport unit would carry.
		need := int(lenNibble) + 2
		if len(data) < 5+need {
			return 0, fmt.Errorf("cemi: unexpected EOF in transport data unit")
		}

		scratch := make([]byte, need)
		scratch[0] = lenNibble
		copy(scratch[1:], data[6:5+need])

		var unit TransportUnit
		nn, err := unpackTransportUnit(scratch, &unit)
		if err != nil {
			return 0, fmt.Errorf("cemi: unpacking transport data unit: %w", err)
		}
		ld.Data = unit

		return 5 + nn, nil
	}

	if len(data) < 7 {
		return 0, fmt.Errorf("cemi: unexpected EOF in extended L_Data service info")
	}

	ld.Control2 = Control2(data[1])
	ld.Source = IndividualAddr(uint16(data[2])<<8 | uint16(data[3]))
	ld.Destination = uint16(data[4])<<8 | uint16(data[5])

	lenByte := data[6]
	need := int(lenByte) + 2
	if len(data) < 6+need {
		return 0, fmt.Errorf("cemi: unexpected EOF in transport data unit")
	}

	var unit TransportUnit
	nn, err := unpackTransportUnit(data[6:6+need], &unit)
	if err != nil {
		return 0, fmt.Errorf("cemi: unpacking transport data unit: %w", err)
	}
	ld.Data = unit

	return 6 + nn, nil
}

// packMessage assembles a full cEMI message (message code, additional info,
// service info) into buffer.
func packMessage(code MessageCode, addInfo []AddInfo, ld *LData, buffer []byte) {
	buffer[0] = byte(code)
	buffer[1] = uint8(addInfoSize(addInfo))

	offset := uint(2)
	for i := range addInfo {
		addInfo[i].Pack(buffer[offset:])
		offset += addInfo[i].Size()
	}

	ld.packServiceInfo(buffer[offset:])
}

// unpackMessage parses a full cEMI message (message code, additional info,
// service info) from data and returns the number of bytes consumed.
func unpackMessage(addInfo *[]AddInfo, ld *LData, data []byte) (n uint, err error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("cemi: frame too short: %d bytes", len(data))
	}

	addInfoLen := int(data[1])
	offset := uint(2)

	if addInfoLen > len(data)-2 {
		*addInfo = nil
	} else {
		entries, ok := parseAddInfo(data[2 : 2+addInfoLen])
		if !ok {
			*addInfo = nil
		} else {
			*addInfo = entries
		}
		offset += uint(addInfoLen)
	}

	nn, err := ld.unpackServiceInfo(data[offset:])
	if err != nil {
		return 0, err
	}

	return offset + nn, nil
}

func messageSize(addInfo []AddInfo, ld *LData) uint {
	return 2 + addInfoSize(addInfo) + ld.serviceInfoSize()
}

// LDataReq is an L_Data.req message: a request to transmit a frame on the
// bus.
type LDataReq struct {
	LData
}

// MessageCode returns LDataReqCode.
func (*LDataReq) MessageCode() MessageCode { return LDataReqCode }

// Size returns the packed size.
func (msg *LDataReq) Size() uint { return messageSize(msg.AddInfo, &msg.LData) }

// Pack assembles the message in the given buffer.
func (msg *LDataReq) Pack(buffer []byte) {
	packMessage(LDataReqCode, msg.AddInfo, &msg.LData, buffer)
}

// Unpack parses the message from data.
func (msg *LDataReq) Unpack(data []byte) (uint, error) {
	return unpackMessage(&msg.AddInfo, &msg.LData, data)
}

// String renders a stable single-line summary of the frame.
func (msg *LDataReq) String() string { return formatLData(LDataReqCode, &msg.LData) }

// LDataCon is an L_Data.con message: a local confirmation of a previously
// requested transmission.
type LDataCon struct {
	LData
}

// MessageCode returns LDataConCode.
func (*LDataCon) MessageCode() MessageCode { return LDataConCode }

// Size returns the packed size.
func (msg *LDataCon) Size() uint { return messageSize(msg.AddInfo, &msg.LData) }

// Pack assembles the message in the given buffer.
func (msg *LDataCon) Pack(buffer []byte) {
	packMessage(LDataConCode, msg.AddInfo, &msg.LData, buffer)
}

// Unpack parses the message from data.
func (msg *LDataCon) Unpack(data []byte) (uint, error) {
	return unpackMessage(&msg.AddInfo, &msg.LData, data)
}

// HasError reports whether the confirmation indicates a negative
// confirmation (the frame was not successfully transmitted).
func (msg *LDataCon) HasError() bool { return msg.Control1&Control1HasError != 0 }

// String renders a stable single-line summary of the frame.
func (msg *LDataCon) String() string { return formatLData(LDataConCode, &msg.LData) }

// LDataInd is an L_Data.ind message: an indication of a frame received
// from the bus.
type LDataInd struct {
	LData
}

// MessageCode returns LDataIndCode.
func (*LDataInd) MessageCode() MessageCode { return LDataIndCode }

// Size returns the packed size.
func (msg *LDataInd) Size() uint { return messageSize(msg.AddInfo, &msg.LData) }

// Pack assembles the message in the given buffer.
func (msg *LDataInd) Pack(buffer []byte) {
	packMessage(LDataIndCode, msg.AddInfo, &msg.LData, buffer)
}

// Unpack parses the message from data.
func (msg *LDataInd) Unpack(data []byte) (uint, error) {
	return unpackMessage(&msg.AddInfo, &msg.LData, data)
}

// String renders a stable single-line summary of the frame.
func (msg *LDataInd) String() string { return formatLData(LDataIndCode, &msg.LData) }

// formatLData renders the stable single-line form shared by all L_Data
// variants: message type, hop count, priority, addresses, data length and
// application payload in hex.
func formatLData(code MessageCode, ld *LData) string {
	var appData []byte
	var apci APCI

	if app, ok := ld.Data.(*AppData); ok {
		appData = app.Data
		apci = app.Command
	}

	return fmt.Sprintf(
		"%s hop=%d prio=%s src=%s dst=%s len=%d apci=0x%03x data=% x",
		code, ld.HopCount(), ld.Priority(),
		ld.Source, FormatDestination(ld.Destination, ld.IsGroupDest()),
		len(appData), uint16(apci), appData,
	)
}
