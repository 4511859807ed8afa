// Package cemi implements the Common External Message Interface frame
// format: the Layer-2 KNX frame carried inside every KNXnet/IP service and
// every USB Transfer frame.
package cemi

import (
	"fmt"

	"github.com/knxbus/knx-go/knx/util"
)

// MessageCode identifies the kind of cEMI message (the first octet of
// every cEMI frame).
type MessageCode uint8

// Message codes used by the transports this library implements.
const (
	LDataReqCode   MessageCode = 0x11
	LDataConCode   MessageCode = 0x2E
	LDataIndCode   MessageCode = 0x29
	LBusmonIndCode MessageCode = 0x2B

	MPropReadReqCode MessageCode = 0xFC
	MPropReadConCode MessageCode = 0xFB
	MPropWriteReqCode MessageCode = 0xF6
	MPropWriteConCode MessageCode = 0xF5

	MResetReqCode MessageCode = 0xF1
	MResetIndCode MessageCode = 0xF0
)

// String returns a human-readable name for the message code.
func (code MessageCode) String() string {
	switch code {
	case LDataReqCode:
		return "L_Data.req"
	case LDataConCode:
		return "L_Data.con"
	case LDataIndCode:
		return "L_Data.ind"
	case LBusmonIndCode:
		return "L_Busmon.ind"
	case MPropReadReqCode:
		return "M_PropRead.req"
	case MPropReadConCode:
		return "M_PropRead.con"
	case MPropWriteReqCode:
		return "M_PropWrite.req"
	case MPropWriteConCode:
		return "M_PropWrite.con"
	case MResetReqCode:
		return "M_Reset.req"
	case MResetIndCode:
		return "M_Reset.ind"
	default:
		return fmt.Sprintf("MessageCode(0x%02x)", uint8(code))
	}
}

// IsKnown reports whether the message code is one this library recognizes.
func (code MessageCode) IsKnown() bool {
	switch code {
	case LDataReqCode, LDataConCode, LDataIndCode, LBusmonIndCode,
		MPropReadReqCode, MPropReadConCode, MPropWriteReqCode, MPropWriteConCode,
		MResetReqCode, MResetIndCode:
		return true
	default:
		return false
	}
}

// requiresLDataServiceInfo reports whether the message code's payload is an
// L_Data service-info block, which must be at least 6 bytes.
func (code MessageCode) requiresLDataServiceInfo() bool {
	switch code {
	case LDataReqCode, LDataConCode, LDataIndCode:
		return true
	default:
		return false
	}
}

// A Message is a cEMI frame: a message code plus its payload, able to pack
// and unpack itself including the leading message code and any additional
// information block.
type Message interface {
	util.Packable

	// MessageCode returns the message code identifying the frame's kind.
	MessageCode() MessageCode

	// Unpack parses data, which begins at the message code byte, into the
	// receiver, and returns the number of bytes consumed.
	Unpack(data []byte) (n uint, err error)
}

// Unpack parses a raw cEMI frame and returns the concrete Message it
// contains. It requires len(data) >= 2, per the frame's minimum shape
// (message code + additional-info length byte).
func Unpack(data []byte) (Message, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("cemi: frame too short: %d bytes", len(data))
	}

	code := MessageCode(data[0])

	var msg Message

	switch code {
	case LDataReqCode:
		msg = &LDataReq{}
	case LDataConCode:
		msg = &LDataCon{}
	case LDataIndCode:
		msg = &LDataInd{}
	case LBusmonIndCode:
		msg = &BusmonInd{}
	case MPropReadReqCode:
		msg = &PropReadReq{}
	case MPropReadConCode:
		msg = &PropReadCon{}
	case MPropWriteReqCode:
		msg = &PropWriteReq{}
	case MPropWriteConCode:
		msg = &PropWriteCon{}
	case MResetReqCode:
		msg = &ResetReq{}
	case MResetIndCode:
		msg = &ResetInd{}
	default:
		return nil, fmt.Errorf("cemi: unknown message code 0x%02x", uint8(code))
	}

	if _, err := msg.Unpack(data); err != nil {
		return nil, err
	}

	return msg, nil
}

// IsValid reports whether data could plausibly hold a frame of the kind its
// message code indicates: the code must be known, and if it requires
// L_Data service info, the buffer must contain at least serviceInfo + 6
// bytes (CTRL1, one address pair and the merged CTRL2/length byte).
func IsValid(data []byte) bool {
	if len(data) < 2 {
		return false
	}

	code := MessageCode(data[0])
	if !code.IsKnown() {
		return false
	}

	if !code.requiresLDataServiceInfo() {
		return true
	}

	addInfoLen := int(data[1])
	if addInfoLen > len(data)-2 {
		addInfoLen = 0
	}

	serviceInfo := 2 + addInfoLen

	return len(data) >= serviceInfo+6
}
