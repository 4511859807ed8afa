package cemi

import "fmt"

// ResetReq is an M_Reset.req message: a request to restart a device's
// management interface. It carries no payload beyond the message code and
// an empty additional-information length byte.
type ResetReq struct{}

// MessageCode returns MResetReqCode.
func (*ResetReq) MessageCode() MessageCode { return MResetReqCode }

// Size returns the packed size.
func (*ResetReq) Size() uint { return 2 }

// Pack assembles the message in the given buffer.
func (*ResetReq) Pack(buffer []byte) {
	buffer[0] = byte(MResetReqCode)
	buffer[1] = 0
}

// Unpack parses the message from data.
func (*ResetReq) Unpack(data []byte) (uint, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("cemi: frame too short: %d bytes", len(data))
	}
	return 2, nil
}

// String renders a stable single-line summary of the frame.
func (*ResetReq) String() string { return "M_Reset.req" }

// ResetInd is an M_Reset.ind message: a device's notification that it has
// restarted its management interface. Like ResetReq it consists of the
// message code and an empty additional-information length byte.
type ResetInd struct{}

// MessageCode returns MResetIndCode.
func (*ResetInd) MessageCode() MessageCode { return MResetIndCode }

// Size returns the packed size.
func (*ResetInd) Size() uint { return 2 }

// Pack assembles the message in the given buffer.
func (*ResetInd) Pack(buffer []byte) {
	buffer[0] = byte(MResetIndCode)
	buffer[1] = 0
}

// Unpack parses the message from data.
func (*ResetInd) Unpack(data []byte) (uint, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("cemi: frame too short: %d bytes", len(data))
	}
	return 2, nil
}

// String renders a stable single-line summary of the frame.
func (*ResetInd) String() string { return "M_Reset.ind" }
