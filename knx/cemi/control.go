package cemi

// Priority is the KNX telegram priority.
type Priority uint8

// These are the four usable priority levels.
const (
	PrioSystem Priority = 0
	PrioNormal Priority = 1
	PrioUrgent Priority = 2
	PrioLow    Priority = 3
)

// String returns the human-readable priority name.
func (p Priority) String() string {
	switch p {
	case PrioSystem:
		return "System"
	case PrioNormal:
		return "Normal"
	case PrioUrgent:
		return "Urgent"
	case PrioLow:
		return "Low"
	default:
		return "Unknown"
	}
}

// Control1 is the first control octet of an L_Data cEMI frame.
type Control1 uint8

// Control1 bit flags and the priority field (bits 4-3).
const (
	Control1StdFrame      Control1 = 0x80 // Frame type: 1 = standard, 0 = extended.
	Control1NoRepeat      Control1 = 0x40 // Repeat flag: 1 = do not repeat on error.
	Control1NoSysBroadcast Control1 = 0x20 // Broadcast: 1 = normal broadcast, 0 = system broadcast.
	Control1WantAck       Control1 = 0x04 // Request an L2 acknowledgement.
	Control1HasError      Control1 = 0x02 // Confirm bit; set by L_Data.con on negative confirmation.

	control1PrioMask  Control1 = 0x18
	control1PrioShift          = 3
)

// Control1Prio returns the Control1 bits encoding the given priority.
func Control1Prio(p Priority) Control1 {
	return Control1(p) << control1PrioShift & control1PrioMask
}

// IsStandardFrame reports whether the frame-type bit selects the standard
// (short) cEMI frame layout.
func (c Control1) IsStandardFrame() bool {
	return c&Control1StdFrame != 0
}

// Priority extracts the priority field.
func (c Control1) Priority() Priority {
	return Priority(c&control1PrioMask) >> control1PrioShift
}

// Control2 is the second control octet of an L_Data cEMI frame. For a
// standard frame it is carried merged with the data-length field in a
// single wire byte; for an extended frame it occupies its own byte.
type Control2 uint8

// Control2 bit flags, the hop-count field (bits 6-4) and the extended
// frame-format field (bits 3-0).
const (
	Control2GroupAddr Control2 = 0x80 // Destination is a group address.

	control2HopMask  Control2 = 0x70
	control2HopShift          = 4
	control2FormatMask Control2 = 0x0F
)

// Control2Hops returns the Control2 bits encoding the given hop count
// (0-7).
func Control2Hops(hops uint8) Control2 {
	return Control2(hops&0x7) << control2HopShift
}

// IsGroupAddr reports whether the destination-is-group bit is set.
func (c Control2) IsGroupAddr() bool {
	return c&Control2GroupAddr != 0
}

// Hops extracts the hop-count field.
func (c Control2) Hops() uint8 {
	return uint8(c&control2HopMask) >> control2HopShift
}

// ExtFormat extracts the extended frame-format field (only meaningful on
// extended frames).
func (c Control2) ExtFormat() uint8 {
	return uint8(c & control2FormatMask)
}
