package cemi

import "fmt"

// IndividualAddr is a KNX individual address: 4 bits area / 4 bits line /
// 8 bits device, displayed "A.L.D".
type IndividualAddr uint16

// NewIndividualAddr3 composes an individual address from its three parts.
func NewIndividualAddr3(area, line, device uint8) IndividualAddr {
	return IndividualAddr(uint16(area&0xF)<<12 | uint16(line&0xF)<<8 | uint16(device))
}

// Area returns the 4-bit area part.
func (addr IndividualAddr) Area() uint8 { return uint8(addr>>12) & 0xF }

// Line returns the 4-bit line part.
func (addr IndividualAddr) Line() uint8 { return uint8(addr>>8) & 0xF }

// Device returns the 8-bit device part.
func (addr IndividualAddr) Device() uint8 { return uint8(addr) }

// String formats the address as "A.L.D".
func (addr IndividualAddr) String() string {
	return fmt.Sprintf("%d.%d.%d", addr.Area(), addr.Line(), addr.Device())
}

// ParseIndividualAddr parses the "A.L.D" form produced by
// IndividualAddr.String.
func ParseIndividualAddr(s string) (IndividualAddr, error) {
	var area, line, device uint8

	if _, err := fmt.Sscanf(s, "%d.%d.%d", &area, &line, &device); err != nil {
		return 0, fmt.Errorf("cemi: invalid individual address %q: %w", s, err)
	}

	return NewIndividualAddr3(area, line, device), nil
}

// GroupAddr is a KNX group address: 5 bits main / 3 bits middle / 8 bits
// sub, displayed "M/M/S". Whether a 16-bit destination is a GroupAddr or an
// IndividualAddr is governed by the enclosing cEMI frame's Control2
// destination-is-group bit, not by the value itself.
type GroupAddr uint16

// NewGroupAddr3 composes a group address from its three parts.
func NewGroupAddr3(main, middle, sub uint8) GroupAddr {
	return GroupAddr(uint16(main&0x1F)<<11 | uint16(middle&0x7)<<8 | uint16(sub))
}

// Main returns the 5-bit main group part.
func (addr GroupAddr) Main() uint8 { return uint8(addr>>11) & 0x1F }

// Middle returns the 3-bit middle group part.
func (addr GroupAddr) Middle() uint8 { return uint8(addr>>8) & 0x7 }

// Sub returns the 8-bit sub group part.
func (addr GroupAddr) Sub() uint8 { return uint8(addr) }

// String formats the address as "M/M/S".
func (addr GroupAddr) String() string {
	return fmt.Sprintf("%d/%d/%d", addr.Main(), addr.Middle(), addr.Sub())
}

// ParseGroupAddr parses the "M/M/S" form produced by GroupAddr.String.
func ParseGroupAddr(s string) (GroupAddr, error) {
	var main, middle, sub uint8

	if _, err := fmt.Sscanf(s, "%d/%d/%d", &main, &middle, &sub); err != nil {
		return 0, fmt.Errorf("cemi: invalid group address %q: %w", s, err)
	}

	return NewGroupAddr3(main, middle, sub), nil
}

// FormatDestination renders a 16-bit destination address as a group or
// individual address, depending on isGroup.
func FormatDestination(dst uint16, isGroup bool) string {
	if isGroup {
		return GroupAddr(dst).String()
	}

	return IndividualAddr(dst).String()
}
