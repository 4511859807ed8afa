package cemi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndividualAddr_StringAndParts(t *testing.T) {
	addr := NewIndividualAddr3(1, 2, 200)

	assert.Equal(t, uint8(1), addr.Area())
	assert.Equal(t, uint8(2), addr.Line())
	assert.Equal(t, uint8(200), addr.Device())
	assert.Equal(t, "1.2.200", addr.String())
}

func TestGroupAddr_StringAndParts(t *testing.T) {
	addr := NewGroupAddr3(31, 7, 255)

	assert.Equal(t, uint8(31), addr.Main())
	assert.Equal(t, uint8(7), addr.Middle())
	assert.Equal(t, uint8(255), addr.Sub())
	assert.Equal(t, "31/7/255", addr.String())
}

func TestFormatDestination(t *testing.T) {
	dst := uint16(NewGroupAddr3(1, 2, 3))
	assert.Equal(t, "1/2/3", FormatDestination(dst, true))

	ind := uint16(NewIndividualAddr3(1, 1, 1))
	assert.Equal(t, "1.1.1", FormatDestination(ind, false))
}

func TestParseIndividualAddr(t *testing.T) {
	addr, err := ParseIndividualAddr("1.2.200")
	assert.NoError(t, err)
	assert.Equal(t, NewIndividualAddr3(1, 2, 200), addr)

	_, err = ParseIndividualAddr("not-an-address")
	assert.Error(t, err)
}

func TestParseGroupAddr(t *testing.T) {
	addr, err := ParseGroupAddr("31/7/255")
	assert.NoError(t, err)
	assert.Equal(t, NewGroupAddr3(31, 7, 255), addr)

	_, err = ParseGroupAddr("1.1.1")
	assert.Error(t, err)
}
