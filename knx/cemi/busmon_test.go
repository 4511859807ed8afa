package cemi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusmonInd_PackUnpack(t *testing.T) {
	ind := &BusmonInd{
		Status:   BusmonLost | 3,
		RawFrame: []byte{0x11, 0x22, 0x33},
	}

	buffer := make([]byte, ind.Size())
	ind.Pack(buffer)

	msg, err := Unpack(buffer)
	require.NoError(t, err)

	got, ok := msg.(*BusmonInd)
	require.True(t, ok)

	assert.Equal(t, ind.RawFrame, got.RawFrame)
	assert.Equal(t, uint8(3), got.Status.SequenceNumber())
	assert.False(t, got.Status.HasError())
}

func TestBusmonStatus_HasError(t *testing.T) {
	assert.True(t, BusmonFrameError.HasError())
	assert.True(t, BusmonBitError.HasError())
	assert.False(t, BusmonLost.HasError())
}
