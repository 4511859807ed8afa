package knxnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutingInd_PackUnpack(t *testing.T) {
	ind := RoutingInd{Payload: []byte{0x11, 0x00, 0xbc, 0xe0, 0x00, 0x00, 0x00, 0x00, 0x00}}

	buffer := make([]byte, ind.Size())
	ind.Pack(buffer)

	var got RoutingInd
	n, err := got.Unpack(buffer)
	require.NoError(t, err)
	assert.EqualValues(t, len(ind.Payload), n)
	assert.Equal(t, ind.Payload, got.Payload)
}

func TestRoutingLostMessage_PackUnpack(t *testing.T) {
	msg := RoutingLostMessage{DeviceState: 1, LostCount: 42}

	buffer := make([]byte, msg.Size())
	msg.Pack(buffer)

	var got RoutingLostMessage
	n, err := got.Unpack(buffer)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
	assert.Equal(t, msg, got)
}

func TestRoutingBusy_PackUnpack(t *testing.T) {
	msg := RoutingBusy{DeviceState: 1, WaitTime: 100, ControlField: 3}

	buffer := make([]byte, msg.Size())
	msg.Pack(buffer)

	var got RoutingBusy
	n, err := got.Unpack(buffer)
	require.NoError(t, err)
	assert.EqualValues(t, 6, n)
	assert.Equal(t, msg, got)
}
