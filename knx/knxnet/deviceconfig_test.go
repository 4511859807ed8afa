package knxnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceConfigReq_PackUnpack(t *testing.T) {
	req := DeviceConfigReq{
		ConnHeader: ConnHeader{Channel: 2, SeqNumber: 4},
		Payload:    []byte{0xfc, 0x00, 0x00, 0x00, 0x08, 0x01, 0x0a},
	}

	buffer := make([]byte, req.Size())
	req.Pack(buffer)

	var got DeviceConfigReq
	n, err := got.Unpack(buffer)
	require.NoError(t, err)
	assert.EqualValues(t, req.Size(), n)
	assert.Equal(t, req.Payload, got.Payload)
	assert.Equal(t, req.ConnHeader, got.ConnHeader)
}

func TestDeviceConfigRes_PackUnpack(t *testing.T) {
	res := DeviceConfigRes{ConnHeader: ConnHeader{Channel: 2, SeqNumber: 4}, Status: 0}

	buffer := make([]byte, res.Size())
	res.Pack(buffer)

	var got DeviceConfigRes
	_, err := got.Unpack(buffer)
	require.NoError(t, err)
	assert.Equal(t, res.ConnHeader, got.ConnHeader)
	assert.Equal(t, res.Status, got.Status)
}
