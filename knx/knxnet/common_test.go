package knxnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeader_PackUnpack(t *testing.T) {
	h := Header{Service: TunnelReqService, TotalLength: 20}

	buffer := make([]byte, 20)
	h.Pack(buffer)

	var got Header
	n, err := got.Unpack(buffer)
	require.NoError(t, err)
	assert.EqualValues(t, 6, n)
	assert.Equal(t, h, got)
}

func TestHeader_Unpack_RejectsBadVersion(t *testing.T) {
	buffer := []byte{6, 0x20, 0x04, 0x20, 0, 6}

	var h Header
	_, err := h.Unpack(buffer)
	assert.ErrorIs(t, err, ErrHeaderBadVersion)
}

func TestHeader_Unpack_RejectsBadSizeByte(t *testing.T) {
	buffer := []byte{7, 0x10, 0x04, 0x20, 0, 6}

	var h Header
	_, err := h.Unpack(buffer)
	assert.ErrorIs(t, err, ErrHeaderSizeMismatch)
}

func TestHostInfo_PackUnpack(t *testing.T) {
	hi := HostInfo{Protocol: UDP4, Address: Address{192, 168, 1, 1}, Port: 3671}

	buffer := make([]byte, 8)
	hi.Pack(buffer)

	var got HostInfo
	_, err := got.Unpack(buffer)
	require.NoError(t, err)
	assert.Equal(t, hi, got)
	assert.Equal(t, "192.168.1.1:3671", got.String())
}

func TestHostInfo_IsZero(t *testing.T) {
	assert.True(t, HostInfo{}.IsZero())
	assert.False(t, HostInfo{Port: 1}.IsZero())
}

func TestPackUnpack_RoundTripsEnvelope(t *testing.T) {
	req := &ConnStateReq{Channel: 7, Control: HostInfo{Protocol: UDP4, Port: 3671}}

	datagram := Pack(req)

	h, payload, err := Unpack(datagram)
	require.NoError(t, err)
	assert.Equal(t, ConnStateReqService, h.Service)

	var got ConnStateReq
	_, err = got.Unpack(payload)
	require.NoError(t, err)
	assert.Equal(t, req.Channel, got.Channel)
}
