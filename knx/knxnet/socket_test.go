package knxnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpackService_Dispatch(t *testing.T) {
	req := &ConnStateReq{Channel: 3, Control: HostInfo{Protocol: UDP4, Port: 3671}}

	srv, err := unpackService(Pack(req))
	require.NoError(t, err)

	got, ok := srv.(*ConnStateReq)
	require.True(t, ok)
	assert.Equal(t, req.Channel, got.Channel)
}

func TestUnpackService_UnknownServiceIsDroppedSilently(t *testing.T) {
	h := Header{Service: 0xFFFF, TotalLength: 6}
	buffer := make([]byte, 6)
	h.Pack(buffer)

	srv, err := unpackService(buffer)
	assert.NoError(t, err)
	assert.Nil(t, srv)
}

func TestUnpackService_MalformedHeader(t *testing.T) {
	_, err := unpackService([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestUnpackService_TunnelReqRoundTrip(t *testing.T) {
	req := &TunnelReq{
		ConnHeader: ConnHeader{Channel: 1, SeqNumber: 9},
		Payload:    []byte{0x11, 0x00, 0xbc, 0xe0, 0x00, 0x00, 0x00, 0x00, 0x00},
	}

	srv, err := unpackService(Pack(req))
	require.NoError(t, err)

	got, ok := srv.(*TunnelReq)
	require.True(t, ok)
	assert.Equal(t, req.Payload, got.Payload)
	assert.Equal(t, uint8(9), got.SeqNumber)
}
