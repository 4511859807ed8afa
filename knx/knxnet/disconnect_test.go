package knxnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscReq_PackUnpack(t *testing.T) {
	req := DiscReq{Channel: 3, Control: HostInfo{Protocol: UDP4, Port: 3671}}

	buffer := make([]byte, req.Size())
	req.Pack(buffer)

	var got DiscReq
	n, err := got.Unpack(buffer)
	require.NoError(t, err)
	assert.EqualValues(t, req.Size(), n)
	assert.Equal(t, req, got)
}

func TestDiscRes_PackUnpack(t *testing.T) {
	res := DiscRes{Channel: 3, Status: 0}

	buffer := make([]byte, res.Size())
	res.Pack(buffer)

	var got DiscRes
	n, err := got.Unpack(buffer)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, res, got)
}
