package cemi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetReq_PackUnpack(t *testing.T) {
	req := &ResetReq{}

	buffer := make([]byte, req.Size())
	req.Pack(buffer)

	assert.Equal(t, []byte{byte(MResetReqCode), 0x00}, buffer)

	msg, err := Unpack(buffer)
	require.NoError(t, err)
	_, ok := msg.(*ResetReq)
	assert.True(t, ok)
}

func TestResetInd_PackUnpack(t *testing.T) {
	ind := &ResetInd{}

	buffer := make([]byte, ind.Size())
	ind.Pack(buffer)

	msg, err := Unpack(buffer)
	require.NoError(t, err)
	_, ok := msg.(*ResetInd)
	assert.True(t, ok)
}
