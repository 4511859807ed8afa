package knxnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRI_TunnelConnection_PackUnpack(t *testing.T) {
	cri := CRI{ConnType: TunnelConnection, Layer: TunnelLayerData}

	buffer := make([]byte, cri.Size())
	cri.Pack(buffer)

	var got CRI
	n, err := got.Unpack(buffer)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
	assert.Equal(t, cri, got)
}

func TestCRI_DeviceMgmtConnection_PackUnpack(t *testing.T) {
	cri := CRI{ConnType: DeviceMgmtConnection}

	buffer := make([]byte, cri.Size())
	cri.Pack(buffer)

	var got CRI
	n, err := got.Unpack(buffer)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, DeviceMgmtConnection, got.ConnType)
}

func TestCRD_TunnelConnection_PackUnpack(t *testing.T) {
	crd := CRD{ConnType: TunnelConnection, TunnelAddress: 0x1101}

	buffer := make([]byte, crd.Size())
	crd.Pack(buffer)

	var got CRD
	n, err := got.Unpack(buffer)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
	assert.Equal(t, crd, got)
}

func TestConnReq_PackUnpack(t *testing.T) {
	req := ConnReq{
		Control: HostInfo{Protocol: UDP4, Port: 3671},
		Data:    HostInfo{Protocol: UDP4, Port: 3671},
		CRI:     CRI{ConnType: TunnelConnection, Layer: TunnelLayerData},
	}

	buffer := make([]byte, req.Size())
	req.Pack(buffer)

	var got ConnReq
	n, err := got.Unpack(buffer)
	require.NoError(t, err)
	assert.EqualValues(t, req.Size(), n)
	assert.Equal(t, req, got)
}

func TestConnRes_Ok_PackUnpack(t *testing.T) {
	res := ConnRes{
		Channel: 5,
		Status:  ConnResOk,
		Control: HostInfo{Protocol: UDP4, Port: 3671},
		CRD:     CRD{ConnType: TunnelConnection, TunnelAddress: 0x1101},
	}

	buffer := make([]byte, res.Size())
	res.Pack(buffer)

	var got ConnRes
	n, err := got.Unpack(buffer)
	require.NoError(t, err)
	assert.EqualValues(t, res.Size(), n)
	assert.Equal(t, res, got)
}

func TestConnRes_Error_OmitsBody(t *testing.T) {
	res := ConnRes{Channel: 0, Status: ConnResNoMoreConns}
	assert.EqualValues(t, 2, res.Size())

	buffer := make([]byte, res.Size())
	res.Pack(buffer)

	var got ConnRes
	n, err := got.Unpack(buffer)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, ConnResNoMoreConns, got.Status)
}
