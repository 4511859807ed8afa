package knxnet

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSearchReq_DerivesHostInfoFromAddr(t *testing.T) {
	addr := &net.UDPAddr{IP: net.IPv4(192, 168, 1, 10), Port: 3671}

	req, err := NewSearchReq(addr)
	require.NoError(t, err)
	assert.Equal(t, Address{192, 168, 1, 10}, req.HostInfo.Address)
	assert.EqualValues(t, 3671, req.HostInfo.Port)
}

func TestSearchRes_PackUnpack(t *testing.T) {
	res := SearchRes{
		Control: HostInfo{Protocol: UDP4, Port: 3671},
		DescriptionB: DescriptionBlock{
			DeviceHardware: DeviceInformationBlock{
				Type:         DescriptionTypeDeviceInfo,
				Medium:       KNXMediumIP,
				HardwareAddr: []byte{0, 1, 2, 3, 4, 5},
				FriendlyName: "Gateway",
			},
			SupportedServices: SupportedServicesDIB{
				Type:     DescriptionTypeSupportedServiceFamilies,
				Families: []ServiceFamily{{Type: ServiceFamilyTypeIPCore, Version: 1}},
			},
		},
	}

	buffer := make([]byte, res.Size())
	res.Pack(buffer)

	var got SearchRes
	n, err := got.Unpack(buffer)
	require.NoError(t, err)
	assert.EqualValues(t, res.Size(), n)
	assert.Equal(t, res.DescriptionB.DeviceHardware.FriendlyName, got.DescriptionB.DeviceHardware.FriendlyName)
	assert.Equal(t, res.DescriptionB.SupportedServices.Families, got.DescriptionB.SupportedServices.Families)
}

func TestSelectProgMode_PackUnpack(t *testing.T) {
	srp := NewSelectProgMode(true)

	buffer := make([]byte, srp.Size()+1)
	srp.Pack(buffer)

	var got SelectProgMode
	_, err := got.Unpack(buffer)
	require.NoError(t, err)
	assert.True(t, got.Mandatory)
	assert.Equal(t, ParameterTypeSelectProgMode, got.Type)
}

func TestSelectSrvSRP_PackUnpack(t *testing.T) {
	srp := NewSelectSrvSRP(false, ServiceFamilyTypeIPTunnelling, 2)

	buffer := make([]byte, srp.Size()+1)
	srp.Pack(buffer)

	var got SelectSrvSRP
	_, err := got.Unpack(buffer)
	require.NoError(t, err)
	assert.False(t, got.Mandatory)
	assert.Equal(t, ServiceFamilyTypeIPTunnelling, got.Service)
	assert.EqualValues(t, 2, got.Version)
}

func TestNewSearchReqExt_WithParameters(t *testing.T) {
	addr := &net.UDPAddr{IP: net.IPv4(192, 168, 1, 10), Port: 3671}
	prog := NewSelectProgMode(true)

	req, err := NewSearchReqExt(addr, prog)
	require.NoError(t, err)
	require.Len(t, req.Parameters, 1)
	assert.Equal(t, prog, req.Parameters[0])
}
