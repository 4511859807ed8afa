package knxnet

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDescriptionReq_DerivesHostInfoFromAddr(t *testing.T) {
	addr := &net.UDPAddr{IP: net.IPv4(10, 0, 0, 5), Port: 3671}

	req, err := NewDescriptionReq(addr)
	require.NoError(t, err)
	assert.Equal(t, Address{10, 0, 0, 5}, req.Control.Address)
}

func TestDescriptionRes_PackUnpack(t *testing.T) {
	res := DescriptionRes{
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

	var got DescriptionRes
	_, err := got.Unpack(buffer)
	require.NoError(t, err)
	assert.Equal(t, res.DescriptionB.DeviceHardware.FriendlyName, got.DescriptionB.DeviceHardware.FriendlyName)
	assert.Equal(t, res.DescriptionB.SupportedServices.Families, got.DescriptionB.SupportedServices.Families)
}
