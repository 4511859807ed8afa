package usb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferFrame_PackUnpack(t *testing.T) {
	f := transferFrame{
		ProtocolID:       ProtocolKNXTunnel,
		EMIID:            CEMI,
		ManufacturerCode: 0x1234,
		Body:             []byte{0x29, 0x00, 0x11, 0x00, 0x00, 0x00},
	}

	packed := packTransferFrame(f)
	assert.Equal(t, byte(transferHeaderLength), packed[1])

	got, err := unpackTransferFrame(packed)
	require.NoError(t, err)

	assert.Equal(t, f.ProtocolID, got.ProtocolID)
	assert.Equal(t, f.EMIID, got.EMIID)
	assert.Equal(t, f.ManufacturerCode, got.ManufacturerCode)
	assert.Equal(t, f.Body, got.Body)
}

func TestUnpackTransferFrame_RejectsBadVersion(t *testing.T) {
	packed := packTransferFrame(transferFrame{ProtocolID: ProtocolKNXTunnel, EMIID: CEMI})
	packed[0] = 0x01

	_, err := unpackTransferFrame(packed)
	assert.Error(t, err)
}

func TestUnpackTransferFrame_TooShort(t *testing.T) {
	_, err := unpackTransferFrame([]byte{0x00, 0x08})
	assert.Error(t, err)
}
