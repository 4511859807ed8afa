package cemi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLDataReq_PackUnpack_GroupValueWrite(t *testing.T) {
	req := &LDataReq{
		LData: LData{
			Control1:    Control1StdFrame | Control1NoRepeat | Control1NoSysBroadcast,
			Control2:    Control2GroupAddr | Control2Hops(6),
			Source:      NewIndividualAddr3(1, 1, 1),
			Destination: uint16(NewGroupAddr3(1, 2, 3)),
			Data: &AppData{
				Command: GroupValueWrite,
				Data:    []byte{1},
			},
		},
	}

	buffer := make([]byte, req.Size())
	req.Pack(buffer)

	msg, err := Unpack(buffer)
	require.NoError(t, err)

	got, ok := msg.(*LDataReq)
	require.True(t, ok)

	assert.Equal(t, req.Source, got.Source)
	assert.Equal(t, req.Destination, got.Destination)
	assert.True(t, got.IsGroupDest())
	assert.Equal(t, uint8(6), got.HopCount())

	app, ok := got.Data.(*AppData)
	require.True(t, ok)
	assert.Equal(t, GroupValueWrite, app.Command)
}

func TestLData_HopCountZero_IsDroppable(t *testing.T) {
	ind := &LDataInd{
		LData: LData{
			Control1: Control1StdFrame,
			Control2: Control2Hops(0),
		},
	}

	assert.Equal(t, uint8(0), ind.HopCount())
}

func TestLDataCon_HasError(t *testing.T) {
	con := &LDataCon{LData: LData{Control1: Control1StdFrame | Control1HasError}}
	assert.True(t, con.HasError())

	con2 := &LDataCon{LData: LData{Control1: Control1StdFrame}}
	assert.False(t, con2.HasError())
}

func TestUnpack_UnknownMessageCode(t *testing.T) {
	_, err := Unpack([]byte{0xAA, 0x00})
	assert.Error(t, err)
}

func TestUnpack_TooShort(t *testing.T) {
	_, err := Unpack([]byte{0x11})
	assert.Error(t, err)
}

func TestIsValid(t *testing.T) {
	req := &LDataReq{
		LData: LData{
			Control1: Control1StdFrame,
			Control2: Control2Hops(6),
			Data:     &AppData{Command: GroupValueRead},
		},
	}

	buffer := make([]byte, req.Size())
	req.Pack(buffer)

	assert.True(t, IsValid(buffer))
	assert.False(t, IsValid(buffer[:2]))
	assert.False(t, IsValid(nil))
}
