package usb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectDevice_ByExplicitPath(t *testing.T) {
	infos := []HIDInfo{
		{Path: "a", Product: "Random Device"},
		{Path: "b", Product: "Also Random"},
	}

	got, err := selectDevice(infos, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Path)
}

func TestSelectDevice_ByKnownVendorProduct(t *testing.T) {
	infos := []HIDInfo{
		{Path: "a", Product: "Random Device"},
		{Path: "b", VendorID: 0x0E77, ProductID: 0x0111, Product: "Something"},
	}

	got, err := selectDevice(infos, "")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Path)
}

func TestSelectDevice_ByProductString(t *testing.T) {
	infos := []HIDInfo{
		{Path: "a", Product: "Unrelated HID Device"},
		{Path: "b", Product: "ACME KNX USB Interface"},
	}

	got, err := selectDevice(infos, "")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Path)
}

func TestSelectDevice_NoneFound(t *testing.T) {
	infos := []HIDInfo{{Path: "a", Product: "Unrelated"}}

	_, err := selectDevice(infos, "")
	assert.Error(t, err)
}

func TestSelectDevice_ExplicitPathNotFound(t *testing.T) {
	infos := []HIDInfo{{Path: "a", Product: "Unrelated"}}

	_, err := selectDevice(infos, "missing")
	assert.Error(t, err)
}
