package usb

import (
	"fmt"
	"strings"

	"github.com/karalabe/usb"
)

// HIDDevice is the narrow capability interface the USB transport needs
// from an opened HID device: writing and reading fixed-size reports.
type HIDDevice interface {
	Write(report []byte) (int, error)
	Read(report []byte) (int, error)
	Close() error
}

// HIDInfo describes one enumerated HID device.
type HIDInfo struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Product      string
	Manufacturer string
}

// HIDManager enumerates and opens HID devices. It is satisfied by the
// karalabe/usb-backed manager returned by NewHIDManager, and can be
// substituted with a fake in tests.
type HIDManager interface {
	List() ([]HIDInfo, error)
	Open(path string) (HIDDevice, error)
}

type karalabeManager struct{}

// NewHIDManager returns the HIDManager backed by github.com/karalabe/usb.
func NewHIDManager() HIDManager { return karalabeManager{} }

func (karalabeManager) List() ([]HIDInfo, error) {
	infos, err := usb.Enumerate(0, 0)
	if err != nil {
		return nil, fmt.Errorf("usb: enumerate: %w", err)
	}

	out := make([]HIDInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, HIDInfo{
			Path:         info.Path,
			VendorID:     info.VendorID,
			ProductID:    info.ProductID,
			Product:      info.Product,
			Manufacturer: info.Manufacturer,
		})
	}

	return out, nil
}

func (karalabeManager) Open(path string) (HIDDevice, error) {
	infos, err := usb.Enumerate(0, 0)
	if err != nil {
		return nil, fmt.Errorf("usb: enumerate: %w", err)
	}

	for _, info := range infos {
		if info.Path == path {
			dev, err := info.Open()
			if err != nil {
				return nil, fmt.Errorf("usb: open %s: %w", path, err)
			}
			return dev, nil
		}
	}

	return nil, fmt.Errorf("usb: device %s not found", path)
}

// knownVendorProductIDs lists USB-HID KNX interfaces recognized by
// vendor/product ID even when their product string doesn't mention KNX.
var knownVendorProductIDs = []struct {
	vendor, product uint16
}{
	{0x0E77, 0x0111}, // Weinzierl KNX USB Interface 311
	{0x0E77, 0x0116}, // Weinzierl KNX USB Interface 312
	{0x0E77, 0x0112}, // Weinzierl KNX USB Interface 301
}

// selectDevice picks the configured path, or the first device whose
// vendor/product matches a known KNX-USB interface, or the first whose
// product string contains "knx".
func selectDevice(infos []HIDInfo, path string) (HIDInfo, error) {
	if path != "" {
		for _, info := range infos {
			if info.Path == path {
				return info, nil
			}
		}
		return HIDInfo{}, fmt.Errorf("usb: device %s not found", path)
	}

	for _, info := range infos {
		for _, known := range knownVendorProductIDs {
			if info.VendorID == known.vendor && info.ProductID == known.product {
				return info, nil
			}
		}
	}

	for _, info := range infos {
		if strings.Contains(strings.ToLower(info.Product), "knx") {
			return info, nil
		}
	}

	return HIDInfo{}, fmt.Errorf("usb: no KNX USB interface found")
}
