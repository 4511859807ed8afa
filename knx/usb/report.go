// Licensed under the MIT license which can be found in the LICENSE file.

// Package usb implements the USB HID transport (C9): HID report framing
// and reassembly, the USB Transfer Protocol header, and the device open
// sequence and send/receive path for USB-HID KNX interfaces.
package usb

import "fmt"

const (
	reportSize   = 64
	reportID     = 0x01
	reportHeader = 3 // reportId, seq|type, bodyLen
	maxBodyLen   = reportSize - reportHeader

	packageFirst = 0x01
	packageLast  = 0x02
)

// packReports splits body into one or more 64-byte HID output reports,
// each carrying up to maxBodyLen bytes of body.
func packReports(body []byte) [][]byte {
	if len(body) == 0 {
		body = []byte{}
	}

	var reports [][]byte
	seq := uint8(0)

	for offset := 0; offset == 0 || offset < len(body); seq++ {
		end := offset + maxBodyLen
		if end > len(body) {
			end = len(body)
		}
		chunk := body[offset:end]

		var pkgType uint8
		if offset == 0 {
			pkgType |= packageFirst
		}
		if end == len(body) {
			pkgType |= packageLast
		}

		report := make([]byte, reportSize)
		report[0] = reportID
		report[1] = seq<<4 | pkgType
		report[2] = uint8(len(chunk))
		copy(report[reportHeader:], chunk)

		reports = append(reports, report)

		offset = end
		if len(body) == 0 {
			break
		}
	}

	return reports
}

// reassembler accumulates HID reports into complete USB Transfer frames.
type reassembler struct {
	buffer []byte
}

// feed processes one inbound HID report. It returns the assembled body and
// true once a report with the "end" bit completes a frame. Reports whose
// report ID isn't 0x01 are ignored.
func (r *reassembler) feed(report []byte) ([]byte, bool, error) {
	if len(report) < reportHeader {
		return nil, false, fmt.Errorf("usb: HID report too short: %d bytes", len(report))
	}

	if report[0] != reportID {
		return nil, false, nil
	}

	pkgType := report[1] & 0x0F
	bodyLen := int(report[2])

	if reportHeader+bodyLen > len(report) {
		return nil, false, fmt.Errorf("usb: HID report body length %d exceeds report", bodyLen)
	}
	body := report[reportHeader : reportHeader+bodyLen]

	if pkgType&packageFirst != 0 {
		r.buffer = append([]byte{}, body...)
	} else {
		r.buffer = append(r.buffer, body...)
	}

	if pkgType&packageLast != 0 {
		frame := r.buffer
		r.buffer = nil
		return frame, true, nil
	}

	return nil, false, nil
}
