package usb

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackReports_SingleReportCarriesBothBits(t *testing.T) {
	reports := packReports([]byte{0x01, 0x02, 0x03})
	require.Len(t, reports, 1)

	r := reports[0]
	assert.Len(t, r, reportSize)
	assert.Equal(t, byte(reportID), r[0])
	assert.Equal(t, uint8(packageFirst|packageLast), r[1]&0x0F)
	assert.Equal(t, uint8(3), r[2])
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, r[reportHeader:reportHeader+3])
}

func TestPackReports_SplitsLongBodyAcrossReports(t *testing.T) {
	body := bytes.Repeat([]byte{0xAB}, maxBodyLen+10)

	reports := packReports(body)
	require.Len(t, reports, 2)

	assert.Equal(t, uint8(packageFirst), reports[0][1]&0x0F)
	assert.Equal(t, uint8(maxBodyLen), reports[0][2])

	assert.Equal(t, uint8(packageLast), reports[1][1]&0x0F)
	assert.Equal(t, uint8(10), reports[1][2])
}

func TestReassembler_SingleReport(t *testing.T) {
	reports := packReports([]byte{0xDE, 0xAD})

	var r reassembler
	body, complete, err := r.feed(reports[0])
	require.NoError(t, err)
	require.True(t, complete)
	assert.Equal(t, []byte{0xDE, 0xAD}, body)
}

func TestReassembler_MultiReport(t *testing.T) {
	body := bytes.Repeat([]byte{0x07}, maxBodyLen+5)
	reports := packReports(body)
	require.Len(t, reports, 2)

	var r reassembler

	_, complete, err := r.feed(reports[0])
	require.NoError(t, err)
	assert.False(t, complete)

	got, complete, err := r.feed(reports[1])
	require.NoError(t, err)
	require.True(t, complete)
	assert.Equal(t, body, got)
}

func TestReassembler_IgnoresWrongReportID(t *testing.T) {
	report := make([]byte, reportSize)
	report[0] = 0x02
	report[1] = packageFirst | packageLast
	report[2] = 1

	var r reassembler
	body, complete, err := r.feed(report)
	require.NoError(t, err)
	assert.False(t, complete)
	assert.Nil(t, body)
}

func TestReassembler_RestartsOnStartBit(t *testing.T) {
	reports := packReports(bytes.Repeat([]byte{0x01}, maxBodyLen+3))
	require.Len(t, reports, 2)

	var r reassembler
	_, _, err := r.feed(reports[0])
	require.NoError(t, err)

	// A fresh start-of-packet report discards the half-assembled buffer.
	fresh := packReports([]byte{0x09})
	body, complete, err := r.feed(fresh[0])
	require.NoError(t, err)
	require.True(t, complete)
	assert.Equal(t, []byte{0x09}, body)
}
