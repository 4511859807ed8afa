package util

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// validatingUTF8 decodes a byte sequence as UTF-8, replacing invalid
// sequences rather than rejecting the whole field -- device-reported
// strings such as a friendly name are untrusted wire input.
var validatingUTF8 = unicode.UTF8.NewDecoder()

// PackString writes s into buffer as width bytes: the UTF-8 encoding of s,
// truncated to width bytes, followed by zero padding up to a trailing NUL.
// buffer must be exactly width bytes.
func PackString(buffer []byte, width int, s string) {
	for i := range buffer {
		buffer[i] = 0
	}

	b := []byte(s)
	if len(b) > width-1 {
		b = b[:width-1]
	}

	copy(buffer, b)
}

// UnpackString reads a width-byte fixed field from data, stops at the first
// NUL byte, validates the result as UTF-8 (replacing invalid sequences),
// and stores it in s. It returns width as the number of bytes consumed.
func UnpackString(data []byte, width int, s *string) (n uint, err error) {
	if len(data) < width {
		return 0, fmt.Errorf("util: unexpected EOF while unpacking %d-byte string", width)
	}

	field := data[:width]

	end := len(field)
	for i, b := range field {
		if b == 0 {
			end = i
			break
		}
	}

	decoded, err := validatingUTF8.Bytes(field[:end])
	if err != nil {
		return uint(width), fmt.Errorf("util: invalid UTF-8 string: %w", err)
	}

	*s = string(decoded)

	return uint(width), nil
}
