// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfb

import "encoding/binary"

// maxStringLength bounds the length prefix accepted for any wire string
// (server reason strings, clipboard text, desktop names) to guard against a
// malicious or buggy peer claiming a multi-gigabyte string and stalling the
// relay on an unbounded read.
const maxStringLength = 16 * 1024 * 1024

// decodeRFBString decodes a 4-byte big-endian length prefix followed by
// that many bytes, per RFC 6143's string encoding. Per the open question in
// the specification, this is a lossy Latin-1 decode: every byte 0x00-0xFF
// maps directly to its Unicode code point, which is what Latin-1 is, so
// there is no failure mode for "invalid" string bytes on the wire.
func decodeRFBString(data []byte) (string, int, error) {
	if len(data) < 4 {
		return "", 0, ErrShortBuffer
	}
	length := binary.BigEndian.Uint32(data[0:4])
	if length > maxStringLength {
		return "", 0, decodeError("decodeRFBString", "string length exceeds maximum", nil)
	}
	total := 4 + int(length)
	if len(data) < total {
		return "", 0, ErrShortBuffer
	}
	return latin1ToString(data[4:total]), total, nil
}

// latin1ToString converts raw Latin-1 bytes to a Go string by mapping each
// byte to its identical Unicode code point.
func latin1ToString(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

// encodeRFBString appends a 4-byte big-endian length prefix followed by the
// string's bytes, truncating each rune to its low byte — the inverse of
// latin1ToString, and a no-op for any string that only ever held decoded
// Latin-1 bytes.
func encodeRFBString(buf []byte, s string) []byte {
	runes := []rune(s)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(runes)))
	buf = append(buf, lenBuf[:]...)
	for _, r := range runes {
		buf = append(buf, byte(r))
	}
	return buf
}
