// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfb

import (
	"encoding/binary"
	"fmt"
)

// rectangleHeaderSize is the wire size of a Rectangle header: 4 uint16
// fields plus a 4-byte signed encoding type.
const rectangleHeaderSize = 12

// Rectangle is one region of a framebuffer update: its bounds and the
// encoding its payload uses. The payload itself is read separately by the
// S2C relay once the encoding is known (§4.5).
type Rectangle struct {
	X, Y, Width, Height uint16
	Enc                 Encoding
}

// Contains reports whether the point (x, y) falls within the rectangle's
// bounds, used by the C2S relay to test a pointer click against the
// overlay icon's geometry (§4.4).
func (r Rectangle) Contains(x, y uint16) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// decodeRectangle decodes a 12-byte Rectangle header from the front of
// data.
func decodeRectangle(data []byte) (Rectangle, int, error) {
	if len(data) < rectangleHeaderSize {
		return Rectangle{}, 0, ErrShortBuffer
	}
	r := Rectangle{
		X:      binary.BigEndian.Uint16(data[0:2]),
		Y:      binary.BigEndian.Uint16(data[2:4]),
		Width:  binary.BigEndian.Uint16(data[4:6]),
		Height: binary.BigEndian.Uint16(data[6:8]),
		Enc:    Encoding(int32(binary.BigEndian.Uint32(data[8:12]))),
	}
	return r, rectangleHeaderSize, nil
}

// Encode appends the 12-byte wire representation of r to buf.
func (r Rectangle) Encode(buf []byte) []byte {
	var raw [rectangleHeaderSize]byte
	binary.BigEndian.PutUint16(raw[0:2], r.X)
	binary.BigEndian.PutUint16(raw[2:4], r.Y)
	binary.BigEndian.PutUint16(raw[4:6], r.Width)
	binary.BigEndian.PutUint16(raw[6:8], r.Height)
	binary.BigEndian.PutUint32(raw[8:12], uint32(int32(r.Enc)))
	return append(buf, raw[:]...)
}

// PayloadSize returns the number of opaque bytes that follow this
// rectangle's header on the wire, for the three encodings the proxy must
// size itself (§4.1). ZRLE is self-delimited (read via ReadZRLEPayload) and
// DesktopSize carries no payload at all; callers must special-case both
// before calling PayloadSize. Any other encoding is unsupported: the proxy
// never advertises it to the server, so seeing one in a server rectangle is
// a fatal protocol violation.
func (r Rectangle) PayloadSize(pf PixelFormat) (int, error) {
	bpp := pf.BytesPerPixel()
	switch r.Enc {
	case EncodingRaw:
		return int(r.Width) * int(r.Height) * bpp, nil
	case EncodingCursor:
		pixels := int(r.Width) * int(r.Height) * bpp
		mask := ceilDiv(int(r.Width), 8) * int(r.Height)
		return pixels + mask, nil
	case EncodingCopyRect:
		return 4, nil
	default:
		return 0, unsupportedError("Rectangle.PayloadSize",
			fmt.Sprintf("cannot size rectangle with encoding %s", r.Enc), nil)
	}
}

// ceilDiv returns ceil(a/b) for non-negative a and positive b.
func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// maxZRLEPayload bounds the length prefix decodeZRLEPayload accepts,
// guarding against a malformed length stalling the relay on an unbounded
// read.
const maxZRLEPayload = 64 * 1024 * 1024

// decodeZRLEPayload decodes a self-delimited ZRLE rectangle payload: a
// 4-byte big-endian length followed by that many opaque bytes. The proxy
// never inflates or inspects ZRLE tile data; it only needs to know where
// the message ends so it can copy it through unmodified.
func decodeZRLEPayload(data []byte) ([]byte, int, error) {
	if len(data) < 4 {
		return nil, 0, ErrShortBuffer
	}
	length := binary.BigEndian.Uint32(data[0:4])
	if length > maxZRLEPayload {
		return nil, 0, decodeError("decodeZRLEPayload", "ZRLE payload length exceeds maximum", nil)
	}
	total := 4 + int(length)
	if len(data) < total {
		return nil, 0, ErrShortBuffer
	}
	out := make([]byte, total)
	copy(out, data[:total])
	return out, total, nil
}
