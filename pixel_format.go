// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfb

import "encoding/binary"

// pixelFormatSize is the wire size of a PixelFormat: 4 single-byte fields,
// 6 bytes of color maxima, 3 shift bytes, and a 3-byte trailing pad, per
// RFC 6143 §7.4.
const pixelFormatSize = 16

// PixelFormat is the 16-byte server-declared pixel layout. The proxy never
// converts pixels between formats — it only needs BPP to size Raw and
// Cursor rectangle payloads (§4.1) — so this type carries every wire field
// but no conversion helpers.
type PixelFormat struct {
	BPP        uint8
	Depth      uint8
	BigEndian  bool
	TrueColor  bool
	RedMax     uint16
	GreenMax   uint16
	BlueMax    uint16
	RedShift   uint8
	GreenShift uint8
	BlueShift  uint8
}

// BytesPerPixel returns BPP/8, the size in bytes of one pixel in this
// format. BPP is always 8, 16, or 32 on the wire, so this is always exact.
func (pf PixelFormat) BytesPerPixel() int {
	return int(pf.BPP) / 8
}

// decodePixelFormat decodes a 16-byte PixelFormat from the front of data.
func decodePixelFormat(data []byte) (PixelFormat, int, error) {
	if len(data) < pixelFormatSize {
		return PixelFormat{}, 0, ErrShortBuffer
	}

	var pf PixelFormat
	pf.BPP = data[0]
	pf.Depth = data[1]
	pf.BigEndian = data[2] != 0
	pf.TrueColor = data[3] != 0
	pf.RedMax = binary.BigEndian.Uint16(data[4:6])
	pf.GreenMax = binary.BigEndian.Uint16(data[6:8])
	pf.BlueMax = binary.BigEndian.Uint16(data[8:10])
	pf.RedShift = data[10]
	pf.GreenShift = data[11]
	pf.BlueShift = data[12]
	// data[13:16] is a 3-byte pad, ignored on read and zeroed on write.

	return pf, pixelFormatSize, nil
}

// Encode appends the 16-byte wire representation of pf to buf.
func (pf PixelFormat) Encode(buf []byte) []byte {
	var raw [pixelFormatSize]byte
	raw[0] = pf.BPP
	raw[1] = pf.Depth
	if pf.BigEndian {
		raw[2] = 1
	}
	if pf.TrueColor {
		raw[3] = 1
	}
	binary.BigEndian.PutUint16(raw[4:6], pf.RedMax)
	binary.BigEndian.PutUint16(raw[6:8], pf.GreenMax)
	binary.BigEndian.PutUint16(raw[8:10], pf.BlueMax)
	raw[10] = pf.RedShift
	raw[11] = pf.GreenShift
	raw[12] = pf.BlueShift
	// raw[13:16] stays zero, the wire pad.
	return append(buf, raw[:]...)
}

// Validate reports whether pf has a BPP the proxy knows how to size
// rectangles for. The proxy does not validate color shifts or maxima; it
// never composes or converts pixels, so an inconsistent but well-formed
// true-color layout is none of its concern.
func (pf PixelFormat) Validate() error {
	switch pf.BPP {
	case 8, 16, 32:
		return nil
	default:
		return decodeError("PixelFormat.Validate", "unsupported bits-per-pixel", nil)
	}
}
