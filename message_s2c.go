// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfb

import (
	"encoding/binary"
	"fmt"
)

// ServerMessage is the sum type of every message the S2C relay (C5) reads
// from the upstream server: FramebufferUpdate (header only — its
// rectangles are read one at a time by the relay loop, §4.5),
// SetColorMapEntries, Bell, and CutText.
type ServerMessage interface {
	Encodable
	serverMessage()
}

// FramebufferUpdateMsg is message type 0's header. Count is the number of
// Rectangle headers that follow on the wire; the relay reads and forwards
// them itself rather than this decoder slurping the whole update, since
// rectangle payload sizes depend on the current pixel format and can be
// arbitrarily large (ZRLE).
type FramebufferUpdateMsg struct {
	Count uint16
}

func (FramebufferUpdateMsg) serverMessage() {}

// Encode appends the 4-byte wire representation (including the type
// byte): type, 1-byte pad, u16 count.
func (m FramebufferUpdateMsg) Encode(buf []byte) []byte {
	buf = append(buf, 0, 0)
	var raw [2]byte
	binary.BigEndian.PutUint16(raw[:], m.Count)
	return append(buf, raw[:]...)
}

// SetColorMapEntriesMsg is message type 1. The proxy never decodes
// individual color map entries — it only needs to relay the message
// verbatim — so Colors holds the raw 6*N bytes of RGB triplets untouched.
type SetColorMapEntriesMsg struct {
	FirstColor uint16
	Colors     []byte // len(Colors) is a multiple of 6
}

func (SetColorMapEntriesMsg) serverMessage() {}

// NumColors returns the number of color map entries encoded in Colors.
func (m SetColorMapEntriesMsg) NumColors() int {
	return len(m.Colors) / 6
}

// Encode appends the wire representation: type, 1-byte pad, u16
// first-color, u16 count, then the raw color bytes.
func (m SetColorMapEntriesMsg) Encode(buf []byte) []byte {
	buf = append(buf, 1, 0)
	var raw [4]byte
	binary.BigEndian.PutUint16(raw[0:2], m.FirstColor)
	binary.BigEndian.PutUint16(raw[2:4], uint16(m.NumColors())) // #nosec G115 -- bounded by maxColorMapEntries below
	buf = append(buf, raw[:]...)
	return append(buf, m.Colors...)
}

// BellMsg is message type 2: an empty notification.
type BellMsg struct{}

func (BellMsg) serverMessage() {}

// Encode appends the 1-byte wire representation (just the type byte).
func (BellMsg) Encode(buf []byte) []byte {
	return append(buf, 2)
}

// ServerCutTextMsg is message type 3, the server-originated clipboard
// update.
type ServerCutTextMsg struct {
	Text string
}

func (ServerCutTextMsg) serverMessage() {}

// Encode appends the wire representation: type byte, 3-byte pad, string.
func (m ServerCutTextMsg) Encode(buf []byte) []byte {
	buf = append(buf, 3, 0, 0, 0)
	return encodeRFBString(buf, m.Text)
}

// maxColorMapEntries bounds the color-map entry count the decoder accepts.
const maxColorMapEntries = 1 << 16

// DecodeServerMessage decodes one S2C message header from the front of
// data, dispatching on the first byte per the message-type table in §4.1.
// For FramebufferUpdateMsg, only the 4-byte header is consumed; the caller
// is responsible for reading Count rectangles itself.
func DecodeServerMessage(data []byte) (ServerMessage, int, error) {
	if len(data) < 1 {
		return nil, 0, ErrShortBuffer
	}
	body := data[1:]

	switch data[0] {
	case 0: // FramebufferUpdate: 1 pad + u16 count
		if len(body) < 3 {
			return nil, 0, ErrShortBuffer
		}
		count := binary.BigEndian.Uint16(body[1:3])
		return FramebufferUpdateMsg{Count: count}, 1 + 3, nil

	case 1: // SetColorMapEntries: 1 pad + u16 first + u16 n + 6n bytes
		if len(body) < 5 {
			return nil, 0, ErrShortBuffer
		}
		first := binary.BigEndian.Uint16(body[1:3])
		n := int(binary.BigEndian.Uint16(body[3:5]))
		if n > maxColorMapEntries {
			return nil, 0, decodeError("DecodeServerMessage", "color map entry count exceeds maximum", nil)
		}
		need := 5 + n*6
		if len(body) < need {
			return nil, 0, ErrShortBuffer
		}
		var colors []byte
		if n > 0 {
			colors = make([]byte, n*6)
			copy(colors, body[5:need])
		}
		return SetColorMapEntriesMsg{FirstColor: first, Colors: colors}, 1 + need, nil

	case 2: // Bell: no payload
		return BellMsg{}, 1, nil

	case 3: // CutText: 3 pad + string
		if len(body) < 3 {
			return nil, 0, ErrShortBuffer
		}
		text, n, err := decodeRFBString(body[3:])
		if err != nil {
			return nil, 0, err
		}
		return ServerCutTextMsg{Text: text}, 1 + 3 + n, nil

	default:
		return nil, 0, decodeError("DecodeServerMessage", fmt.Sprintf("unknown server message type %d", data[0]), nil)
	}
}
