// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfb

import (
	"encoding/binary"
	"fmt"
)

// ClientMessage is the sum type of every message the C2S relay (C4) reads
// from a client: SetPixelFormat, SetEncodings, FramebufferUpdateRequest,
// KeyEvent, PointerEvent, and CutText.
type ClientMessage interface {
	Encodable
	clientMessage()
}

// SetPixelFormatMsg is message type 0.
type SetPixelFormatMsg struct {
	Format PixelFormat
}

func (SetPixelFormatMsg) clientMessage() {}

// Encode appends the wire representation: type byte, 3-byte pad, 16-byte
// pixel format.
func (m SetPixelFormatMsg) Encode(buf []byte) []byte {
	buf = append(buf, 0, 0, 0, 0)
	return m.Format.Encode(buf)
}

// SetEncodingsMsg is message type 2.
type SetEncodingsMsg struct {
	Encodings []Encoding
}

func (SetEncodingsMsg) clientMessage() {}

// Encode appends the wire representation: type byte, 1-byte pad, u16
// count, then count big-endian int32 encoding types.
func (m SetEncodingsMsg) Encode(buf []byte) []byte {
	buf = append(buf, 2, 0)
	var countBuf [2]byte
	binary.BigEndian.PutUint16(countBuf[:], uint16(len(m.Encodings))) // #nosec G115 -- bounded by maxSetEncodings below
	buf = append(buf, countBuf[:]...)
	for _, e := range m.Encodings {
		var raw [4]byte
		binary.BigEndian.PutUint32(raw[:], uint32(int32(e)))
		buf = append(buf, raw[:]...)
	}
	return buf
}

// FramebufferUpdateRequestMsg is message type 3.
type FramebufferUpdateRequestMsg struct {
	Incremental         bool
	X, Y, Width, Height uint16
}

func (FramebufferUpdateRequestMsg) clientMessage() {}

// Encode appends the 10-byte wire representation (including the type
// byte).
func (m FramebufferUpdateRequestMsg) Encode(buf []byte) []byte {
	var incr byte
	if m.Incremental {
		incr = 1
	}
	buf = append(buf, 3, incr)
	var raw [8]byte
	binary.BigEndian.PutUint16(raw[0:2], m.X)
	binary.BigEndian.PutUint16(raw[2:4], m.Y)
	binary.BigEndian.PutUint16(raw[4:6], m.Width)
	binary.BigEndian.PutUint16(raw[6:8], m.Height)
	return append(buf, raw[:]...)
}

// KeyEventMsg is message type 4.
type KeyEventMsg struct {
	Down bool
	Key  uint32
}

func (KeyEventMsg) clientMessage() {}

// Encode appends the 8-byte wire representation (including the type
// byte): down flag, 2-byte pad, 4-byte key symbol.
func (m KeyEventMsg) Encode(buf []byte) []byte {
	var down byte
	if m.Down {
		down = 1
	}
	buf = append(buf, 4, down, 0, 0)
	var raw [4]byte
	binary.BigEndian.PutUint32(raw[:], m.Key)
	return append(buf, raw[:]...)
}

// PointerEventMsg is message type 5.
type PointerEventMsg struct {
	ButtonMask uint8
	X, Y       uint16
}

func (PointerEventMsg) clientMessage() {}

// Encode appends the 6-byte wire representation (including the type
// byte).
func (m PointerEventMsg) Encode(buf []byte) []byte {
	buf = append(buf, 5, m.ButtonMask)
	var raw [4]byte
	binary.BigEndian.PutUint16(raw[0:2], m.X)
	binary.BigEndian.PutUint16(raw[2:4], m.Y)
	return append(buf, raw[:]...)
}

// CutTextMsg is message type 6, the client-originated clipboard update.
// The server-originated flavor is ServerCutTextMsg.
type CutTextMsg struct {
	Text string
}

func (CutTextMsg) clientMessage() {}

// Encode appends the wire representation: type byte, 3-byte pad, string.
func (m CutTextMsg) Encode(buf []byte) []byte {
	buf = append(buf, 6, 0, 0, 0)
	return encodeRFBString(buf, m.Text)
}

// maxSetEncodings bounds the encoding count the decoder accepts, guarding
// against a client claiming an implausibly large list and stalling the
// relay on an unbounded read.
const maxSetEncodings = 4096

// DecodeClientMessage decodes one C2S message from the front of data,
// dispatching on the first byte per the message-type table in §4.1.
func DecodeClientMessage(data []byte) (ClientMessage, int, error) {
	if len(data) < 1 {
		return nil, 0, ErrShortBuffer
	}
	body := data[1:]

	switch data[0] {
	case 0: // SetPixelFormat: 3 pad + 16 PF
		if len(body) < 3 {
			return nil, 0, ErrShortBuffer
		}
		pf, n, err := decodePixelFormat(body[3:])
		if err != nil {
			return nil, 0, err
		}
		return SetPixelFormatMsg{Format: pf}, 1 + 3 + n, nil

	case 2: // SetEncodings: 1 pad + u16 count + count*i32
		if len(body) < 3 {
			return nil, 0, ErrShortBuffer
		}
		count := int(binary.BigEndian.Uint16(body[1:3]))
		if count > maxSetEncodings {
			return nil, 0, decodeError("DecodeClientMessage", "SetEncodings count exceeds maximum", nil)
		}
		need := 3 + count*4
		if len(body) < need {
			return nil, 0, ErrShortBuffer
		}
		var encs []Encoding
		if count > 0 {
			encs = make([]Encoding, count)
		}
		for i := 0; i < count; i++ {
			off := 3 + i*4
			encs[i] = Encoding(int32(binary.BigEndian.Uint32(body[off : off+4])))
		}
		return SetEncodingsMsg{Encodings: encs}, 1 + need, nil

	case 3: // FramebufferUpdateRequest: 9 bytes
		if len(body) < 9 {
			return nil, 0, ErrShortBuffer
		}
		return FramebufferUpdateRequestMsg{
			Incremental: body[0] != 0,
			X:           binary.BigEndian.Uint16(body[1:3]),
			Y:           binary.BigEndian.Uint16(body[3:5]),
			Width:       binary.BigEndian.Uint16(body[5:7]),
			Height:      binary.BigEndian.Uint16(body[7:9]),
		}, 1 + 9, nil

	case 4: // KeyEvent: 1 down + 2 pad + 4 key
		if len(body) < 7 {
			return nil, 0, ErrShortBuffer
		}
		return KeyEventMsg{
			Down: body[0] != 0,
			Key:  binary.BigEndian.Uint32(body[3:7]),
		}, 1 + 7, nil

	case 5: // PointerEvent: 1 mask + 2 x + 2 y
		if len(body) < 5 {
			return nil, 0, ErrShortBuffer
		}
		return PointerEventMsg{
			ButtonMask: body[0],
			X:          binary.BigEndian.Uint16(body[1:3]),
			Y:          binary.BigEndian.Uint16(body[3:5]),
		}, 1 + 5, nil

	case 6: // CutText: 3 pad + string
		if len(body) < 3 {
			return nil, 0, ErrShortBuffer
		}
		text, n, err := decodeRFBString(body[3:])
		if err != nil {
			return nil, 0, err
		}
		return CutTextMsg{Text: text}, 1 + 3 + n, nil

	default:
		return nil, 0, decodeError("DecodeClientMessage", fmt.Sprintf("unknown client message type %d", data[0]), nil)
	}
}
