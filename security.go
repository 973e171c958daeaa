// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfb

import "encoding/binary"

// SecurityType identifies an RFB authentication method. The proxy only ever
// accepts SecurityNone; any other negotiated type is a fatal assertion
// failure in the handshake driver (§4.3), since the proxy does not
// implement authenticated flows.
type SecurityType uint8

// SecurityNone is the only security type this proxy negotiates: no
// authentication.
const SecurityNone SecurityType = 1

// decodeSecurityType decodes a single SecurityType byte.
func decodeSecurityType(data []byte) (SecurityType, int, error) {
	if len(data) < 1 {
		return 0, 0, ErrShortBuffer
	}
	return SecurityType(data[0]), 1, nil
}

// Encode appends the 1-byte wire representation of t to buf.
func (t SecurityType) Encode(buf []byte) []byte {
	return append(buf, byte(t))
}

// SecurityTypes is the server's offered list of security types (version
// 3.7+ handshake). An empty list is the "server refused" sentinel and is
// always followed on the wire by a reason string (§4.3 step 4).
type SecurityTypes []SecurityType

// decodeSecurityTypes decodes a 1-byte count followed by that many
// SecurityType bytes.
func decodeSecurityTypes(data []byte) (SecurityTypes, int, error) {
	if len(data) < 1 {
		return nil, 0, ErrShortBuffer
	}
	count := int(data[0])
	if len(data) < 1+count {
		return nil, 0, ErrShortBuffer
	}
	types := make(SecurityTypes, count)
	for i := 0; i < count; i++ {
		types[i] = SecurityType(data[1+i])
	}
	return types, 1 + count, nil
}

// Encode appends the wire representation of ts to buf: a 1-byte count
// followed by one byte per security type.
func (ts SecurityTypes) Encode(buf []byte) []byte {
	buf = append(buf, byte(len(ts)))
	for _, t := range ts {
		buf = append(buf, byte(t))
	}
	return buf
}

// SecurityResult is the 4-byte big-endian status that concludes a security
// handshake: 0 for OK, 1 for failed.
type SecurityResult uint32

const (
	SecurityResultOK     SecurityResult = 0
	SecurityResultFailed SecurityResult = 1
)

// decodeSecurityResult decodes a 4-byte big-endian SecurityResult.
func decodeSecurityResult(data []byte) (SecurityResult, int, error) {
	if len(data) < 4 {
		return 0, 0, ErrShortBuffer
	}
	return SecurityResult(binary.BigEndian.Uint32(data[0:4])), 4, nil
}

// Encode appends the 4-byte wire representation of r to buf.
func (r SecurityResult) Encode(buf []byte) []byte {
	var raw [4]byte
	binary.BigEndian.PutUint32(raw[:], uint32(r))
	return append(buf, raw[:]...)
}

// ClientInit is the 1-byte shared-flag message the client sends after the
// security handshake completes.
type ClientInit struct {
	Shared bool
}

// decodeClientInit decodes a 1-byte ClientInit.
func decodeClientInit(data []byte) (ClientInit, int, error) {
	if len(data) < 1 {
		return ClientInit{}, 0, ErrShortBuffer
	}
	return ClientInit{Shared: data[0] != 0}, 1, nil
}

// Encode appends the 1-byte wire representation of ci to buf.
func (ci ClientInit) Encode(buf []byte) []byte {
	var b byte
	if ci.Shared {
		b = 1
	}
	return append(buf, b)
}

// ServerInit is the server's reply to ClientInit: framebuffer dimensions,
// pixel format, and desktop name.
type ServerInit struct {
	Width, Height uint16
	PixelFormat   PixelFormat
	Name          string
}

// decodeServerInit decodes a ServerInit message: 2 width, 2 height, 16
// pixel format, then a length-prefixed name string.
func decodeServerInit(data []byte) (ServerInit, int, error) {
	if len(data) < 4 {
		return ServerInit{}, 0, ErrShortBuffer
	}
	width := binary.BigEndian.Uint16(data[0:2])
	height := binary.BigEndian.Uint16(data[2:4])

	pf, pfN, err := decodePixelFormat(data[4:])
	if err != nil {
		return ServerInit{}, 0, err
	}

	name, nameN, err := decodeRFBString(data[4+pfN:])
	if err != nil {
		return ServerInit{}, 0, err
	}

	total := 4 + pfN + nameN
	return ServerInit{Width: width, Height: height, PixelFormat: pf, Name: name}, total, nil
}

// Encode appends the wire representation of si to buf.
func (si ServerInit) Encode(buf []byte) []byte {
	var dims [4]byte
	binary.BigEndian.PutUint16(dims[0:2], si.Width)
	binary.BigEndian.PutUint16(dims[2:4], si.Height)
	buf = append(buf, dims[:]...)
	buf = si.PixelFormat.Encode(buf)
	buf = encodeRFBString(buf, si.Name)
	return buf
}
