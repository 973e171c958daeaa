// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfb

import (
	"errors"
	"io"
)

// Encodable is implemented by every message type that can be written to the
// wire: the C2S and S2C message sum types, Rectangle headers, and the
// handshake's own message shapes (Version, SecurityTypes, ...).
type Encodable interface {
	// Encode appends the wire representation of the message to buf and
	// returns the extended slice.
	Encode(buf []byte) []byte
}

// FramedConn turns a raw bidirectional byte stream into a sequence of typed
// messages and opaque payload reads (C2). It is not safe for concurrent use
// by more than one reader or more than one writer; the proxy gives each
// connection exactly one reader goroutine and the writes it issues are
// always sequential with respect to that connection's own relay.
type FramedConn struct {
	conn io.ReadWriter
	buf  Buffer
}

// NewFramedConn wraps conn for framed reads and writes.
func NewFramedConn(conn io.ReadWriter) *FramedConn {
	return &FramedConn{conn: conn}
}

// readFramed retries decode against the connection's buffer, growing it via
// Buffer.Fill whenever decode reports ErrShortBuffer, and commits exactly
// the bytes decode consumed on success.
func readFramed[T any](fc *FramedConn, decode func([]byte) (T, int, error)) (T, error) {
	for {
		v, n, err := decode(fc.buf.Bytes())
		if err == nil {
			fc.buf.Advance(n)
			return v, nil
		}
		if !errors.Is(err, ErrShortBuffer) {
			var zero T
			return zero, err
		}
		if ferr := fc.buf.Fill(fc.conn); ferr != nil {
			var zero T
			return zero, ferr
		}
	}
}

// ReadClientMessage reads and decodes one C2S message.
func (fc *FramedConn) ReadClientMessage() (ClientMessage, error) {
	return readFramed(fc, DecodeClientMessage)
}

// ReadServerMessage reads and decodes one S2C message.
func (fc *FramedConn) ReadServerMessage() (ServerMessage, error) {
	return readFramed(fc, DecodeServerMessage)
}

// ReadRectangleHeader reads one Rectangle header (12 bytes: x, y, w, h,
// encoding). The rectangle's payload is read separately with ReadData or
// ReadZRLEPayload depending on its encoding.
func (fc *FramedConn) ReadRectangleHeader() (Rectangle, error) {
	return readFramed(fc, decodeRectangle)
}

// ReadZRLEPayload reads one self-delimited ZRLE message: a 4-byte
// big-endian length followed by that many opaque bytes. The proxy never
// inspects ZRLE contents; it only needs to know where the message ends.
func (fc *FramedConn) ReadZRLEPayload() ([]byte, error) {
	return readFramed(fc, decodeZRLEPayload)
}

// ReadData accumulates and returns exactly n opaque bytes.
func (fc *FramedConn) ReadData(n int) ([]byte, error) {
	for fc.buf.Len() < n {
		if err := fc.buf.Fill(fc.conn); err != nil {
			return nil, err
		}
	}
	out := make([]byte, n)
	copy(out, fc.buf.Bytes()[:n])
	fc.buf.Advance(n)
	return out, nil
}

// WriteMessage encodes m and writes it to the connection in full.
func (fc *FramedConn) WriteMessage(m Encodable) error {
	scratch := m.Encode(nil)
	return fc.WriteData(scratch)
}

// WriteData writes p to the connection in full, looping over short writes
// since only net.Conn (not the general io.Writer contract) guarantees a
// single Write call consumes the entire buffer.
func (fc *FramedConn) WriteData(p []byte) error {
	for len(p) > 0 {
		n, err := fc.conn.Write(p)
		if err != nil {
			return ioError("FramedConn.WriteData", "failed to write payload", err)
		}
		p = p[n:]
	}
	return nil
}
