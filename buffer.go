// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfb

import "io"

// minReadHint is the minimum number of bytes requested from the underlying
// stream on each Fill call, per the framed I/O contract in the
// specification (C2).
const minReadHint = 256

// Buffer is a growable byte buffer that backs the "retry view" decoding
// contract: a decoder is handed Buffer.Bytes(), a cheap slice of the unread
// bytes, and only Advance commits what it consumed. A decoder that returns
// ErrShortBuffer must not have called Advance, so the buffer is left exactly
// as it was for the next attempt after more bytes arrive.
type Buffer struct {
	data []byte
}

// Bytes returns the unread portion of the buffer. The returned slice aliases
// Buffer's storage and is only valid until the next Append or Advance call.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the number of unread bytes currently buffered.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Append adds p to the end of the unread bytes.
func (b *Buffer) Append(p []byte) {
	b.data = append(b.data, p...)
}

// Advance discards the first n unread bytes, committing them as consumed.
// It panics if n exceeds Len, which would indicate a decoder bug.
func (b *Buffer) Advance(n int) {
	if n > len(b.data) {
		panic("rfb: Buffer.Advance past end of buffer")
	}
	remaining := len(b.data) - n
	copy(b.data, b.data[n:])
	b.data = b.data[:remaining]
}

// Fill issues one read of up to minReadHint bytes from r and appends
// whatever it returns to the buffer. It returns ErrIO wrapping io.EOF (or the
// underlying read error) if the stream is exhausted.
func (b *Buffer) Fill(r io.Reader) error {
	chunk := make([]byte, minReadHint)
	n, err := r.Read(chunk)
	if n > 0 {
		b.Append(chunk[:n])
	}
	if n == 0 && err == nil {
		return ioError("Buffer.Fill", "read returned zero bytes with no error", io.ErrNoProgress)
	}
	if err != nil {
		if n > 0 {
			// We made progress; let the caller re-attempt decode before
			// surfacing the error on the next Fill.
			return nil
		}
		return ioError("Buffer.Fill", "unexpected end of stream", err)
	}
	return nil
}
