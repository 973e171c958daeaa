// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfb

import (
	"bytes"
	"errors"
	"testing"
)

func TestRectangle_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		rect Rectangle
	}{
		{"raw", Rectangle{X: 0, Y: 0, Width: 10, Height: 10, Enc: EncodingRaw}},
		{"cursor", Rectangle{X: 5, Y: 5, Width: 16, Height: 16, Enc: EncodingCursor}},
		{"copy rect", Rectangle{X: 100, Y: 200, Width: 1, Height: 1, Enc: EncodingCopyRect}},
		{"unknown encoding", Rectangle{X: 1, Y: 2, Width: 3, Height: 4, Enc: Encoding(999)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := tt.rect.Encode(nil)
			if len(encoded) != rectangleHeaderSize {
				t.Fatalf("Encode: got %d bytes, want %d", len(encoded), rectangleHeaderSize)
			}
			decoded, n, err := decodeRectangle(encoded)
			if err != nil {
				t.Fatalf("decodeRectangle: %v", err)
			}
			if n != rectangleHeaderSize {
				t.Fatalf("decodeRectangle: consumed %d bytes, want %d", n, rectangleHeaderSize)
			}
			if decoded != tt.rect {
				t.Fatalf("decodeRectangle: got %+v, want %+v", decoded, tt.rect)
			}
		})
	}
}

func TestRectangle_UnderrunSafety(t *testing.T) {
	rect := Rectangle{X: 1, Y: 2, Width: 3, Height: 4, Enc: EncodingZRLE}
	encoded := rect.Encode(nil)

	for i := 0; i < len(encoded); i++ {
		prefix := append([]byte(nil), encoded[:i]...)
		_, n, err := decodeRectangle(prefix)
		if !errors.Is(err, ErrShortBuffer) {
			t.Fatalf("prefix length %d: got err %v, want ErrShortBuffer", i, err)
		}
		if n != 0 {
			t.Fatalf("prefix length %d: consumed %d bytes on a short read", i, n)
		}
	}
}

func TestRectangle_Contains(t *testing.T) {
	r := Rectangle{X: 10, Y: 10, Width: 5, Height: 5}
	tests := []struct {
		x, y uint16
		want bool
	}{
		{10, 10, true},
		{14, 14, true},
		{15, 14, false},
		{14, 15, false},
		{9, 10, false},
		{0, 0, false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestRectangle_PayloadSize(t *testing.T) {
	tests := []struct {
		name string
		rect Rectangle
		bpp  uint8
		want int
	}{
		{"raw 32bpp", Rectangle{Width: 10, Height: 10, Enc: EncodingRaw}, 32, 10 * 10 * 4},
		{"raw 16bpp", Rectangle{Width: 4, Height: 3, Enc: EncodingRaw}, 16, 4 * 3 * 2},
		{"raw 8bpp", Rectangle{Width: 7, Height: 2, Enc: EncodingRaw}, 8, 7 * 2 * 1},
		{"cursor 32bpp even width", Rectangle{Width: 16, Height: 16, Enc: EncodingCursor}, 32, 16*16*4 + 2*16},
		{"cursor 32bpp odd width", Rectangle{Width: 9, Height: 4, Enc: EncodingCursor}, 32, 9*4*4 + 2*4},
		{"copy rect", Rectangle{Width: 999, Height: 999, Enc: EncodingCopyRect}, 32, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf := PixelFormat{BPP: tt.bpp}
			got, err := tt.rect.PayloadSize(pf)
			if err != nil {
				t.Fatalf("PayloadSize: %v", err)
			}
			if got != tt.want {
				t.Fatalf("PayloadSize = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRectangle_PayloadSize_Unsupported(t *testing.T) {
	rect := Rectangle{Width: 1, Height: 1, Enc: EncodingHextile}
	_, err := rect.PayloadSize(PixelFormat{BPP: 32})
	if !IsProxyError(err, ErrUnsupported) {
		t.Fatalf("PayloadSize: got %v, want ErrUnsupported", err)
	}
}

func TestDecodeZRLEPayload(t *testing.T) {
	payload := []byte{0xAA, 0xBB, 0xCC}
	var buf []byte
	buf = append(buf, 0, 0, 0, byte(len(payload)))
	buf = append(buf, payload...)

	decoded, n, err := decodeZRLEPayload(buf)
	if err != nil {
		t.Fatalf("decodeZRLEPayload: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d bytes, want %d", n, len(buf))
	}
	if !bytes.Equal(decoded, buf) {
		t.Fatalf("decoded payload = %v, want %v", decoded, buf)
	}

	for i := 0; i < len(buf); i++ {
		_, _, err := decodeZRLEPayload(buf[:i])
		if !errors.Is(err, ErrShortBuffer) {
			t.Fatalf("prefix length %d: got err %v, want ErrShortBuffer", i, err)
		}
	}
}
