// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfb

import (
	"errors"
	"testing"
)

func TestPixelFormat_RoundTrip(t *testing.T) {
	pf := PixelFormat{
		BPP:        32,
		Depth:      24,
		BigEndian:  true,
		TrueColor:  true,
		RedMax:     255,
		GreenMax:   255,
		BlueMax:    255,
		RedShift:   16,
		GreenShift: 8,
		BlueShift:  0,
	}
	encoded := pf.Encode(nil)
	if len(encoded) != pixelFormatSize {
		t.Fatalf("Encode: got %d bytes, want %d", len(encoded), pixelFormatSize)
	}
	decoded, n, err := decodePixelFormat(encoded)
	if err != nil {
		t.Fatalf("decodePixelFormat: %v", err)
	}
	if n != pixelFormatSize {
		t.Fatalf("consumed %d bytes, want %d", n, pixelFormatSize)
	}
	if decoded != pf {
		t.Fatalf("decoded = %+v, want %+v", decoded, pf)
	}
}

func TestPixelFormat_UnderrunSafety(t *testing.T) {
	pf := PixelFormat{BPP: 16, Depth: 16, TrueColor: true, RedMax: 31, GreenMax: 63, BlueMax: 31, RedShift: 11, GreenShift: 5}
	encoded := pf.Encode(nil)
	for i := 0; i < len(encoded); i++ {
		_, n, err := decodePixelFormat(encoded[:i])
		if !errors.Is(err, ErrShortBuffer) {
			t.Fatalf("prefix %d: got %v, want ErrShortBuffer", i, err)
		}
		if n != 0 {
			t.Fatalf("prefix %d: consumed %d bytes on short read", i, n)
		}
	}
}

func TestPixelFormat_BytesPerPixel(t *testing.T) {
	tests := []struct {
		bpp  uint8
		want int
	}{{8, 1}, {16, 2}, {32, 4}}
	for _, tt := range tests {
		pf := PixelFormat{BPP: tt.bpp}
		if got := pf.BytesPerPixel(); got != tt.want {
			t.Errorf("BytesPerPixel() for BPP=%d = %d, want %d", tt.bpp, got, tt.want)
		}
	}
}

func TestPixelFormat_Validate(t *testing.T) {
	for _, bpp := range []uint8{8, 16, 32} {
		if err := (PixelFormat{BPP: bpp}).Validate(); err != nil {
			t.Errorf("Validate() for BPP=%d: %v", bpp, err)
		}
	}
	if err := (PixelFormat{BPP: 24}).Validate(); !IsProxyError(err, ErrDecode) {
		t.Errorf("Validate() for BPP=24: got %v, want ErrDecode", err)
	}
}
