// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfb

import (
	"errors"
	"reflect"
	"testing"
)

func TestServerMessage_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  ServerMessage
	}{
		{"framebuffer update", FramebufferUpdateMsg{Count: 3}},
		{"framebuffer update zero", FramebufferUpdateMsg{Count: 0}},
		{"set color map entries", SetColorMapEntriesMsg{FirstColor: 10, Colors: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}}},
		{"set color map entries empty", SetColorMapEntriesMsg{FirstColor: 0, Colors: nil}},
		{"bell", BellMsg{}},
		{"cut text", ServerCutTextMsg{Text: "from server"}},
		{"cut text empty", ServerCutTextMsg{Text: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := tt.msg.Encode(nil)
			decoded, n, err := DecodeServerMessage(encoded)
			if err != nil {
				t.Fatalf("DecodeServerMessage: %v", err)
			}
			if n != len(encoded) {
				t.Fatalf("consumed %d bytes, want %d", n, len(encoded))
			}
			if !reflect.DeepEqual(decoded, tt.msg) {
				t.Fatalf("decoded = %#v, want %#v", decoded, tt.msg)
			}
		})
	}
}

func TestServerMessage_UnderrunSafety(t *testing.T) {
	msgs := []ServerMessage{
		FramebufferUpdateMsg{Count: 7},
		SetColorMapEntriesMsg{FirstColor: 1, Colors: []byte{1, 2, 3, 4, 5, 6}},
		BellMsg{},
		ServerCutTextMsg{Text: "abc"},
	}

	for _, msg := range msgs {
		encoded := msg.Encode(nil)
		for i := 0; i < len(encoded); i++ {
			_, n, err := DecodeServerMessage(encoded[:i])
			if !errors.Is(err, ErrShortBuffer) {
				t.Fatalf("%T prefix %d: got err %v, want ErrShortBuffer", msg, i, err)
			}
			if n != 0 {
				t.Fatalf("%T prefix %d: consumed %d bytes on short read", msg, i, n)
			}
		}
	}
}

func TestDecodeServerMessage_UnknownType(t *testing.T) {
	_, _, err := DecodeServerMessage([]byte{200})
	if !IsProxyError(err, ErrDecode) {
		t.Fatalf("got %v, want ErrDecode", err)
	}
}

func TestSetColorMapEntriesMsg_NumColors(t *testing.T) {
	m := SetColorMapEntriesMsg{Colors: make([]byte, 18)}
	if got := m.NumColors(); got != 3 {
		t.Fatalf("NumColors() = %d, want 3", got)
	}
}
