// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfb

import "fmt"

// Encoding is a tagged wrapper around an RFB encoding-type integer. Unlike
// the teacher library's per-encoding Read/Write interface (this proxy never
// decodes pixels — it only relays and sizes rectangles), Encoding is a
// closed set of named constants plus an Unknown(int32) escape hatch for
// anything the proxy has not been told to special-case.
type Encoding int32

// Known encoding-type constants, per RFC 6143 §7.7, plus the Cursor and
// DesktopSize pseudo-encodings. Of the two, only Cursor is in
// AdvertisedEncodings.
const (
	EncodingRaw         Encoding = 0
	EncodingCopyRect    Encoding = 1
	EncodingRRE         Encoding = 2
	EncodingHextile     Encoding = 5
	EncodingTRLE        Encoding = 15
	EncodingZRLE        Encoding = 16
	EncodingCursor      Encoding = -239
	EncodingDesktopSize Encoding = -223
)

// String renders the encoding's name, or "Unknown(n)" for an encoding type
// the proxy does not name explicitly.
func (e Encoding) String() string {
	switch e {
	case EncodingRaw:
		return "Raw"
	case EncodingCopyRect:
		return "CopyRect"
	case EncodingRRE:
		return "RRE"
	case EncodingHextile:
		return "Hextile"
	case EncodingTRLE:
		return "TRLE"
	case EncodingZRLE:
		return "ZRLE"
	case EncodingCursor:
		return "Cursor"
	case EncodingDesktopSize:
		return "DesktopSize"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(e))
	}
}

// AdvertisedEncodings is the fixed encoding list the C2S relay substitutes
// for whatever the client offered in SetEncodings (§4.4): the proxy can
// only size Raw, Cursor, and CopyRect rectangles, plus the self-delimited
// ZRLE it relays opaquely, so nothing else may reach the server.
var AdvertisedEncodings = []Encoding{EncodingRaw, EncodingCursor, EncodingCopyRect, EncodingZRLE}
