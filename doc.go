// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

// Package rfb implements the wire-level building blocks of a transparent
// RFB/VNC man-in-the-middle proxy: the protocol codec (C1), framed message
// I/O over a byte stream (C2), and the handshake driver (C3).
//
// rfb does not itself relay connections or hold application state — see
// internal/relay for the per-client C2S/S2C relay and internal/statecore for
// the shared state broadcast and event-collection core. Keeping the codec
// free of those concerns means every message type can be round-tripped and
// fuzzed in isolation.
//
// # Decoding
//
// Every message type exposes a decode function of the shape
// func([]byte) (T, int, error): on success it returns the decoded value
// and how many bytes it consumed; on ErrShortBuffer the input must be left
// untouched and retried once more bytes arrive. FramedConn wraps this
// retry loop over a live connection:
//
//	fc := NewFramedConn(conn)
//	msg, err := fc.ReadClientMessage()
//	if IsProxyError(err, ErrDecode) {
//		// malformed message; the connection should be torn down
//	}
//
// # Handshake
//
//	pf, err := RunHandshake(ctx, clientFramedConn, serverFramedConn, logger)
//
// This library speaks RFC 6143 through protocol version 3.8 and only the
// "None" (type 1) security type; unsupported security types and upstream
// protocol failures surface as a *ProxyError with code ErrProtocol.
package rfb
