// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfb

import (
	"context"
)

// RunHandshake drives the version/security/init exchange for one client
// connection, splicing data between client and server: it reads from one
// side, logs, writes to the other (§4.3). It returns the session's initial
// PixelFormat, as snapshotted from the server's ServerInit message.
//
// Unlike the source this behavior was distilled from, the version branch
// negotiates on Min(clientVersion, serverVersion) rather than hard-coding
// the RFB 3.3 literal — see SPEC_FULL.md's resolution of the version
// negotiation bug noted in the specification's open questions. The 3.8
// SecurityResult is read whenever the negotiated version is 3.8 or newer,
// which is now reachable.
func RunHandshake(ctx context.Context, client, server *FramedConn, logger Logger) (PixelFormat, error) {
	if err := ctx.Err(); err != nil {
		return PixelFormat{}, ioError("RunHandshake", "context canceled before handshake started", err)
	}

	serverVersion, err := readFramed(server, decodeVersion)
	if err != nil {
		return PixelFormat{}, err
	}
	logger.Debug("received server version", Field{Key: "version", Value: serverVersion.String()})
	if err := client.WriteMessage(serverVersion); err != nil {
		return PixelFormat{}, err
	}

	clientVersion, err := readFramed(client, decodeVersion)
	if err != nil {
		return PixelFormat{}, err
	}
	logger.Debug("received client version", Field{Key: "version", Value: clientVersion.String()})
	if err := server.WriteMessage(clientVersion); err != nil {
		return PixelFormat{}, err
	}

	negotiated := Min(clientVersion, serverVersion)
	logger.Debug("negotiated protocol version", Field{Key: "version", Value: negotiated.String()})

	if negotiated.Before(Version{Major: 3, Minor: 7}) {
		// Pre-3.7 handshakes have no SecurityTypes list: the server sends a
		// single 4-byte word that IS the chosen security type directly, not
		// a SecurityResult (RFC 6143 §7.1.1; see the version 003.003 branch
		// of the source this proxy was distilled from). Zero means
		// "invalid", followed by a reason string; any nonzero value is the
		// chosen type, which step 5's assertion requires to be None here
		// just as it does in the 3.7+ branch below.
		chosenWord, err := readFramed(server, decodeSecurityResult)
		if err != nil {
			return PixelFormat{}, err
		}
		if err := client.WriteMessage(chosenWord); err != nil {
			return PixelFormat{}, err
		}
		if chosenWord == 0 {
			reason, rerr := readFramed(server, decodeRFBString)
			if rerr != nil {
				return PixelFormat{}, rerr
			}
			return PixelFormat{}, protocolError("RunHandshake", reason, nil)
		}
		if uint32(chosenWord) != uint32(SecurityNone) {
			return PixelFormat{}, protocolError("RunHandshake",
				"server chose an authenticated security type; only None is supported", nil)
		}
	} else {
		types, err := readFramed(server, decodeSecurityTypes)
		if err != nil {
			return PixelFormat{}, err
		}
		if err := client.WriteMessage(types); err != nil {
			return PixelFormat{}, err
		}
		if len(types) == 0 {
			reason, rerr := readFramed(server, decodeRFBString)
			if rerr != nil {
				return PixelFormat{}, rerr
			}
			return PixelFormat{}, protocolError("RunHandshake", reason, nil)
		}

		chosen, err := readFramed(client, decodeSecurityType)
		if err != nil {
			return PixelFormat{}, err
		}
		if err := server.WriteMessage(chosen); err != nil {
			return PixelFormat{}, err
		}
		if chosen != SecurityNone {
			return PixelFormat{}, protocolError("RunHandshake",
				"client chose an authenticated security type; only None is supported", nil)
		}

		if !negotiated.Before(Version{Major: 3, Minor: 8}) {
			result, err := readFramed(server, decodeSecurityResult)
			if err != nil {
				return PixelFormat{}, err
			}
			if err := client.WriteMessage(result); err != nil {
				return PixelFormat{}, err
			}
			if result != SecurityResultOK {
				reason, rerr := readFramed(server, decodeRFBString)
				if rerr != nil {
					return PixelFormat{}, rerr
				}
				return PixelFormat{}, protocolError("RunHandshake", reason, nil)
			}
		}
	}

	clientInit, err := readFramed(client, decodeClientInit)
	if err != nil {
		return PixelFormat{}, err
	}
	if err := server.WriteMessage(clientInit); err != nil {
		return PixelFormat{}, err
	}

	serverInit, err := readFramed(server, decodeServerInit)
	if err != nil {
		return PixelFormat{}, err
	}
	if err := client.WriteMessage(serverInit); err != nil {
		return PixelFormat{}, err
	}

	logger.Info("handshake complete",
		Field{Key: "width", Value: serverInit.Width},
		Field{Key: "height", Value: serverInit.Height},
		Field{Key: "bpp", Value: serverInit.PixelFormat.BPP})

	return serverInit.PixelFormat, nil
}
