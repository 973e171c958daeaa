// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package relay

import (
	"context"

	"github.com/tenthirtyam/rfbproxy"
)

// ClientToServer is the C2S relay (C4): it reads client messages, rewrites
// or swallows a fixed set of them, and forwards the rest to the server
// unchanged (§4.4).
type ClientToServer struct {
	link   *Link
	client *rfb.FramedConn
	server *rfb.FramedConn
	logger rfb.Logger

	// buttonDown tracks bit 0 of the last PointerEvent button mask this
	// client sent, to detect the high-to-low transition that is a click.
	buttonDown bool
}

// NewClientToServer builds a C2S relay for one client connection.
func NewClientToServer(link *Link, client, server *rfb.FramedConn, logger rfb.Logger) *ClientToServer {
	return &ClientToServer{link: link, client: client, server: server, logger: logger}
}

// Run loops until the client connection errors or the context is
// canceled. The caller (Connection) is responsible for emitting the single
// DisconnectEvent once both relay halves have exited (§4.4, §5
// "cancellation").
func (r *ClientToServer) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := r.client.ReadClientMessage()
		if err != nil {
			return err
		}
		if err := r.handle(msg); err != nil {
			return err
		}
	}
}

func (r *ClientToServer) handle(msg rfb.ClientMessage) error {
	switch m := msg.(type) {
	case rfb.SetEncodingsMsg:
		return r.handleSetEncodings(m)
	case rfb.SetPixelFormatMsg:
		return r.handleSetPixelFormat(m)
	case rfb.KeyEventMsg:
		return r.handleKeyEvent(m)
	case rfb.PointerEventMsg:
		return r.handlePointerEvent(m)
	case rfb.FramebufferUpdateRequestMsg:
		return r.handleFramebufferUpdateRequest(m)
	default:
		return r.server.WriteMessage(msg)
	}
}

// handleSetEncodings replaces whatever the client offered with the fixed
// advertised list, regardless of content (§4.4): the proxy cannot size
// arbitrary encodings in the S2C relay and must guarantee Cursor support
// for its overlay.
func (r *ClientToServer) handleSetEncodings(m rfb.SetEncodingsMsg) error {
	r.logger.Debug("rewriting SetEncodings",
		rfb.Field{Key: "client_id", Value: r.link.ID},
		rfb.Field{Key: "requested", Value: len(m.Encodings)})
	rewritten := rfb.SetEncodingsMsg{Encodings: rfb.AdvertisedEncodings}
	return r.server.WriteMessage(rewritten)
}

// handleSetPixelFormat publishes the new format for the S2C relay to
// observe, then forwards the message unchanged (§4.4).
func (r *ClientToServer) handleSetPixelFormat(m rfb.SetPixelFormatMsg) error {
	r.link.PixelFormat.Publish(m.Format)
	return r.server.WriteMessage(m)
}

// handlePointerEvent detects a click — a high-to-low transition of button
// mask bit 0 — and, if the click lands inside the client's current
// overlay icon, swallows it and emits an Action event instead of
// forwarding it (§4.4). When the state provider has input disabled for
// this client, the event is swallowed outright: it is not forwarded and
// never evaluated as a click candidate.
func (r *ClientToServer) handlePointerEvent(m rfb.PointerEventMsg) error {
	state := r.link.State.Get()
	if !state.EnableInput(r.link.ID) {
		return nil
	}

	down := m.ButtonMask&0x1 != 0
	wasDown := r.buttonDown
	r.buttonDown = down

	if wasDown && !down {
		icon := state.Icon(r.link.ID)
		if icon.Contains(m.X, m.Y) {
			r.link.emit(rfb.ActionEvent{ID: r.link.ID})
			return nil
		}
	}

	return r.server.WriteMessage(m)
}

// handleKeyEvent forwards a key event unchanged, unless the state provider
// has input disabled for this client, in which case it is swallowed (§4.4,
// SPEC_FULL.md's enable_input decision).
func (r *ClientToServer) handleKeyEvent(m rfb.KeyEventMsg) error {
	if !r.link.State.Get().EnableInput(r.link.ID) {
		return nil
	}
	return r.server.WriteMessage(m)
}

// handleFramebufferUpdateRequest publishes the request onto the bounded
// reclamation channel (best-effort), then forwards it to the server only
// if ForwardRequest is currently true; otherwise it is swallowed so the
// S2C relay can account for it as a spent request budget (§4.4, §4.5).
func (r *ClientToServer) handleFramebufferUpdateRequest(m rfb.FramebufferUpdateRequestMsg) error {
	select {
	case r.link.Requests <- struct{}{}:
	default:
	}

	if !r.link.ForwardRequest.Load() {
		return nil
	}
	return r.server.WriteMessage(m)
}
