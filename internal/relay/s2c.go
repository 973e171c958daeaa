// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package relay

import (
	"context"

	"github.com/tenthirtyam/rfbproxy"
)

// injectionBPP is the only bits-per-pixel value at which the overlay icon
// can be composed: the icon's RGBA bytes are already 4 bytes per pixel, so
// only a true-color 32bpp session can receive it as a Raw rectangle
// without a pixel-format conversion this proxy deliberately does not
// implement (§4.5, §9).
const injectionBPP = 32

// ServerToClient is the S2C relay (C5): it reads server messages, relays
// rectangles, injects the overlay rectangle into every FramebufferUpdate
// while 32bpp is in effect, and reacts to state changes by emitting
// unsolicited updates (§4.5).
type ServerToClient struct {
	link     *Link
	client   *rfb.FramedConn
	server   *rfb.FramedConn
	logger   rfb.Logger
	stateSub *rfb.Subscriber[rfb.State]
}

// NewServerToClient builds an S2C relay for one client connection. It
// subscribes to the state watch immediately, which consumes the
// initial-value edge per §4.5's "starts by marking the state channel as
// unchanged": only a Publish after this call will wake Changed().
func NewServerToClient(link *Link, client, server *rfb.FramedConn, logger rfb.Logger) *ServerToClient {
	return &ServerToClient{
		link:     link,
		client:   client,
		server:   server,
		logger:   logger,
		stateSub: link.State.Subscribe(),
	}
}

// serverRead is one outcome of the background read goroutine in Run.
type serverRead struct {
	msg rfb.ServerMessage
	err error
}

// Run loops over two concurrent inputs, a message arriving from the
// server and a change notification from the state watch, until either the
// server connection errors or the context is canceled. The caller
// (Connection) is responsible for emitting the single DisconnectEvent
// once both relay halves have exited.
func (r *ServerToClient) Run(ctx context.Context) error {
	reads := make(chan serverRead)
	go func() {
		for {
			msg, err := r.server.ReadServerMessage()
			select {
			case reads <- serverRead{msg: msg, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case read := <-reads:
			if read.err != nil {
				return read.err
			}
			if err := r.handle(read.msg); err != nil {
				return err
			}

		case <-r.stateSub.Changed():
			r.stateSub.Value()
			if err := r.handleStateChanged(); err != nil {
				return err
			}
		}
	}
}

func (r *ServerToClient) handle(msg rfb.ServerMessage) error {
	switch m := msg.(type) {
	case rfb.FramebufferUpdateMsg:
		return r.handleFramebufferUpdate(m)
	default:
		return r.client.WriteMessage(msg)
	}
}

// handleFramebufferUpdate implements §4.5's five-step sequence for a
// server-initiated update.
func (r *ServerToClient) handleFramebufferUpdate(m rfb.FramebufferUpdateMsg) error {
	r.reclaimRequest()

	pf := r.link.PixelFormat.Get()
	injectIcon := pf.BPP == injectionBPP

	header := m
	if injectIcon {
		header.Count = m.Count + 1
	}
	if err := r.client.WriteMessage(header); err != nil {
		return err
	}

	for i := uint16(0); i < m.Count; i++ {
		if err := r.relayRectangle(pf); err != nil {
			return err
		}
	}

	if injectIcon {
		return r.sendIcon()
	}
	return nil
}

// relayRectangle reads one rectangle header from the server and forwards
// it and its payload to the client, sizing the payload per the
// rectangle's encoding and the pixel format in effect (§4.1, §4.5).
func (r *ServerToClient) relayRectangle(pf rfb.PixelFormat) error {
	rect, err := r.server.ReadRectangleHeader()
	if err != nil {
		return err
	}
	if err := r.client.WriteMessage(rect); err != nil {
		return err
	}

	switch rect.Enc {
	case rfb.EncodingZRLE:
		payload, err := r.server.ReadZRLEPayload()
		if err != nil {
			return err
		}
		return r.client.WriteData(payload)

	case rfb.EncodingDesktopSize:
		return nil

	case rfb.EncodingRaw, rfb.EncodingCursor, rfb.EncodingCopyRect:
		size, err := rect.PayloadSize(pf)
		if err != nil {
			return err
		}
		payload, err := r.server.ReadData(size)
		if err != nil {
			return err
		}
		return r.client.WriteData(payload)

	default:
		_, err := rect.PayloadSize(pf)
		return err
	}
}

// handleStateChanged implements §4.5's "on state changed" branch: at
// non-32bpp the overlay cannot be composed, so the notification is
// ignored; at 32bpp, an unsolicited single-rectangle update is sent.
func (r *ServerToClient) handleStateChanged() error {
	pf := r.link.PixelFormat.Get()
	if pf.BPP != injectionBPP {
		return nil
	}

	r.reclaimRequest()

	if err := r.client.WriteMessage(rfb.FramebufferUpdateMsg{Count: 1}); err != nil {
		return err
	}
	return r.sendIcon()
}

// sendIcon writes the current overlay icon as a single Raw rectangle: a
// header matching its geometry followed by its RGBA bytes as one payload
// block (§4.5).
func (r *ServerToClient) sendIcon() error {
	state := r.link.State.Get()
	icon := state.Icon(r.link.ID)

	rect := rfb.Rectangle{X: icon.X, Y: icon.Y, Width: icon.Width, Height: icon.Height, Enc: rfb.EncodingRaw}
	if err := r.client.WriteMessage(rect); err != nil {
		return err
	}
	return r.client.WriteData(icon.RGBAData)
}

// reclaimRequest implements §4.5's "Request reclamation" procedure: spend
// one outstanding client request so an unsolicited send does not get
// ahead of the client's request budget.
func (r *ServerToClient) reclaimRequest() {
	select {
	case <-r.link.Requests:
		return
	default:
	}

	r.link.ForwardRequest.Store(false)
	<-r.link.Requests
	r.link.ForwardRequest.Store(true)
}
