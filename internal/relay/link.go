// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

// Package relay implements the per-client C2S and S2C message relays (C4,
// C5): the loops that read one connection's messages, decide whether to
// forward, rewrite, or swallow each one, and cooperate with each other
// through the shared primitives in Link.
package relay

import (
	"sync/atomic"

	"github.com/tenthirtyam/rfbproxy"
)

// requestChannelCapacity is the bounded capacity of the request
// reclamation channel (§5): "Request channel: bounded capacity 1,
// MPSC-style, best-effort try_send from C4, try_recv + blocking recv from
// C5." The specification's open question #4 notes this capacity can drop
// requests under load; SPEC_FULL.md elects to keep it at the documented
// value rather than guess a different one.
const requestChannelCapacity = 1

// Link bundles the cooperation primitives shared between one client's C4
// and C5 goroutines (§5): the latched pixel format, the request
// reclamation flag and channel, the shared state watch, and the
// connection's outgoing event producer.
type Link struct {
	ID ClientId

	PixelFormat *rfb.Watch[rfb.PixelFormat]

	// ForwardRequest gates whether C4 forwards a FramebufferUpdateRequest
	// to the server, or lets C5 reclaim it for an unsolicited update
	// (§4.4, §4.5). Sequentially consistent per the specification.
	ForwardRequest atomic.Bool

	// Requests is the bounded request-reclamation channel.
	Requests chan struct{}

	State *rfb.Watch[rfb.State]

	Events chan<- rfb.Event
}

// ClientId is an alias kept local to this package so relay call sites read
// naturally as relay.ClientId without an import-qualified rfb.ClientId at
// every call site; the underlying type is identical.
type ClientId = rfb.ClientId

// NewLink creates a Link for client id, starting with initialFormat as the
// latched pixel format and forwarding enabled.
func NewLink(id ClientId, initialFormat rfb.PixelFormat, state *rfb.Watch[rfb.State], events chan<- rfb.Event) *Link {
	l := &Link{
		ID:          id,
		PixelFormat: rfb.NewWatch(initialFormat),
		Requests:    make(chan struct{}, requestChannelCapacity),
		State:       state,
		Events:      events,
	}
	l.ForwardRequest.Store(true)
	return l
}

// emit sends event to the state core's event channel, best-effort:
// dropping it on a full channel rather than blocking, per §4.4's
// "non-blocking drop on full" rule for Action events.
func (l *Link) emit(event rfb.Event) {
	select {
	case l.Events <- event:
	default:
	}
}

// emitDisconnect delivers a DisconnectEvent with guaranteed (blocking)
// send: §8's testable property requires the event channel deliver exactly
// one Disconnect per client, so unlike emit this never drops it on a full
// channel.
func (l *Link) emitDisconnect(event rfb.DisconnectEvent) {
	l.Events <- event
}
