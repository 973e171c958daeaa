// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

// Package statecore implements the process-wide state broadcast and
// event-collection core (C6): it owns the current State value, accepts
// incoming TCP connections and assigns them ClientIds, and runs the
// single writer loop that applies events and publishes state changes.
package statecore

import (
	"context"
	"net"
	"sync/atomic"

	"github.com/tenthirtyam/rfbproxy"
	"github.com/tenthirtyam/rfbproxy/internal/relay"
)

// eventChannelCapacity is the bounded capacity of the event channel all
// clients produce into and the writer loop consumes (§5, §4.6).
const eventChannelCapacity = 16

// Core is the process-wide state core. Create one with New, then call Run
// to drive both the accept loop and the writer loop.
type Core struct {
	upstream string
	logger   rfb.Logger

	state    *rfb.Watch[rfb.State]
	events   chan rfb.Event
	nextID   atomic.Uint64
	listener net.Listener
}

// New creates a Core that dials upstream for every accepted client and
// starts with initial as the current State.
func New(listener net.Listener, upstream string, initial rfb.State, logger rfb.Logger) *Core {
	return &Core{
		upstream: upstream,
		logger:   logger,
		state:    rfb.NewWatch(initial),
		events:   make(chan rfb.Event, eventChannelCapacity),
		listener: listener,
	}
}

// Run drives the accept loop and the writer loop concurrently until ctx is
// canceled or the listener fails. It mirrors §4.6's description of both
// loops living "on the same task" by multiplexing {accept, event} in one
// goroutine, plus one goroutine per accepted connection for its handshake
// and relay lifetime.
func (c *Core) Run(ctx context.Context) error {
	accepted := make(chan net.Conn)
	acceptErr := make(chan error, 1)

	go func() {
		for {
			conn, err := c.listener.Accept()
			if err != nil {
				acceptErr <- err
				return
			}
			select {
			case accepted <- conn:
			case <-ctx.Done():
				_ = conn.Close()
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-acceptErr:
			return err

		case conn := <-accepted:
			c.acceptClient(ctx, conn)

		case event := <-c.events:
			c.applyEvent(event)
		}
	}
}

// acceptClient assigns the next ClientId, dials upstream, and spawns the
// per-client handshake-and-relay task. Dial failures are logged and the
// client connection is closed; a single bad upstream dial never takes
// down the listener (§7 propagation policy).
func (c *Core) acceptClient(ctx context.Context, client net.Conn) {
	id := rfb.ClientId(c.nextID.Add(1))
	logger := c.logger.With(rfb.Field{Key: "client_id", Value: id})

	server, err := net.Dial("tcp", c.upstream)
	if err != nil {
		logger.Error("failed to dial upstream", rfb.Field{Key: "upstream", Value: c.upstream}, rfb.Field{Key: "error", Value: err})
		_ = client.Close()
		return
	}

	conn := &relay.Connection{
		ID:     id,
		Client: client,
		Server: server,
		State:  c.state,
		Events: c.events,
		Logger: logger,
	}

	go func() {
		if err := conn.Run(ctx); err != nil {
			logger.Debug("connection closed", rfb.Field{Key: "error", Value: err})
		}
	}()
}

// applyEvent implements the writer loop's event-receipt rule (§4.6): apply
// handle_event under exclusive access (the writer goroutine is the only
// caller, so "exclusive" is structural rather than lock-based), and
// publish only if the state actually changed.
func (c *Core) applyEvent(event rfb.Event) {
	state := c.state.Get()
	if state.HandleEvent(event) {
		c.state.Publish(state)
	}
}
