// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package relay

import (
	"context"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/tenthirtyam/rfbproxy"
)

// Connection owns one accepted client's full lifetime: the handshake, and
// then the paired C4/C5 relay goroutines, wired together by a Link. Either
// relay half exiting cancels the other through the errgroup's derived
// context (§5 "Cancellation": "either relay task exiting ... cancels the
// other via task-group selection").
type Connection struct {
	ID     rfb.ClientId
	Client net.Conn
	Server net.Conn
	State  *rfb.Watch[rfb.State]
	Events chan<- rfb.Event
	Logger rfb.Logger
}

// Run drives the handshake and then the relay pair to completion. Once the
// handshake has succeeded, it emits exactly one DisconnectEvent for this
// client before returning, regardless of which relay half failed first. A
// handshake failure returns the error without emitting a DisconnectEvent.
func (c *Connection) Run(ctx context.Context) error {
	logger := c.Logger.With(rfb.Field{Key: "client_id", Value: c.ID})

	client := rfb.NewFramedConn(c.Client)
	server := rfb.NewFramedConn(c.Server)

	initialFormat, err := rfb.RunHandshake(ctx, client, server, logger)
	if err != nil {
		logger.Error("handshake failed", rfb.Field{Key: "error", Value: err})
		return err
	}

	link := NewLink(c.ID, initialFormat, c.State, c.Events)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return NewClientToServer(link, client, server, logger).Run(gctx)
	})
	group.Go(func() error {
		return NewServerToClient(link, client, server, logger).Run(gctx)
	})

	// A blocking socket read does not observe context cancellation on its
	// own; closing both connections as soon as the group's context is
	// done is what actually unblocks whichever relay half is still
	// reading once the other has exited.
	go func() {
		<-gctx.Done()
		_ = c.Client.Close()
		_ = c.Server.Close()
	}()

	err = group.Wait()
	link.emitDisconnect(rfb.DisconnectEvent{ID: c.ID})
	if err != nil {
		logger.Info("client disconnected", rfb.Field{Key: "reason", Value: err})
	}
	return err
}
