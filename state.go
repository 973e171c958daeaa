// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfb

// ClientId is an opaque, monotonically increasing identifier assigned to a
// client connection at accept time. It is stable for the connection's
// lifetime and never reused.
type ClientId uint64

// Icon is the proxy-injected overlay rectangle: its framebuffer position,
// dimensions, and raw RGBA pixel data. RGBAData is treated as borrowed for
// the duration of every concurrent S2C relay send that reads it; a state
// provider must not mutate the slice it returned from a prior Icon call
// while any relay may still be reading it.
type Icon struct {
	X, Y, Width, Height uint16
	RGBAData            []byte
}

// Contains reports whether the point (x, y) falls within the icon's
// bounding box, used by the C2S relay to test a pointer click (§4.4).
func (i Icon) Contains(x, y uint16) bool {
	return x >= i.X && x < i.X+i.Width && y >= i.Y && y < i.Y+i.Height
}

// Event is the sum type of notifications the relays feed into the state
// core: a click inside the overlay, or a client disconnecting.
type Event interface {
	clientId() ClientId
}

// ActionEvent reports that the client identified by ID clicked inside its
// current overlay icon.
type ActionEvent struct {
	ID ClientId
}

func (e ActionEvent) clientId() ClientId { return e.ID }

// DisconnectEvent reports that the client identified by ID has disconnected.
type DisconnectEvent struct {
	ID ClientId
}

func (e DisconnectEvent) clientId() ClientId { return e.ID }

// State is the application-defined value that drives the overlay. It is
// shared by reference across every client and mutated only by the state
// core's single writer loop (§4.6); every method must therefore be safe to
// call concurrently with other methods on the same value, though never
// concurrently with itself at the HandleEvent call site (that call is
// already serialized by the writer).
type State interface {
	// Icon returns the overlay to render for the client identified by id.
	// Must be deterministic with respect to the state's current value.
	Icon(id ClientId) Icon

	// EnableInput reports whether the client identified by id is currently
	// allowed to drive input. While it reports false, the C2S relay
	// swallows that client's PointerEvent and KeyEvent messages;
	// FramebufferUpdateRequest messages are not gated by it.
	EnableInput(id ClientId) bool

	// HandleEvent applies event to the state and reports whether the
	// state's observable value actually changed. A false return must not
	// cause any subscriber to be woken.
	HandleEvent(event Event) bool
}
