// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

// Package clickcounter is a demonstration state provider: the overlay icon
// is a fixed image, and every click increments a shared counter. It is a
// minimal, concrete implementation of rfb.State used by cmd/rfbproxy's
// default run mode.
package clickcounter

import (
	"github.com/tenthirtyam/rfbproxy"
)

// State counts clicks on a fixed overlay icon shared by every client. It
// implements rfb.State; the state core's single writer goroutine is the
// only caller of HandleEvent, so count needs no internal synchronization
// of its own.
type State struct {
	icon  rfb.Icon
	count uint64
}

// New returns a State that renders icon for every client and starts at
// zero clicks.
func New(icon rfb.Icon) *State {
	return &State{icon: icon}
}

// Icon implements rfb.State: every client sees the same icon position and
// pixel data, except the alpha channel, which is overwritten with the
// counter's low byte so the overlay visibly changes with every click.
func (s *State) Icon(rfb.ClientId) rfb.Icon {
	icon := s.icon
	icon.RGBAData = append([]byte(nil), s.icon.RGBAData...)
	for i := 3; i < len(icon.RGBAData); i += 4 {
		icon.RGBAData[i] = byte(s.count)
	}
	return icon
}

// EnableInput implements rfb.State: input is always enabled in this demo
// provider.
func (s *State) EnableInput(rfb.ClientId) bool {
	return true
}

// HandleEvent implements rfb.State: an ActionEvent increments the counter
// and reports a change; a DisconnectEvent is observational only and never
// changes the counter.
func (s *State) HandleEvent(event rfb.Event) bool {
	switch event.(type) {
	case rfb.ActionEvent:
		s.count++
		return true
	default:
		return false
	}
}

// Count returns the current click count.
func (s *State) Count() uint64 {
	return s.count
}
