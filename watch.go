// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfb

import "sync"

// Watch is a single-writer, many-reader latest-value cell with change-edge
// notification (§5, §9 "Watch-style channels"). One goroutine calls
// Publish; any number of goroutines hold a Subscriber and select on
// Changed() alongside other channel operations (socket reads, timers) to
// learn when a new value is available, without blocking a whole goroutine
// on nothing else.
//
// No library in this module's dependency graph models this primitive
// directly, so it is built on the standard "close a channel to broadcast"
// idiom over a mutex-guarded value; see DESIGN.md.
type Watch[T any] struct {
	mu    sync.Mutex
	value T
	ch    chan struct{}
}

// NewWatch creates a Watch holding initial as its starting value.
func NewWatch[T any](initial T) *Watch[T] {
	return &Watch[T]{value: initial, ch: make(chan struct{})}
}

// Publish sets the watch's current value and wakes every subscriber
// currently selecting on a Changed() channel obtained before this call.
func (w *Watch[T]) Publish(v T) {
	w.mu.Lock()
	old := w.ch
	w.value = v
	w.ch = make(chan struct{})
	w.mu.Unlock()
	close(old)
}

// snapshot returns the current value and the channel that will close on
// the next Publish.
func (w *Watch[T]) snapshot() (T, chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value, w.ch
}

// Get returns the current value without blocking.
func (w *Watch[T]) Get() T {
	v, _ := w.snapshot()
	return v
}

// Subscriber observes a Watch's value over time. Its zero value is not
// usable; create one with Watch.Subscribe.
type Subscriber[T any] struct {
	w  *Watch[T]
	ch chan struct{}
}

// Subscribe returns a Subscriber tracking w from its current value.
func (w *Watch[T]) Subscribe() *Subscriber[T] {
	_, ch := w.snapshot()
	return &Subscriber[T]{w: w, ch: ch}
}

// Changed returns a channel that closes the next time the watch's value
// changes. Select on it alongside other channel operations; after it
// fires, call Value to observe the new value and re-arm the subscriber.
func (s *Subscriber[T]) Changed() <-chan struct{} {
	return s.ch
}

// Value returns the watch's current value and re-arms Changed() to fire
// on the next publish after this one.
func (s *Subscriber[T]) Value() T {
	v, ch := s.w.snapshot()
	s.ch = ch
	return v
}
