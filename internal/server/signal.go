package server

import (
	"sync"
)

// Completion is a single-use signal shared between an HTTP handler and the
// goroutine waiting on it. It holds at most one pending delivery slot: Arm
// readies the slot and returns the channel to await, Fire consumes the slot
// and delivers the value.
//
// Arming twice, or firing an unarmed or already-fired signal, is a
// programming error and panics. A second shutdown request or a second OAuth
// callback must surface loudly instead of being swallowed.
type Completion[T any] struct {
	mu    sync.Mutex
	ch    chan T
	armed bool
}

// NewCompletion creates an unarmed completion signal.
func NewCompletion[T any]() *Completion[T] {
	return &Completion[T]{}
}

// Arm readies the signal and returns the channel the waiter should receive
// from. The channel delivers exactly one value and is then closed.
func (c *Completion[T]) Arm() <-chan T {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.armed {
		panic("server: completion signal armed twice")
	}

	c.armed = true
	c.ch = make(chan T, 1)
	return c.ch
}

// Fire consumes the armed slot and delivers v to the waiter. Fire never
// blocks; the delivery channel is buffered.
func (c *Completion[T]) Fire(v T) {
	c.mu.Lock()
	ch := c.ch
	c.ch = nil
	c.mu.Unlock()

	if ch == nil {
		panic("server: completion signal fired twice or before arming")
	}

	ch <- v
	close(ch)
}

// Fired reports whether the armed slot has already been consumed.
func (c *Completion[T]) Fired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed && c.ch == nil
}
