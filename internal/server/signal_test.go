package server

import (
	"sync"
	"testing"
	"time"
)

// mustPanic runs fn and fails the test unless it panics.
func mustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	fn()
}

func TestCompletion(t *testing.T) {
	t.Run("DeliversOnce", func(t *testing.T) {
		c := NewCompletion[string]()
		done := c.Arm()

		go c.Fire("hello")

		select {
		case v := <-done:
			if v != "hello" {
				t.Errorf("expected 'hello', got %q", v)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for completion")
		}

		// Channel is closed after the single delivery.
		if _, open := <-done; open {
			t.Error("expected channel to be closed after delivery")
		}
	})

	t.Run("ArmTwicePanics", func(t *testing.T) {
		c := NewCompletion[int]()
		c.Arm()
		mustPanic(t, func() { c.Arm() })
	})

	t.Run("FireBeforeArmPanics", func(t *testing.T) {
		c := NewCompletion[int]()
		mustPanic(t, func() { c.Fire(1) })
	})

	t.Run("FireTwicePanics", func(t *testing.T) {
		c := NewCompletion[int]()
		c.Arm()
		c.Fire(1)
		mustPanic(t, func() { c.Fire(2) })
	})

	t.Run("Fired", func(t *testing.T) {
		c := NewCompletion[int]()
		if c.Fired() {
			t.Error("unarmed signal should not report fired")
		}
		c.Arm()
		if c.Fired() {
			t.Error("armed signal should not report fired before Fire")
		}
		c.Fire(1)
		if !c.Fired() {
			t.Error("signal should report fired after Fire")
		}
	})

	t.Run("ConcurrentFireExactlyOneWins", func(t *testing.T) {
		c := NewCompletion[int]()
		done := c.Arm()

		const racers = 8
		var panics sync.WaitGroup
		panicked := make(chan struct{}, racers)

		for i := 0; i < racers; i++ {
			panics.Add(1)
			go func(n int) {
				defer panics.Done()
				defer func() {
					if recover() != nil {
						panicked <- struct{}{}
					}
				}()
				c.Fire(n)
			}(i)
		}
		panics.Wait()

		if got := len(panicked); got != racers-1 {
			t.Errorf("expected %d losing racers to panic, got %d", racers-1, got)
		}

		select {
		case <-done:
		default:
			t.Error("expected exactly one delivery")
		}
	})
}
