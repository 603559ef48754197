// Package piolib contains drivers for LED lines, pulse trains and bit
// patterns built on a single PIO state machine.
package piolib

import (
	"errors"
	"runtime"
	"time"
)

var (
	errTimeout    = errors.New("piolib:timeout")
	errQueueFull  = errors.New("piolib:queue full")
	errDMAUnavail = errors.New("piolib:DMA channel unavailable")
	errBadClock   = errors.New("piolib:timing computed for another system clock")
)

func gosched() {
	runtime.Gosched()
}

type deadline struct {
	t time.Time
}

func (dl deadline) expired() bool {
	if dl.t.IsZero() {
		return false
	}
	return time.Since(dl.t) > 0
}

type deadliner struct {
	// timeout is a bitshift value for the timeout.
	timeout uint8
}

func (ch deadliner) newDeadline() deadline {
	var t time.Time
	if ch.timeout != 0 {
		calc := time.Duration(1 << ch.timeout)
		t = time.Now().Add(calc)
	}
	return deadline{t: t}
}

func (ch *deadliner) setTimeout(timeout time.Duration) {
	if timeout <= 0 {
		ch.timeout = 0
		return // No timeout.
	}
	for i := uint8(0); i < 63; i++ {
		calc := time.Duration(1 << i)
		if calc > timeout {
			ch.timeout = i
			return
		}
	}
}
