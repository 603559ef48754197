//go:build tinygo

package neopixel

import (
	"context"
	"machine"

	"tinygo.org/x/drivers/ws2812"
)

// BitBang is a Queue for boards without PIO. Each word is sent immediately
// by the software-timed ws2812 driver, so the queue never holds a word and
// Push returns once the bits are on the wire.
type BitBang struct {
	dev ws2812.Device
	pin machine.Pin
	n   int
}

// NewBitBang configures pin as output and returns a bit-banged line.
func NewBitBang(pin machine.Pin, layout Layout) *BitBang {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.Low()
	return &BitBang{dev: ws2812.New(pin), pin: pin, n: layout.Channels()}
}

// Push sends the layout's channels of w, MSB first.
func (b *BitBang) Push(ctx context.Context, w Word) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for i := 0; i < b.n; i++ {
		if err := b.dev.WriteByte(byte(w >> (24 - 8*i))); err != nil {
			return err
		}
	}
	return nil
}

// Len always returns zero.
func (b *BitBang) Len() int { return 0 }

// Cap returns one: a word is in flight only while Push runs.
func (b *BitBang) Cap() int { return 1 }

// Reset drives the line low.
func (b *BitBang) Reset() { b.pin.Low() }

// Drain returns immediately, Push is synchronous.
func (b *BitBang) Drain(ctx context.Context) error { return ctx.Err() }
