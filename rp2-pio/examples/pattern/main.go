//go:build tinygo

package main

import (
	"context"
	"machine"
	"time"

	pio "github.com/tinygo-org/neopio/rp2-pio"
	"github.com/tinygo-org/neopio/rp2-pio/piolib"
)

func main() {
	// Sleep to catch prints.
	time.Sleep(2 * time.Second)
	sm, _ := pio.PIO0.ClaimStateMachine()
	// One bit per 50ms, each word takes 1.6s to shift out.
	pat, err := piolib.NewPattern(sm, machine.LED, 50*time.Millisecond)
	if err != nil {
		panic(err.Error())
	}
	ctx := context.Background()
	patterns := []uint32{
		0xaaaaaaaa, // fast blink
		0xff00ff00, // slow blink
		0xa8ee2a00, // SOS
		0x00000000,
	}
	for {
		for _, bits := range patterns {
			if err := pat.Push(ctx, bits); err != nil {
				println("push:", err.Error())
			}
		}
		if err := pat.Drain(ctx); err != nil {
			println("drain:", err.Error())
		}
		println("patterns sent")
	}
}
