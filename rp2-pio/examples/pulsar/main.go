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
	p, err := piolib.NewPulsar(sm, machine.LED)
	if err != nil {
		panic(err.Error())
	}
	// 2 Hz square wave, blinks visible on the onboard LED.
	err = p.SetPeriod(500 * time.Millisecond)
	if err != nil {
		panic(err.Error())
	}
	p.SetTimeout(10 * time.Second)
	ctx := context.Background()
	for count := uint32(1); ; count++ {
		println("queueing", count, "pulses, queued:", p.Queued())
		if err := p.Queue(ctx, count); err != nil {
			println("queue:", err.Error())
			p.Stop()
		}
		if count == 8 {
			count = 0
		}
		time.Sleep(time.Duration(count) * 500 * time.Millisecond)
	}
}
