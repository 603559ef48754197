//go:build tinygo

package main

import (
	"context"
	"machine"
	"strconv"
	"time"

	"github.com/tinygo-org/neopio/animation"
	"github.com/tinygo-org/neopio/neopixel"
)

var ledPin string

const numLEDs = 8

/*
Drives a strip without PIO using the software-timed ws2812 driver. Flash with:
tinygo flash -target=$TARGET_NAME -ldflags "-X main.ledPin=$GPIO_NUMBER" ./examples/bitbang/
*/
func main() {
	time.Sleep(2 * time.Second)
	pinNum, err := strconv.Atoi(ledPin)
	if err != nil {
		println("Invalid pin number: " + ledPin)
		pinNum = 16
	}
	// Only the latch time is used; the driver times bits itself.
	timing := neopixel.MustTiming(machine.CPUFrequency(), neopixel.WS2812, neopixel.Cycles{})
	line := neopixel.NewBitBang(machine.Pin(pinNum), neopixel.GRB)
	strip := neopixel.NewStrip(line, neopixel.GRB, timing, numLEDs)
	strip.SetBrightness(0.2)
	strip.SetGamma(true)

	src := animation.Rainbow{Step: 4, Spread: 360 / numLEDs, Saturation: 1, Value: 1}
	for {
		n, err := animation.Play(context.Background(), strip, src, 30*time.Millisecond, 0)
		println("played", n, "frames")
		if err != nil {
			println("play:", err.Error())
			strip.Writer().Reset()
		}
	}
}
