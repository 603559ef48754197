//go:build tinygo

package main

import (
	"context"
	"machine"
	"strconv"
	"time"

	"github.com/tinygo-org/neopio/animation"
	"github.com/tinygo-org/neopio/neopixel"
	pio "github.com/tinygo-org/neopio/rp2-pio"
	"github.com/tinygo-org/neopio/rp2-pio/piolib"
)

var ws2812Pin string

const numLEDs = 12

/*
This example package can be flashed, specifying the GPIO number via the -ldflags
flag like so:
tinygo flash -target=$TARGET_NAME -ldflags "-X main.ws2812Pin=$GPIO_NUMBER" ./examples/ws2812/
*/
func main() {
	// Sleep to catch prints.
	time.Sleep(2 * time.Second)
	pinNum, err := strconv.Atoi(ws2812Pin)
	if err != nil {
		println("Invalid pin number: " + ws2812Pin)
		pinNum = 16
	}
	timing, err := neopixel.NewTiming(machine.CPUFrequency(), neopixel.WS2812, neopixel.Cycles{})
	if err != nil {
		panic(err.Error())
	}
	println("clkdiv", timing.ClkDiv.String(), "tick", timing.TickPeriod().String())

	sm, _ := pio.PIO0.ClaimStateMachine()
	ws, err := piolib.NewWS2812(sm, machine.Pin(pinNum), neopixel.GRB, timing)
	if err != nil {
		panic(err.Error())
	}
	strip := neopixel.NewStrip(ws, neopixel.GRB, timing, numLEDs)
	strip.SetBrightness(0.25)

	// Show the color wheel once, then rotate it forever.
	ctx := context.Background()
	copy(strip.Pixels(), animation.Rainbow12)
	if err := strip.ShowSync(ctx); err != nil {
		println("show:", err.Error())
	}
	if pio.PIO0.GPIOStates()&(1<<pinNum) != 0 {
		println("line did not idle low after latch")
	}
	time.Sleep(time.Second)
	src := animation.Palette{Colors: animation.Rainbow12, Step: 1}
	for {
		n, err := animation.Play(ctx, strip, src, 100*time.Millisecond, 120)
		println("played", n, "frames")
		if err != nil {
			println("play:", err.Error())
			ws.Reset()
		}
	}
}
