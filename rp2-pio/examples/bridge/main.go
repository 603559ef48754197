//go:build tinygo

package main

import (
	"context"
	"machine"
	"time"

	"github.com/tinygo-org/neopio/bridge"
	"github.com/tinygo-org/neopio/neopixel"
	pio "github.com/tinygo-org/neopio/rp2-pio"
	"github.com/tinygo-org/neopio/rp2-pio/piolib"
)

// serialReader adapts the default serial port (USB CDC) to io.Reader,
// waiting for data.
type serialReader struct{}

func (serialReader) Read(b []byte) (int, error) {
	for machine.Serial.Buffered() == 0 {
		time.Sleep(time.Millisecond)
	}
	n := 0
	for n < len(b) && machine.Serial.Buffered() > 0 {
		c, err := machine.Serial.ReadByte()
		if err != nil {
			return n, err
		}
		b[n] = c
		n++
	}
	return n, nil
}

// Receives frames from neosim -serial and shows them on the line.
func main() {
	const pin = machine.GP16
	timing, err := neopixel.NewTiming(machine.CPUFrequency(), neopixel.WS2812, neopixel.Cycles{})
	if err != nil {
		panic(err.Error())
	}
	sm, _ := pio.PIO0.ClaimStateMachine()
	ws, err := piolib.NewWS2812(sm, pin, neopixel.GRB, timing)
	if err != nil {
		panic(err.Error())
	}
	ws.SetTimeout(time.Second)
	w := neopixel.NewWriter(ws)
	dec := bridge.NewDecoder(serialReader{})
	ctx := context.Background()
	for {
		f, err := dec.Decode()
		if err != nil {
			println("decode:", err.Error())
			continue
		}
		if f.Bits != neopixel.GRB.Bits() {
			println("frame has", f.Bits, "bit words, line takes", neopixel.GRB.Bits())
			continue
		}
		if _, err := w.Write(ctx, f.Words); err != nil {
			println("write:", err.Error())
			w.Reset()
			continue
		}
		if err := w.Flush(ctx); err != nil {
			println("flush:", err.Error())
			w.Reset()
			continue
		}
		neopixel.Sleep(ctx, timing.Protocol.Reset)
	}
}
