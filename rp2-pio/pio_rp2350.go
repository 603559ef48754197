//go:build rp2350

package pio

import (
	"device/rp"
)

// RP2350 PIO peripheral handles.
var (
	PIO2 = &PIO{
		hw: rp.PIO2,
	}
)

func (pio *PIO) blockIndex() uint8 {
	switch pio.hw {
	case rp.PIO0:
		return 0
	case rp.PIO1:
		return 1
	case rp.PIO2:
		return 2
	}
	panic(badPIO)
}

func (sm StateMachine) isValid() bool {
	return sm.pio != nil && sm.index <= 3 &&
		(sm.pio.hw == rp.PIO0 || sm.pio.hw == rp.PIO1 || sm.pio.hw == rp.PIO2)
}

// SetGPIOBase configures the GPIO base for the PIO block, or which GPIO pin is
// seen as pin 0 inside the PIO. Can only be set to values of 0 or 16 and only
// sensible for use on RP2350B, where LED lines may sit on GPIO 16..47.
func (pio *PIO) SetGPIOBase(base uint32) {
	switch base {
	case 0, 16:
		pio.hw.GPIOBASE.Set(base)
	default:
		panic("pio:invalid gpiobase")
	}
}
