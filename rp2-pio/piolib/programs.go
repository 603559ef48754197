package piolib

import (
	"errors"
	"time"

	pio "github.com/tinygo-org/neopio/rp2-pio"
)

// pulsarCycles is the number of state machine cycles per pulse.
const pulsarCycles = 4

// PulsarProgram emits square-wave pulse trains. Each FIFO word is a pulse
// count minus one; a pulse is high 2 cycles and low 2 cycles.
//
//	.wrap_target
//	    pull block
//	    mov x, osr
//	loop:
//	    set pins, 1 [1]
//	    set pins, 0
//	    jmp x-- loop
//	.wrap
func PulsarProgram() pio.Program {
	asm := pio.AssemblerV0{}
	const loop = 2
	return pio.Program{
		Instructions: []uint16{
			asm.Pull(false, true).Encode(),
			asm.Mov(pio.MovDestX, pio.MovSrcOSR).Encode(),
			loop: asm.Set(pio.SetDestPins, 1).Delay(1).Encode(),
			asm.Set(pio.SetDestPins, 0).Encode(),
			asm.Jmp(loop, pio.JmpXNZeroDec).Encode(),
		},
		Origin: -1,
		Wrap:   4,
	}
}

// PatternProgram shifts one bit to the pin every bitCycles cycles (1..32).
// With autopull at 32 bits the FIFO words are sent MSB first back to back;
// when the FIFO runs dry the pin holds the last bit.
//
//	.wrap_target
//	    out pins, 1 [bitCycles-1]
//	.wrap
func PatternProgram(bitCycles uint8) pio.Program {
	asm := pio.AssemblerV0{}
	return pio.Program{
		Instructions: []uint16{asm.Out(pio.OutDestPins, 1).Delay(bitCycles - 1).Encode()},
		Origin:       -1,
	}
}

// patternCycles picks the largest number of cycles per bit for which the
// clock divider is representable.
func patternCycles(bitPeriod time.Duration, cpuFreq uint32) (pio.ClkDiv, uint8, error) {
	if bitPeriod <= 0 {
		return pio.ClkDiv{}, 0, pio.ErrClkDivTooSmall
	}
	var lastErr error
	for n := uint8(32); n > 0; n-- {
		tick := bitPeriod / time.Duration(n)
		if tick <= 0 || tick > 0xffffffff {
			continue
		}
		div, err := pio.ClkDivFromPeriod(uint32(tick), cpuFreq)
		if err == nil {
			return div, n, nil
		}
		lastErr = err
		if errors.Is(err, pio.ErrClkDivTooLarge) {
			// Fewer cycles per bit only grow the tick.
			break
		}
	}
	return pio.ClkDiv{}, 0, lastErr
}

// pulsarClkDiv returns the divider giving a pulse period of period.
func pulsarClkDiv(period time.Duration, cpuFreq uint32) (pio.ClkDiv, error) {
	tick := period / pulsarCycles
	if tick <= 0 {
		return pio.ClkDiv{}, pio.ErrClkDivTooSmall
	}
	if tick > 0xffffffff {
		return pio.ClkDiv{}, pio.ErrClkDivTooLarge
	}
	return pio.ClkDivFromPeriod(uint32(tick), cpuFreq)
}
