//go:build rp2040 || rp2350

package piolib

import (
	"context"
	"machine"
	"time"

	pio "github.com/tinygo-org/neopio/rp2-pio"
)

// Pattern shifts arbitrary bit streams out of one pin at a fixed bit period,
// most significant bit of each 32-bit word first.
type Pattern struct {
	sm     pio.StateMachine
	offset uint8
	prog   pio.Program
	dl     deadliner
}

// NewPattern starts a pattern generator on sm driving pin with the given bit period.
func NewPattern(sm pio.StateMachine, pin machine.Pin, bitPeriod time.Duration) (*Pattern, error) {
	div, n, err := patternCycles(bitPeriod, machine.CPUFrequency())
	if err != nil {
		return nil, err
	}
	sm.TryClaim()
	Pio := sm.PIO()
	prog := PatternProgram(n)
	offset, err := Pio.AddProgram(prog)
	if err != nil {
		return nil, err
	}
	pin.Configure(machine.PinConfig{Mode: Pio.PinMode()})
	sm.SetPinsConsecutive(pin, 1, false)
	sm.SetPindirsConsecutive(pin, 1, true)
	cfg := pio.DefaultStateMachineConfig()
	cfg.SetProgram(prog, offset)
	cfg.SetOutPins(pin, 1)
	cfg.SetOutShift(false, true, 32)
	cfg.SetFIFOJoin(pio.FifoJoinTx)
	cfg.SetClkDiv(div)
	sm.Init(offset, cfg)
	sm.SetEnabled(true)
	return &Pattern{sm: sm, offset: offset, prog: prog}, nil
}

// SetTimeout sets the maximum time Push and Drain wait on the FIFO. Zero waits forever.
func (p *Pattern) SetTimeout(timeout time.Duration) { p.dl.setTimeout(timeout) }

// Push queues 32 bits.
func (p *Pattern) Push(ctx context.Context, bits uint32) error {
	dl := p.dl.newDeadline()
	for p.sm.IsTxFIFOFull() {
		if dl.expired() {
			return errTimeout
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		gosched()
	}
	p.sm.TxPut(bits)
	return nil
}

// Write queues every word of bits in order.
func (p *Pattern) Write(ctx context.Context, bits []uint32) error {
	for _, w := range bits {
		if err := p.Push(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of words waiting in the TX FIFO.
func (p *Pattern) Len() int { return int(p.sm.TxFIFOLevel()) }

// Cap returns the depth of the joined TX FIFO.
func (p *Pattern) Cap() int { return 8 }

// Reset discards queued words and restarts the program.
func (p *Pattern) Reset() {
	p.sm.SetEnabled(false)
	p.sm.ClearFIFOs()
	p.sm.Restart()
	p.sm.ClkDivRestart()
	p.sm.Exec(pio.EncodeJmp(p.offset, pio.JmpAlways))
	p.sm.SetEnabled(true)
}

// Drain waits until the FIFO is empty and the last word has been shifted out.
func (p *Pattern) Drain(ctx context.Context) error {
	dl := p.dl.newDeadline()
	for !p.sm.IsTxFIFOEmpty() {
		if dl.expired() {
			return errTimeout
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		gosched()
	}
	p.sm.ClearTxStalled()
	for !p.sm.IsTxStalled() {
		if dl.expired() {
			return errTimeout
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		gosched()
	}
	return nil
}

// Close stops the state machine and frees its program.
func (p *Pattern) Close() {
	p.sm.SetEnabled(false)
	p.sm.PIO().ClearProgramSection(p.offset, uint8(len(p.prog.Instructions)))
	p.sm.Unclaim()
}
