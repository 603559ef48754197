//go:build rp2040 || rp2350

package piolib

import (
	"context"
	"machine"
	"time"

	"github.com/tinygo-org/neopio/neopixel"
	pio "github.com/tinygo-org/neopio/rp2-pio"
)

var _ neopixel.Drainer = (*WS2812)(nil)

// WS2812 drives a line of addressable LEDs from one state machine. It
// implements neopixel.Queue on top of the joined TX FIFO.
type WS2812 struct {
	sm     pio.StateMachine
	offset uint8
	prog   pio.Program
	layout neopixel.Layout
	timing neopixel.Timing
	dma    dmaChannel
	dl     deadliner
}

// NewWS2812 loads the LED program for timing and starts it on sm, driving pin.
// timing must have been computed for the current CPU frequency.
func NewWS2812(sm pio.StateMachine, pin machine.Pin, layout neopixel.Layout, timing neopixel.Timing) (*WS2812, error) {
	if timing.SystemClockHz != machine.CPUFrequency() {
		return nil, errBadClock
	}
	if !layout.IsValid() {
		return nil, &neopixel.ConfigurationError{Param: "layout", Reason: "invalid"}
	}
	sm.TryClaim() // SM should be claimed beforehand, we just guarantee it's claimed.
	// We add the program to PIO memory and store it's offset.
	Pio := sm.PIO()
	prog := neopixel.Program(timing.Cycles)
	offset, err := Pio.AddProgram(prog)
	if err != nil {
		return nil, err
	}
	pin.Configure(machine.PinConfig{Mode: Pio.PinMode()})
	sm.SetPinsConsecutive(pin, 1, false)
	sm.SetPindirsConsecutive(pin, 1, true)

	cfg := pio.DefaultStateMachineConfig()
	cfg.SetProgram(prog, offset)
	cfg.SetSidesetPins(pin)
	// Shift left so the most significant bit of each word goes out first.
	cfg.SetOutShift(false, true, uint16(layout.Bits()))
	// We only use Tx FIFO, so we set the join to Tx.
	cfg.SetFIFOJoin(pio.FifoJoinTx)
	cfg.SetClkDiv(timing.ClkDiv)
	sm.Init(offset, cfg)
	sm.SetEnabled(true)
	return &WS2812{
		sm:     sm,
		offset: offset,
		prog:   prog,
		layout: layout,
		timing: timing,
	}, nil
}

// Layout returns the color layout words are packed with.
func (ws *WS2812) Layout() neopixel.Layout { return ws.layout }

// Timing returns the protocol timing the state machine runs at.
func (ws *WS2812) Timing() neopixel.Timing { return ws.timing }

// SetTimeout sets the maximum time Push, WriteRaw and Drain wait on the
// hardware. A zero or negative timeout waits forever or until ctx is done.
func (ws *WS2812) SetTimeout(timeout time.Duration) {
	ws.dl.setTimeout(timeout)
	ws.dma.dl = ws.dl
}

// Push appends a packed word to the TX FIFO, waiting while it is full.
func (ws *WS2812) Push(ctx context.Context, w neopixel.Word) error {
	dl := ws.dl.newDeadline()
	for ws.sm.IsTxFIFOFull() {
		if dl.expired() {
			return errTimeout
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		gosched()
	}
	ws.sm.TxPut(uint32(w))
	return nil
}

// Len returns the number of words waiting in the TX FIFO.
func (ws *WS2812) Len() int { return int(ws.sm.TxFIFOLevel()) }

// Cap returns the depth of the joined TX FIFO.
func (ws *WS2812) Cap() int { return neopixel.DepthJoined }

// Reset stops the state machine, discards queued words and restarts the
// program with the line low. A stopped line stays stopped.
func (ws *WS2812) Reset() {
	// See StateMachine.Init for reference on this sequence of operations.
	enabled := ws.sm.IsEnabled()
	ws.sm.SetEnabled(false)
	ws.sm.ClearFIFOs()
	ws.sm.Restart()
	ws.sm.ClkDivRestart()
	ws.sm.Exec(pio.EncodeJmp(ws.offset, pio.JmpAlways))
	ws.sm.ClearTxStalled()
	ws.sm.SetEnabled(enabled)
}

// Drain waits until every queued word has been shifted out and the program
// is parked on an empty FIFO with the line low.
func (ws *WS2812) Drain(ctx context.Context) error {
	dl := ws.dl.newDeadline()
	for !ws.sm.IsTxFIFOEmpty() {
		if dl.expired() {
			return errTimeout
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		gosched()
	}
	// The stall flag is sticky, clear it so only a stall on the now empty FIFO counts.
	ws.sm.ClearTxStalled()
	for !ws.sm.IsTxStalled() {
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

// EnableDMA enables or disables DMA for WriteRaw.
func (ws *WS2812) EnableDMA(enabled bool) error {
	if !enabled {
		ws.dma.Unclaim()
		return nil
	}
	if ws.dma.IsValid() {
		return nil
	}
	ch, ok := claimDMAChannel()
	if !ok {
		return errDMAUnavail
	}
	ch.dl = ws.dl
	ws.dma = ch
	return nil
}

// IsDMAEnabled returns true if WriteRaw transfers through DMA.
func (ws *WS2812) IsDMAEnabled() bool { return ws.dma.IsValid() }

// WriteRaw sends already packed words, through DMA if enabled. It returns
// once the last word is in the FIFO.
func (ws *WS2812) WriteRaw(ctx context.Context, words []neopixel.Word) error {
	if ws.IsDMAEnabled() {
		buf := make([]uint32, len(words))
		for i, w := range words {
			buf[i] = uint32(w)
		}
		return ws.dma.Push32(&ws.sm.TxReg().Reg, buf, dmaPIO_TxDREQ(ws.sm))
	}
	for _, w := range words {
		if err := ws.Push(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

// Close stops the state machine and frees its program and DMA channel.
func (ws *WS2812) Close() {
	ws.sm.SetEnabled(false)
	ws.dma.Unclaim()
	ws.sm.PIO().ClearProgramSection(ws.offset, uint8(len(ws.prog.Instructions)))
	ws.sm.Unclaim()
}
