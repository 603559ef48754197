//go:build rp2040 || rp2350

package piolib

import (
	"context"
	"machine"
	"time"

	pio "github.com/tinygo-org/neopio/rp2-pio"
)

// Pulsar implements a square-wave generator that pulses a determined amount of pulses.
type Pulsar struct {
	sm            pio.StateMachine
	offsetPlusOne uint8
	dl            deadliner
}

// NewPulsar returns a new Pulsar ready for use.
func NewPulsar(sm pio.StateMachine, pin machine.Pin) (*Pulsar, error) {
	sm.TryClaim() // SM should be claimed beforehand, we just guarantee it's claimed.
	Pio := sm.PIO()

	prog := PulsarProgram()
	offset, err := Pio.AddProgram(prog)
	if err != nil {
		return nil, err
	}
	pin.Configure(machine.PinConfig{Mode: Pio.PinMode()})
	sm.SetPindirsConsecutive(pin, 1, true)
	cfg := pio.DefaultStateMachineConfig()
	cfg.SetProgram(prog, offset)
	cfg.SetSetPins(pin, 1)
	sm.Init(offset, cfg)
	sm.SetEnabled(true)
	return &Pulsar{sm: sm, offsetPlusOne: offset + 1}, nil
}

// IsQueueFull checks if the pulsar's queue is full.
func (p *Pulsar) IsQueueFull() bool {
	p.mustValid()
	return p.sm.IsTxFIFOFull()
}

// Queued returns amount of actions in the pulsar's queue.
func (p *Pulsar) Queued() uint8 {
	return uint8(p.sm.TxFIFOLevel())
}

// TryQueue adds an action to the pulsar's queue. If the queue is full it returns an error.
func (p *Pulsar) TryQueue(count uint32) error {
	if count == 0 {
		return nil
	} else if p.IsQueueFull() {
		return errQueueFull
	}
	p.sm.TxPut(count - 1)
	return nil
}

// Queue adds an action to the pulsar's queue, waiting for room until ctx is
// done or the timeout set with SetTimeout expires.
func (p *Pulsar) Queue(ctx context.Context, count uint32) error {
	dl := p.dl.newDeadline()
	for {
		err := p.TryQueue(count)
		if err != errQueueFull {
			return err
		}
		if dl.expired() {
			return errTimeout
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		gosched()
	}
}

// SetTimeout sets the maximum time Queue waits for room. Zero waits forever.
func (p *Pulsar) SetTimeout(timeout time.Duration) { p.dl.setTimeout(timeout) }

// SetPeriod sets the pulsar's square-wave period. Is safe to call while pulsar is running.
func (p *Pulsar) SetPeriod(period time.Duration) error {
	p.mustValid()
	div, err := pulsarClkDiv(period, machine.CPUFrequency())
	if err != nil {
		return err
	}
	p.sm.SetClkDiv(div)
	return nil
}

// Pause pauses the pulsar if enabled is true. If false unpauses the pulsar.
func (p *Pulsar) Pause(disabled bool) {
	p.mustValid()
	p.sm.SetEnabled(!disabled)
}

// Stop stops and resets the pulsar to initial state.
// Will unpause pulsar as well if paused and clear it's queue.
func (p *Pulsar) Stop() {
	p.mustValid()
	// See StateMachine.Init for reference on this sequence of operations.
	p.sm.SetEnabled(false)
	p.sm.ClearFIFOs()
	p.sm.Restart()
	p.sm.ClkDivRestart()
	p.sm.Exec(pio.EncodeJmp(p.offsetPlusOne-1, pio.JmpAlways))
	p.sm.SetEnabled(true)
}

func (p *Pulsar) mustValid() {
	if p.offsetPlusOne == 0 {
		panic("piolib: Pulsar not initialized")
	}
}
