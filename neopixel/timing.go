package neopixel

import (
	"math"
	"strconv"
	"time"

	pio "github.com/tinygo-org/neopio/rp2-pio"
)

// Protocol describes the wire timing of an LED family as given by its datasheet.
type Protocol struct {
	Name    string
	BitRate uint32 // Hz

	// Nominal pulse widths.
	T0H, T0L time.Duration
	T1H, T1L time.Duration
	// Tolerance is the allowed deviation of each pulse from nominal.
	Tolerance time.Duration
	// Reset is the minimum low time that latches a frame.
	Reset time.Duration

	// Cycles is the program split used when none is given.
	Cycles Cycles
}

// Supported protocols.
var (
	WS2812 = Protocol{
		Name: "WS2812", BitRate: 800_000,
		T0H: 350 * time.Nanosecond, T0L: 800 * time.Nanosecond,
		T1H: 700 * time.Nanosecond, T1L: 600 * time.Nanosecond,
		Tolerance: 150 * time.Nanosecond, Reset: 50 * time.Microsecond,
		Cycles: DefaultCycles,
	}
	WS2812B = Protocol{
		Name: "WS2812B", BitRate: 800_000,
		T0H: 400 * time.Nanosecond, T0L: 850 * time.Nanosecond,
		T1H: 800 * time.Nanosecond, T1L: 450 * time.Nanosecond,
		Tolerance: 150 * time.Nanosecond, Reset: 280 * time.Microsecond,
		Cycles: DefaultCycles,
	}
	SK6812 = Protocol{
		Name: "SK6812", BitRate: 800_000,
		T0H: 300 * time.Nanosecond, T0L: 900 * time.Nanosecond,
		T1H: 600 * time.Nanosecond, T1L: 600 * time.Nanosecond,
		Tolerance: 150 * time.Nanosecond, Reset: 80 * time.Microsecond,
		Cycles: DefaultCycles,
	}
	// WS2811 in low speed mode.
	WS2811 = Protocol{
		Name: "WS2811", BitRate: 400_000,
		T0H: 500 * time.Nanosecond, T0L: 2000 * time.Nanosecond,
		T1H: 1200 * time.Nanosecond, T1L: 1300 * time.Nanosecond,
		Tolerance: 150 * time.Nanosecond, Reset: 50 * time.Microsecond,
		Cycles: Cycles{T1: 2, T2: 3, T3: 5},
	}
)

// Protocols lists the supported protocols by name.
var Protocols = map[string]Protocol{
	WS2812.Name:  WS2812,
	WS2812B.Name: WS2812B,
	SK6812.Name:  SK6812,
	WS2811.Name:  WS2811,
}

// Cycles splits one bit into the three phases of the LED program:
// T1 high for every bit, T2 high for a one and low for a zero, T3 low.
type Cycles struct {
	T1, T2, T3 uint8
}

// DefaultCycles is a 10 cycle bit: a one is high 6 low 4, a zero high 3 low 7.
var DefaultCycles = Cycles{T1: 3, T2: 3, T3: 4}

// maxPhase is the longest phase one instruction with one side-set bit can hold.
const maxPhase = 16

// PerBit returns the number of state machine cycles per bit.
func (c Cycles) PerBit() uint32 { return uint32(c.T1) + uint32(c.T2) + uint32(c.T3) }

// High returns the number of cycles the line is high for bit.
func (c Cycles) High(bit bool) uint32 {
	if bit {
		return uint32(c.T1) + uint32(c.T2)
	}
	return uint32(c.T1)
}

// Low returns the number of cycles the line is low for bit.
func (c Cycles) Low(bit bool) uint32 {
	if bit {
		return uint32(c.T3)
	}
	return uint32(c.T2) + uint32(c.T3)
}

func (c Cycles) validate() error {
	for _, t := range [...]uint8{c.T1, c.T2, c.T3} {
		if t == 0 || t > maxPhase {
			return &ConfigurationError{Param: "cycles", Reason: "phase must be 1.." + strconv.Itoa(maxPhase)}
		}
	}
	return nil
}

// Pulse is the high and low part of one bit.
type Pulse struct {
	HighTicks, LowTicks uint32
	High, Low           time.Duration
}

// Timing is a validated line configuration. It is immutable; changing the
// bit rate means building a new Timing and reconfiguring the line.
type Timing struct {
	Protocol      Protocol
	SystemClockHz uint32
	Cycles        Cycles
	ClkDiv        pio.ClkDiv
}

// maxRateError is the largest relative bit rate error accepted.
const maxRateError = 0.01

// NewTiming derives the clock divider running the LED program at
// p.BitRate*cycles.PerBit() from systemClockHz. A zero cycles uses
// p.Cycles. It fails with a *ConfigurationError when the divider is not
// representable, the rate is off by 1% or more, or a pulse falls outside
// the protocol tolerance.
func NewTiming(systemClockHz uint32, p Protocol, cycles Cycles) (Timing, error) {
	if cycles == (Cycles{}) {
		cycles = p.Cycles
	}
	if err := cycles.validate(); err != nil {
		return Timing{}, err
	}
	if systemClockHz == 0 {
		return Timing{}, &ConfigurationError{Param: "system clock", Reason: "must be positive"}
	}
	if p.BitRate == 0 {
		return Timing{}, &ConfigurationError{Param: "bit rate", Reason: "must be positive"}
	}
	tickHz := uint64(p.BitRate) * uint64(cycles.PerBit())
	if tickHz > math.MaxUint32 {
		return Timing{}, &ConfigurationError{Param: "clkdiv", Err: pio.ErrClkDivTooSmall}
	}
	div, err := pio.ClkDivFromFrequency(uint32(tickHz), systemClockHz)
	if err != nil {
		return Timing{}, &ConfigurationError{Param: "clkdiv", Reason: p.Name + " at " + strconv.FormatUint(uint64(systemClockHz), 10) + "Hz", Err: err}
	}
	t := Timing{Protocol: p, SystemClockHz: systemClockHz, Cycles: cycles, ClkDiv: div}
	if e := t.RateError(); e >= maxRateError {
		return Timing{}, &ConfigurationError{Param: "bit rate", Reason: "divider error " + strconv.FormatFloat(100*e, 'f', 2, 64) + "%"}
	}
	if err := t.checkTolerance(); err != nil {
		return Timing{}, err
	}
	return t, nil
}

// MustTiming is NewTiming for package level configuration. It panics on error.
func MustTiming(systemClockHz uint32, p Protocol, cycles Cycles) Timing {
	t, err := NewTiming(systemClockHz, p, cycles)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Timing) checkTolerance() error {
	check := func(name string, got, want time.Duration) error {
		d := got - want
		if d < 0 {
			d = -d
		}
		if d > t.Protocol.Tolerance {
			return &ConfigurationError{
				Param:  name,
				Reason: got.String() + " outside " + want.String() + "±" + t.Protocol.Tolerance.String(),
			}
		}
		return nil
	}
	one, zero := t.Pulse(true), t.Pulse(false)
	for _, err := range []error{
		check("T0H", zero.High, t.Protocol.T0H),
		check("T0L", zero.Low, t.Protocol.T0L),
		check("T1H", one.High, t.Protocol.T1H),
		check("T1L", one.Low, t.Protocol.T1L),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// Ticks converts a number of state machine cycles to time, rounded to the nanosecond.
func (t Timing) Ticks(n uint64) time.Duration {
	den := 256 * uint64(t.SystemClockHz)
	if den == 0 {
		return 0
	}
	return time.Duration((n*uint64(t.ClkDiv.Raw())*uint64(time.Second) + den/2) / den)
}

// TickPeriod returns the duration of one state machine cycle.
func (t Timing) TickPeriod() time.Duration { return t.Ticks(1) }

// BitPeriod returns the duration of one bit.
func (t Timing) BitPeriod() time.Duration { return t.Ticks(uint64(t.Cycles.PerBit())) }

// BitRate returns the achieved bit rate in Hz.
func (t Timing) BitRate() float64 {
	return t.ClkDiv.Frequency(t.SystemClockHz) / float64(t.Cycles.PerBit())
}

// RateError returns the relative difference between achieved and target bit rate.
func (t Timing) RateError() float64 {
	target := float64(t.Protocol.BitRate)
	return math.Abs(t.BitRate()-target) / target
}

// Pulse returns the pulse emitted for bit.
func (t Timing) Pulse(bit bool) Pulse {
	h, l := t.Cycles.High(bit), t.Cycles.Low(bit)
	return Pulse{
		HighTicks: h, LowTicks: l,
		High: t.Ticks(uint64(h)), Low: t.Ticks(uint64(l)),
	}
}

// WordDuration returns the time to shift out one word of bits bits.
func (t Timing) WordDuration(bits uint8) time.Duration {
	return t.Ticks(uint64(bits) * uint64(t.Cycles.PerBit()))
}

// FrameDuration returns the time to send words colors plus the latch time.
func (t Timing) FrameDuration(words int, bits uint8) time.Duration {
	return t.Ticks(uint64(words)*uint64(bits)*uint64(t.Cycles.PerBit())) + t.Protocol.Reset
}

// ResetTicks returns the number of cycles covering the latch time.
func (t Timing) ResetTicks() uint64 {
	tick := t.TickPeriod()
	if tick <= 0 {
		return 0
	}
	return uint64((t.Protocol.Reset + tick - 1) / tick)
}
