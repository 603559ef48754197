package pio

import (
	"errors"
	"math"
	"strconv"
	"time"
)

// Clock divider errors.
var (
	ErrClkDivTooSmall = errors.New("pio: clkdiv too small, frequency too high for CPU clock")
	ErrClkDivTooLarge = errors.New("pio: clkdiv too large, frequency too low for CPU clock")
)

const (
	clkDivFracBits = 8
	clkDivOne      = 1 << clkDivFracBits
	clkDivMaxRaw   = math.MaxUint16<<clkDivFracBits | math.MaxUint8
)

// ClkDiv is a state machine clock divider in 16.8 fixed point:
//
//	Frequency = clock freq / (Whole + Frac/256)
type ClkDiv struct {
	Whole uint16
	Frac  uint8
}

// ClkDivFromFrequency calculates the CLKDIV register values
// to reach a given StateMachine cycle frequency. freq and cpuFreq are expected to be in Hz.
// The divider is rounded to the nearest 1/256 step.
func ClkDivFromFrequency(freq, cpuFreq uint32) (ClkDiv, error) {
	//  freq = 256*clockfreq / (256*whole + frac)
	//  256*whole + frac = 256*clockfreq / freq
	if freq == 0 {
		return ClkDiv{}, ErrClkDivTooLarge
	}
	return splitClkdiv((clkDivOne*uint64(cpuFreq) + uint64(freq)/2) / uint64(freq))
}

// ClkDivFromPeriod calculates the CLKDIV register values
// to reach a given StateMachine cycle period given the CPU frequency.
// period is expected to be in nanoseconds. cpuFreq is expected to be in Hz.
//
// Prefer using ClkDivFromFrequency if possible for speed and accuracy.
func ClkDivFromPeriod(period, cpuFreq uint32) (ClkDiv, error) {
	//  1e9/period = 256*clockfreq / (256*whole + frac) =>
	//  256*whole + frac = 256*clockfreq*period/1e9
	return splitClkdiv((clkDivOne*uint64(period)*uint64(cpuFreq) + 5e8) / uint64(1e9))
}

func splitClkdiv(clkdiv uint64) (ClkDiv, error) {
	if clkdiv > clkDivMaxRaw {
		return ClkDiv{}, ErrClkDivTooLarge
	} else if clkdiv < clkDivOne {
		return ClkDiv{}, ErrClkDivTooSmall
	}
	return ClkDiv{Whole: uint16(clkdiv >> clkDivFracBits), Frac: uint8(clkdiv)}, nil
}

// Raw returns the divider as a 16.8 fixed point integer.
func (d ClkDiv) Raw() uint32 {
	return uint32(d.Whole)<<clkDivFracBits | uint32(d.Frac)
}

// IsZero reports whether the divider was never set. A zero divider is not representable.
func (d ClkDiv) IsZero() bool { return d.Whole == 0 }

// Frequency returns the state machine cycle frequency in Hz for the given CPU clock.
func (d ClkDiv) Frequency(cpuFreq uint32) float64 {
	if d.IsZero() {
		return 0
	}
	return float64(cpuFreq) * clkDivOne / float64(d.Raw())
}

// Period returns the state machine cycle period, rounded to the nearest nanosecond.
func (d ClkDiv) Period(cpuFreq uint32) time.Duration {
	if cpuFreq == 0 {
		return 0
	}
	den := clkDivOne * uint64(cpuFreq)
	return time.Duration((uint64(d.Raw())*uint64(time.Second) + den/2) / den)
}

func (d ClkDiv) String() string {
	return strconv.Itoa(int(d.Whole)) + "+" + strconv.Itoa(int(d.Frac)) + "/256"
}
