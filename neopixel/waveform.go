package neopixel

import (
	"errors"
	"fmt"

	"github.com/tinygo-org/neopio/rp2-pio/piosim"
)

var (
	errBadPulse  = errors.New("neopixel: pulse matches neither bit")
	errTruncated = errors.New("neopixel: waveform ends inside a pulse")
	errPartial   = errors.New("neopixel: waveform ends inside a word")
)

// Decoded is a waveform turned back into words.
type Decoded struct {
	Words []Word
	// Frames counts low periods at least as long as the latch time.
	Frames int
	// Stretched counts lows longer than a bit but shorter than a latch,
	// i.e. the producer let the FIFO run dry mid frame.
	Stretched int
}

// DecodeWaveform reads bits from a trace produced with timing t and
// groups them into words of bits bits, MSB first. Every high pulse must match
// the one or zero pulse exactly and every low must be at least as long as
// the bit requires.
func DecodeWaveform(tr piosim.Trace, t Timing, bits uint8) (Decoded, error) {
	var d Decoded
	if bits == 0 || bits > 32 {
		return d, &ConfigurationError{Param: "bits", Reason: "must be 1..32"}
	}
	var cur uint32
	var n uint8
	one, zero := t.Pulse(true), t.Pulse(false)
	latch := t.ResetTicks()
	spans := tr.Spans
	for i := 0; i < len(spans); i++ {
		s := spans[i]
		if !s.High {
			// Leading idle.
			if i == 0 && s.Ticks >= latch && latch > 0 {
				d.Frames++
			}
			continue
		}
		var bit bool
		switch uint32(s.Ticks) {
		case one.HighTicks:
			bit = true
		case zero.HighTicks:
		default:
			return d, fmt.Errorf("span %d: high for %d ticks: %w", i, s.Ticks, errBadPulse)
		}
		if i+1 == len(spans) {
			return d, errTruncated
		}
		low := spans[i+1].Ticks
		want := zero.LowTicks
		if bit {
			want = one.LowTicks
		}
		last := i+2 == len(spans)
		switch {
		case low < uint64(want) && !last:
			return d, fmt.Errorf("span %d: low for %d ticks, want %d: %w", i+1, low, want, errBadPulse)
		case latch > 0 && low >= latch:
			d.Frames++
		case low > uint64(want) && !last:
			d.Stretched++
		}
		cur = cur<<1 | boolBit(bit)
		n++
		if n == bits {
			d.Words = append(d.Words, Word(cur<<(32-bits)))
			cur, n = 0, 0
		}
		i++
	}
	if n != 0 {
		return d, errPartial
	}
	return d, nil
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
