package main

import (
	"fmt"
	"io"
	"time"

	"github.com/tinygo-org/neopio/neopixel"
	"github.com/tinygo-org/neopio/rp2-pio/piosim"
)

// span is the shortest and longest run of one pulse phase, in ticks.
type span struct {
	min, max uint64
}

func (s *span) add(ticks uint64) {
	if s.max == 0 || ticks < s.min {
		s.min = ticks
	}
	if ticks > s.max {
		s.max = ticks
	}
}

// pulseStats collects measured pulse widths by bit value, index 1 for ones.
type pulseStats struct {
	count     [2]int
	high, low [2]span
}

// measure classifies every complete high/low pair of tr. Lows at least as
// long as the latch time are idle periods and not counted.
func (ps *pulseStats) measure(tr piosim.Trace, t neopixel.Timing) {
	one := t.Pulse(true)
	latch := t.ResetTicks()
	spans := tr.Spans
	for i := 0; i+1 < len(spans); i++ {
		s := spans[i]
		if !s.High {
			continue
		}
		low := spans[i+1].Ticks
		bit := 0
		if uint32(s.Ticks) == one.HighTicks {
			bit = 1
		}
		ps.count[bit]++
		ps.high[bit].add(s.Ticks)
		if low < latch {
			ps.low[bit].add(low)
		}
	}
}

func within(got, nominal, tol time.Duration) bool {
	d := got - nominal
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func verdict(ok bool) string {
	if ok {
		return "ok"
	}
	return "OUT OF TOLERANCE"
}

func writeTiming(w io.Writer, t neopixel.Timing, l neopixel.Layout) {
	p := t.Protocol
	fmt.Fprintf(w, "protocol   %s, %d bit/s nominal, layout %s (%d bits per LED)\n", p.Name, p.BitRate, l, l.Bits())
	fmt.Fprintf(w, "clock      %d Hz, divider %s, tick %v\n", t.SystemClockHz, t.ClkDiv, t.TickPeriod())
	fmt.Fprintf(w, "bit        %d cycles, %v, %.0f bit/s (error %.3f%%)\n",
		t.Cycles.PerBit(), t.BitPeriod(), t.BitRate(), 100*t.RateError())
	fmt.Fprintf(w, "latch      %v (%d ticks)\n", p.Reset, t.ResetTicks())
	for _, bit := range []bool{false, true} {
		pu := t.Pulse(bit)
		nh, nl := p.T0H, p.T0L
		if bit {
			nh, nl = p.T1H, p.T1L
		}
		fmt.Fprintf(w, "bit %d      high %v (%d ticks, nominal %v)  low %v (%d ticks, nominal %v)\n",
			boolToInt(bit), pu.High, pu.HighTicks, nh, pu.Low, pu.LowTicks, nl)
	}
}

func writeMeasured(w io.Writer, ps *pulseStats, t neopixel.Timing) {
	p := t.Protocol
	nominal := [2][2]time.Duration{{p.T0H, p.T0L}, {p.T1H, p.T1L}}
	for bit := 0; bit < 2; bit++ {
		if ps.count[bit] == 0 {
			fmt.Fprintf(w, "measured bit %d: none\n", bit)
			continue
		}
		h, l := ps.high[bit], ps.low[bit]
		ok := within(t.Ticks(h.min), nominal[bit][0], p.Tolerance) &&
			within(t.Ticks(h.max), nominal[bit][0], p.Tolerance)
		if l.max > 0 {
			ok = ok && within(t.Ticks(l.min), nominal[bit][1], p.Tolerance) &&
				within(t.Ticks(l.max), nominal[bit][1], p.Tolerance)
		}
		fmt.Fprintf(w, "measured bit %d: %d pulses, high %v..%v, low %v..%v: %s\n",
			bit, ps.count[bit], t.Ticks(h.min), t.Ticks(h.max), t.Ticks(l.min), t.Ticks(l.max), verdict(ok))
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
