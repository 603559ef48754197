package neopixel

import (
	"errors"
	"testing"
	"time"

	pio "github.com/tinygo-org/neopio/rp2-pio"
)

func TestTimingWS2812At125MHz(t *testing.T) {
	tm, err := NewTiming(125_000_000, WS2812, Cycles{})
	if err != nil {
		t.Fatal(err)
	}
	if tm.Cycles != DefaultCycles || tm.Cycles.PerBit() != 10 {
		t.Errorf("cycles %+v", tm.Cycles)
	}
	if tm.ClkDiv != (pio.ClkDiv{Whole: 15, Frac: 160}) {
		t.Errorf("clkdiv %v", tm.ClkDiv)
	}
	if tm.TickPeriod() != 125*time.Nanosecond {
		t.Errorf("tick %v", tm.TickPeriod())
	}
	if tm.BitPeriod() != 1250*time.Nanosecond {
		t.Errorf("bit %v", tm.BitPeriod())
	}
	one := Pulse{HighTicks: 6, LowTicks: 4, High: 750 * time.Nanosecond, Low: 500 * time.Nanosecond}
	zero := Pulse{HighTicks: 3, LowTicks: 7, High: 375 * time.Nanosecond, Low: 875 * time.Nanosecond}
	if got := tm.Pulse(true); got != one {
		t.Errorf("one got!=expected: %+v != %+v", got, one)
	}
	if got := tm.Pulse(false); got != zero {
		t.Errorf("zero got!=expected: %+v != %+v", got, zero)
	}
	if d := tm.WordDuration(24); d != 30*time.Microsecond {
		t.Errorf("word %v", d)
	}
	if d := tm.FrameDuration(2, 24); d != 110*time.Microsecond {
		t.Errorf("frame %v", d)
	}
	if n := tm.ResetTicks(); n != 400 {
		t.Errorf("reset ticks %d", n)
	}
}

func TestTimingAccuracy(t *testing.T) {
	clocks := []uint32{48_000_000, 100_000_000, 125_000_000, 133_000_000, 150_000_000, 200_000_000}
	for _, p := range []Protocol{WS2812, WS2812B, SK6812, WS2811} {
		for _, clk := range clocks {
			tm, err := NewTiming(clk, p, Cycles{})
			if err != nil {
				t.Errorf("%s at %d: %v", p.Name, clk, err)
				continue
			}
			if e := tm.RateError(); e >= 0.01 {
				t.Errorf("%s at %d: rate error %.4f", p.Name, clk, e)
			}
			// The divider is rounded to the nearest 1/256 step.
			if e := tm.RateError(); e > 0.5/float64(tm.ClkDiv.Raw()) {
				t.Errorf("%s at %d: rate error %.6f larger than half a step", p.Name, clk, e)
			}
		}
	}
}

func TestDutyInvariant(t *testing.T) {
	for t1 := uint8(1); t1 <= 4; t1++ {
		for t2 := uint8(1); t2 <= 6; t2++ {
			for t3 := uint8(1); t3 <= 5; t3++ {
				c := Cycles{T1: t1, T2: t2, T3: t3}
				for _, bit := range []bool{false, true} {
					if c.High(bit)+c.Low(bit) != c.PerBit() {
						t.Errorf("%+v bit %v: %d+%d != %d", c, bit, c.High(bit), c.Low(bit), c.PerBit())
					}
				}
				if c.High(true) <= c.High(false) {
					t.Errorf("%+v: one must be high longer than zero", c)
				}
			}
		}
	}
}

func TestTimingErrors(t *testing.T) {
	slow := Protocol{Name: "slow", BitRate: 1, Tolerance: time.Second, Cycles: DefaultCycles}
	for _, test := range []struct {
		name   string
		clock  uint32
		p      Protocol
		cycles Cycles
		param  string
		err    error
	}{
		{name: "clock too low", clock: 1_000_000, p: WS2812, param: "clkdiv", err: pio.ErrClkDivTooSmall},
		{name: "rate too low", clock: 125_000_000, p: slow, param: "clkdiv", err: pio.ErrClkDivTooLarge},
		{name: "zero clock", clock: 0, p: WS2812, param: "system clock"},
		{name: "zero rate", clock: 125_000_000, p: Protocol{Cycles: DefaultCycles}, param: "bit rate"},
		{name: "zero phase", clock: 125_000_000, p: WS2812, cycles: Cycles{T1: 0, T2: 3, T3: 4}, param: "cycles"},
		{name: "long phase", clock: 125_000_000, p: WS2812, cycles: Cycles{T1: 17, T2: 3, T3: 4}, param: "cycles"},
		{name: "short T0H", clock: 125_000_000, p: WS2812, cycles: Cycles{T1: 1, T2: 1, T3: 8}, param: "T0H"},
	} {
		_, err := NewTiming(test.clock, test.p, test.cycles)
		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Errorf("%s: expected *ConfigurationError, got %v", test.name, err)
			continue
		}
		if cfgErr.Param != test.param {
			t.Errorf("%s: param got!=expected: %q != %q", test.name, cfgErr.Param, test.param)
		}
		if test.err != nil && !errors.Is(err, test.err) {
			t.Errorf("%s: %v does not wrap %v", test.name, err, test.err)
		}
	}
}

func TestMustTimingPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustTiming(1_000_000, WS2812, Cycles{})
}
