package pio

import (
	"errors"
	"testing"
	"time"
)

func TestClkDivFromFrequency(t *testing.T) {
	for _, test := range []struct {
		freq, cpu uint32
		want      ClkDiv
		err       error
	}{
		// 800kHz * 10 cycles per bit.
		{freq: 8_000_000, cpu: 125_000_000, want: ClkDiv{Whole: 15, Frac: 160}},
		{freq: 125_000_000, cpu: 125_000_000, want: ClkDiv{Whole: 1}},
		{freq: 1_000_000, cpu: 125_000_000, want: ClkDiv{Whole: 125}},
		// 3.33..: nearest 1/256 step is 85.33 -> 85.
		{freq: 3_000_000, cpu: 10_000_000, want: ClkDiv{Whole: 3, Frac: 85}},
		{freq: 150_000_000, cpu: 125_000_000, err: ErrClkDivTooSmall},
		{freq: 1, cpu: 125_000_000, err: ErrClkDivTooLarge},
		{freq: 0, cpu: 125_000_000, err: ErrClkDivTooLarge},
	} {
		got, err := ClkDivFromFrequency(test.freq, test.cpu)
		if !errors.Is(err, test.err) {
			t.Errorf("freq=%d cpu=%d: err=%v, want %v", test.freq, test.cpu, err, test.err)
			continue
		}
		if got != test.want {
			t.Errorf("freq=%d cpu=%d: got %v, want %v", test.freq, test.cpu, got, test.want)
		}
	}
}

func TestClkDivFromPeriod(t *testing.T) {
	got, err := ClkDivFromPeriod(125, 125_000_000)
	if err != nil {
		t.Fatal(err)
	}
	if got != (ClkDiv{Whole: 15, Frac: 160}) {
		t.Errorf("got %v", got)
	}
	if _, err := ClkDivFromPeriod(1, 125_000_000); !errors.Is(err, ErrClkDivTooSmall) {
		t.Errorf("want too small, got %v", err)
	}
}

func TestClkDivPeriod(t *testing.T) {
	div := ClkDiv{Whole: 15, Frac: 160}
	if p := div.Period(125_000_000); p != 125*time.Nanosecond {
		t.Errorf("period: got %v", p)
	}
	if f := div.Frequency(125_000_000); f != 8e6 {
		t.Errorf("frequency: got %v", f)
	}
	if raw := div.Raw(); raw != 4000 {
		t.Errorf("raw: got %d", raw)
	}
	if s := div.String(); s != "15+160/256" {
		t.Errorf("string: got %q", s)
	}
	if !(ClkDiv{}).IsZero() || div.IsZero() {
		t.Error("IsZero mismatch")
	}
}
