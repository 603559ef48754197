package neopixel

import (
	"errors"
	"testing"

	"github.com/tinygo-org/neopio/rp2-pio/piosim"
)

func trace(spans ...piosim.Span) piosim.Trace { return piosim.Trace{Spans: spans} }

func lo(n uint64) piosim.Span { return piosim.Span{High: false, Ticks: n} }
func hi(n uint64) piosim.Span { return piosim.Span{High: true, Ticks: n} }

func TestDecodeWaveform(t *testing.T) {
	tm := MustTiming(125_000_000, WS2812, Cycles{})
	// 1, 0, 1, 1 with a stall after the second bit.
	tr := trace(lo(4), hi(6), lo(4), hi(3), lo(20), hi(6), lo(4), hi(6), lo(500))
	d, err := DecodeWaveform(tr, tm, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Words) != 1 || d.Words[0] != 0xb0000000 {
		t.Errorf("words %x", d.Words)
	}
	if d.Stretched != 1 || d.Frames != 1 {
		t.Errorf("stretched %d frames %d", d.Stretched, d.Frames)
	}
}

func TestDecodeWaveformErrors(t *testing.T) {
	tm := MustTiming(125_000_000, WS2812, Cycles{})
	for _, test := range []struct {
		name string
		tr   piosim.Trace
		err  error
	}{
		{"bad high", trace(lo(4), hi(5), lo(5)), errBadPulse},
		{"short low", trace(hi(6), lo(3), hi(6), lo(4)), errBadPulse},
		{"ends high", trace(lo(4), hi(6)), errTruncated},
		{"partial word", trace(hi(6), lo(4)), errPartial},
	} {
		if _, err := DecodeWaveform(test.tr, tm, 2); !errors.Is(err, test.err) {
			t.Errorf("%s: expected %v, got %v", test.name, test.err, err)
		}
	}
	if _, err := DecodeWaveform(trace(), tm, 0); err == nil {
		t.Error("zero bits accepted")
	}
}
