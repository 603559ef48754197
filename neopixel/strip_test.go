package neopixel

import (
	"context"
	"image/color"
	"testing"
	"time"
)

func TestStripDisplayer(t *testing.T) {
	f := NewFIFO(DepthJoined)
	s := NewStrip(f, GRB, MustTiming(125_000_000, WS2812, Cycles{}), 3)
	if x, y := s.Size(); x != 3 || y != 1 {
		t.Errorf("size %d,%d", x, y)
	}
	s.SetPixel(1, 0, color.RGBA{R: 255, A: 255})
	s.SetPixel(3, 0, color.RGBA{G: 1})
	s.SetPixel(0, 1, color.RGBA{G: 1})
	if err := s.Display(); err != nil {
		t.Fatal(err)
	}
	want := []uint32{0, 0x00ff0000, 0}
	for i, w := range want {
		got, ok := f.TryPop()
		if !ok || got != w {
			t.Errorf("word %d got!=expected: %#08x != %#08x", i, got, w)
		}
	}
}

func TestStripBrightnessGamma(t *testing.T) {
	s := NewStrip(NewFIFO(DepthJoined), GRB, MustTiming(125_000_000, WS2812, Cycles{}), 2)
	s.Fill(Color{R: 200, G: 255})
	s.SetBrightness(0.5)
	if got := GRB.Unpack(s.Frame()[0]); got != (Color{R: 100, G: 127}) {
		t.Errorf("half brightness: %+v", got)
	}
	s.SetBrightness(7)
	if s.Brightness() != 1 {
		t.Errorf("brightness not clamped: %v", s.Brightness())
	}
	if got := GRB.Unpack(s.Frame()[1]); got != (Color{R: 200, G: 255}) {
		t.Errorf("full brightness: %+v", got)
	}
	s.SetGamma(true)
	got := GRB.Unpack(s.Frame()[0])
	if got.G != 255 || got.R >= 200 || got.B != 0 {
		t.Errorf("gamma: %+v", got)
	}
}

func TestStripShowSync(t *testing.T) {
	l := newTestLine(t)
	s := NewStrip(l, GRB, l.Timing(), 12)
	for i := 0; i < s.Len(); i++ {
		s.Set(i, Color{R: uint8(i), B: uint8(255 - i)})
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				l.Advance(100)
			}
		}
	}()
	if err := s.ShowSync(ctx); err != nil {
		t.Fatal(err)
	}
	if got := s.Writer().Stats(); got.Words != 12 || got.Writes != 1 || got.Flushes != 1 {
		t.Errorf("stats %+v", got)
	}
	if l.Pulled() != 12 {
		t.Errorf("pulled %d", l.Pulled())
	}
}
