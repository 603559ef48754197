package animation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tinygo-org/neopio/neopixel"
)

var (
	red   = neopixel.Color{R: 255}
	green = neopixel.Color{G: 255}
	blue  = neopixel.Color{B: 255}
)

func TestRainbow(t *testing.T) {
	r := Rainbow{Step: 120, Spread: 120, Saturation: 1, Value: 1}
	dst := make([]neopixel.Color, 3)
	r.Render(0, dst)
	for i, want := range []neopixel.Color{red, green, blue} {
		if dst[i] != want {
			t.Errorf("frame 0 led %d: got %+v, expected %+v", i, dst[i], want)
		}
	}
	r.Render(1, dst)
	if dst[0] != green || dst[2] != red {
		t.Errorf("frame 1 not rotated: %+v", dst)
	}
	r.Render(-1, dst)
	if dst[0] != blue {
		t.Errorf("negative frame: %+v", dst[0])
	}
	(Rainbow{Spread: 120, Saturation: 1, Value: 0}).Render(0, dst)
	for i, c := range dst {
		if c != (neopixel.Color{}) {
			t.Errorf("value 0 led %d: %+v", i, c)
		}
	}
}

func TestGradient(t *testing.T) {
	g, err := NewGradient("#000000", "#ffffff")
	if err != nil {
		t.Fatal(err)
	}
	dst := make([]neopixel.Color, 5)
	g.Render(0, dst)
	if dst[0] != (neopixel.Color{}) {
		t.Errorf("first led: %+v", dst[0])
	}
	if dst[4] != (neopixel.Color{R: 255, G: 255, B: 255}) {
		t.Errorf("last led: %+v", dst[4])
	}
	for i := 1; i < len(dst); i++ {
		if dst[i].G <= dst[i-1].G {
			t.Errorf("gradient not increasing at %d: %+v", i, dst)
		}
	}
	g.Scroll = 1
	g.Render(1, dst)
	if dst[4] != (neopixel.Color{}) {
		t.Errorf("scrolled last led: %+v", dst[4])
	}

	_, err = NewGradient("#00", "#ffffff")
	var cerr *neopixel.ConfigurationError
	if !errors.As(err, &cerr) || cerr.Param != "from" {
		t.Errorf("got %v", err)
	}
}

func TestPalette(t *testing.T) {
	p := Palette{Colors: Rainbow12, Step: 1}
	dst := make([]neopixel.Color, 14)
	p.Render(0, dst)
	for i := range dst {
		if dst[i] != Rainbow12[i%12] {
			t.Errorf("led %d: %+v", i, dst[i])
		}
	}
	p.Render(13, dst)
	if dst[0] != Rainbow12[1] {
		t.Errorf("frame 13: %+v", dst[0])
	}
	// Empty palettes leave the frame alone.
	Palette{}.Render(0, dst)
	if dst[0] != Rainbow12[1] {
		t.Error("empty palette changed the frame")
	}
}

func TestChase(t *testing.T) {
	c := Chase{Color: red, Width: 2, Gap: 3}
	dst := make([]neopixel.Color, 7)
	check := func(n int, lit string) {
		t.Helper()
		c.Render(n, dst)
		var got []byte
		for _, px := range dst {
			if px == red {
				got = append(got, '#')
			} else {
				got = append(got, '.')
			}
		}
		if string(got) != lit {
			t.Errorf("frame %d: got %s, expected %s", n, got, lit)
		}
	}
	check(0, "##...##")
	check(1, ".##...#")
	check(4, "#...##.")
}

type fakeTarget struct {
	pixels []neopixel.Color
	shown  []neopixel.Color
	err    error
}

func (f *fakeTarget) Pixels() []neopixel.Color { return f.pixels }

func (f *fakeTarget) ShowSync(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.shown = append(f.shown, f.pixels[0])
	return nil
}

func TestPlay(t *testing.T) {
	f := &fakeTarget{pixels: make([]neopixel.Color, 4)}
	n, err := Play(context.Background(), f, Palette{Colors: Rainbow12, Step: 1}, time.Millisecond, 3)
	if err != nil || n != 3 {
		t.Fatalf("got %d frames, err %v", n, err)
	}
	for i, c := range f.shown {
		if c != Rainbow12[i] {
			t.Errorf("frame %d: %+v", i, c)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	f.shown = nil
	n, err = Play(ctx, f, Palette{Colors: Rainbow12}, time.Millisecond, 0)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v", err)
	}
	if n == 0 || n != len(f.shown) {
		t.Errorf("played %d, shown %d", n, len(f.shown))
	}

	f.err = errors.New("boom")
	if n, err := Play(context.Background(), f, Palette{Colors: Rainbow12}, 0, 2); err != f.err || n != 0 {
		t.Errorf("got %d, %v", n, err)
	}
}

func TestPlayStrip(t *testing.T) {
	line, err := neopixel.NewLine(neopixel.MustTiming(125_000_000, neopixel.WS2812, neopixel.Cycles{}), neopixel.GRB, 0)
	if err != nil {
		t.Fatal(err)
	}
	s := neopixel.NewStrip(line, neopixel.GRB, line.Timing(), 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		tick := time.NewTicker(time.Millisecond)
		defer tick.Stop()
		line.Run(ctx, tick.C)
	}()
	n, err := Play(ctx, s, Palette{Colors: []neopixel.Color{red}}, 0, 2)
	if err != nil || n != 2 {
		t.Fatalf("got %d, %v", n, err)
	}
	if st := s.Writer().Stats(); st.Words != 4 {
		t.Errorf("stats %+v", st)
	}
}
